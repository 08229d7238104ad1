package auth

import (
	"errors"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/pkg/constants"
	"carbon-ledger/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// Principal is the object stored in the session and returned by /me.
type Principal struct {
	AccountID string `json:"account_id"`
	Address   string `json:"address"`
	Role      string `json:"role"`
}

// AccountFinder abstracts account lookup by address+password (GORM in production, doubles in tests).
type AccountFinder interface {
	FindByAddressAndPassword(address, password string) (*domain.Account, error)
}

// GormAccountFinder implements AccountFinder using GORM and bcrypt.
type GormAccountFinder struct{ DB *gorm.DB }

func (g *GormAccountFinder) FindByAddressAndPassword(address, password string) (*domain.Account, error) {
	return Login(g.DB, LoginInput{Address: address, Password: password})
}

// Login finds the account by address and verifies the password.
func Login(db *gorm.DB, input LoginInput) (*domain.Account, error) {
	if input.Address == "" || input.Password == "" {
		return nil, ErrAddressPasswordRequired
	}
	var a domain.Account
	if err := db.Where("address = ?", input.Address).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}
	if a.PasswordHash == "" {
		return nil, ErrUnknownAccount
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &a, nil
}

// CreateAccount stores a new principal with a bcrypt-hashed password.
func CreateAccount(db *gorm.DB, address, password, role string) (*domain.Account, error) {
	if !validation.IsValidAddress(address) || domain.IsZeroAddress(address) || !validation.IsValidPassword(password) {
		return nil, ErrInvalidAccount
	}
	if !constants.IsValidRole(role) {
		return nil, ErrInvalidAccount
	}
	var n int64
	if err := db.Model(&domain.Account{}).Where("address = ?", address).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAccountExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	a := domain.Account{Address: address, PasswordHash: string(hash), Role: role}
	if err := db.Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// EnsureAdmin creates the administrator account on first start when a password is configured.
func EnsureAdmin(db *gorm.DB, address, password string) error {
	if password == "" {
		return nil
	}
	_, err := CreateAccount(db, address, password, domain.RoleAdmin)
	if errors.Is(err, ErrAccountExists) {
		return nil
	}
	if err == nil {
		log.Info().Str("address", address).Msg("Admin account created")
	}
	return err
}

// VerifyPrincipal validates the session user and returns the shape for /me.
func VerifyPrincipal(sessionUser interface{}) (*Principal, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	address := str(m["address"])
	if address == "" {
		return nil, ErrNotAuthenticated
	}
	return &Principal{
		AccountID: str(m["account_id"]),
		Address:   address,
		Role:      str(m["role"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
