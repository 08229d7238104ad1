package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal roles stored on accounts.
const (
	RoleAdmin   = "admin"
	RoleMember  = "member"
	RoleGateway = "gateway"
)

// Account is a principal known to the identity collaborator.
type Account struct {
	AccountID    uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	Address      string    `gorm:"column:address;uniqueIndex;not null" json:"address"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Role         string    `gorm:"column:role;type:varchar(20);not null" json:"role"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}

// IsZeroAddress reports the null identifier: blank, or 0x followed only by zeros.
func IsZeroAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return true
	}
	lower := strings.ToLower(addr)
	if !strings.HasPrefix(lower, "0x") {
		return false
	}
	return strings.Trim(lower[2:], "0") == ""
}
