package tokens

import (
	"context"
	"errors"
	"fmt"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is the fungible credit token ledger. Mint is the only way tokens come
// into existence, so sum(balances) == PlatformState.TokenSupply always holds.
type Ledger struct {
	unit domain.Amount
}

// NewLedger returns a ledger whose tokens have the given number of decimals:
// one whole credit is 10^decimals token units.
func NewLedger(decimals int) *Ledger {
	return &Ledger{unit: domain.TenPow(decimals)}
}

// UnitsPerCredit is the scaling factor applied wherever credits become tokens.
func (l *Ledger) UnitsPerCredit() domain.Amount {
	return l.unit
}

// Scale converts a whole-credit count to token units.
func (l *Ledger) Scale(credits int64) (domain.Amount, error) {
	if credits < 0 {
		return domain.Amount{}, fmt.Errorf("%w: credits must not be negative", domain.ErrValidation)
	}
	return l.unit.MulInt64(credits)
}

// Mint credits amount new token units to account.
func (l *Ledger) Mint(t *store.Txn, account string, amount domain.Amount) error {
	if domain.IsZeroAddress(account) {
		return fmt.Errorf("%w: cannot mint to the zero address", domain.ErrValidation)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: mint amount must be positive", domain.ErrValidation)
	}
	supply, err := t.State.TokenSupply.Add(amount)
	if err != nil {
		return err
	}
	bal, err := BalanceOf(t.DB, account)
	if err != nil {
		return err
	}
	if bal, err = bal.Add(amount); err != nil {
		return err
	}
	if err := putBalance(t.DB, account, bal); err != nil {
		return err
	}
	t.State.TokenSupply = supply
	t.MarkStateChanged()
	return nil
}

// Transfer moves amount from one account to another. Moving to oneself only
// checks the balance.
func (l *Ledger) Transfer(t *store.Txn, from, to string, amount domain.Amount) error {
	if domain.IsZeroAddress(to) {
		return fmt.Errorf("%w: cannot transfer to the zero address", domain.ErrValidation)
	}
	fromBal, err := BalanceOf(t.DB, from)
	if err != nil {
		return err
	}
	if fromBal.LT(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", domain.ErrInsufficientTokenBalance, from, fromBal, amount)
	}
	if from == to || amount.IsZero() {
		return nil
	}
	toBal, err := BalanceOf(t.DB, to)
	if err != nil {
		return err
	}
	if toBal, err = toBal.Add(amount); err != nil {
		return err
	}
	if fromBal, err = fromBal.Sub(amount); err != nil {
		return err
	}
	if err := putBalance(t.DB, from, fromBal); err != nil {
		return err
	}
	return putBalance(t.DB, to, toBal)
}

// BalanceOf reads an account balance; unknown accounts hold zero.
func BalanceOf(db *gorm.DB, account string) (domain.Amount, error) {
	var row domain.TokenBalance
	err := db.Where("account = ?", account).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ZeroAmount(), nil
	}
	if err != nil {
		return domain.Amount{}, err
	}
	return row.Balance, nil
}

func putBalance(db *gorm.DB, account string, bal domain.Amount) error {
	row := domain.TokenBalance{Account: account, Balance: bal}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&row).Error
}

// Service serves token reads to the query surface.
type Service struct {
	Store  *store.Store
	Ledger *Ledger
}

func (s *Service) Balance(ctx context.Context, account string) (domain.Amount, error) {
	var bal domain.Amount
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		var err error
		bal, err = BalanceOf(db, account)
		return err
	})
	return bal, err
}

func (s *Service) TotalSupply(ctx context.Context) (domain.Amount, error) {
	st, err := s.Store.State(ctx)
	if err != nil {
		return domain.Amount{}, err
	}
	return st.TokenSupply, nil
}
