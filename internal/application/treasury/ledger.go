// Package treasury is the settlement-currency rail the marketplace pays
// through. The built-in Ledger books currency in the ledger database so a
// failed settlement rolls back its currency movements with everything else.
package treasury

import (
	"context"
	"errors"
	"fmt"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReserveAccount holds funds received by the platform and not yet paid out.
const ReserveAccount = "platform:reserve"

// Treasury moves settlement currency on behalf of the platform.
type Treasury interface {
	// Receive books a payment delivered by from into the platform reserve.
	Receive(ctx context.Context, from string, amount domain.Amount) error
	// Pay sends amount from the platform reserve to the account. It fails with
	// ErrPaymentTransfer when the reserve cannot cover it.
	Pay(ctx context.Context, to string, amount domain.Amount) error
}

// Ledger is the database-backed Treasury.
type Ledger struct {
	Store *store.Store
}

var _ Treasury = (*Ledger)(nil)

func (l *Ledger) Receive(ctx context.Context, from string, amount domain.Amount) error {
	if amount.IsZero() {
		return nil
	}
	return l.within(ctx, func(db *gorm.DB) error {
		return credit(db, ReserveAccount, amount)
	})
}

func (l *Ledger) Pay(ctx context.Context, to string, amount domain.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if domain.IsZeroAddress(to) {
		return fmt.Errorf("%w: cannot pay the zero address", domain.ErrPaymentTransfer)
	}
	return l.within(ctx, func(db *gorm.DB) error {
		reserve, err := balance(db, ReserveAccount)
		if err != nil {
			return err
		}
		if reserve.LT(amount) {
			return fmt.Errorf("%w: reserve holds %s, payout is %s", domain.ErrPaymentTransfer, reserve, amount)
		}
		if reserve, err = reserve.Sub(amount); err != nil {
			return err
		}
		if err := put(db, ReserveAccount, reserve); err != nil {
			return err
		}
		return credit(db, to, amount)
	})
}

// Balance returns the currency paid out to account so far.
func (l *Ledger) Balance(ctx context.Context, account string) (domain.Amount, error) {
	var bal domain.Amount
	err := l.Store.View(ctx, func(db *gorm.DB) error {
		var err error
		bal, err = balance(db, account)
		return err
	})
	return bal, err
}

// Reserve returns the funds currently held by the platform.
func (l *Ledger) Reserve(ctx context.Context) (domain.Amount, error) {
	return l.Balance(ctx, ReserveAccount)
}

// within joins the ledger transaction carried by ctx, or opens one.
func (l *Ledger) within(ctx context.Context, fn func(db *gorm.DB) error) error {
	if t, ok := l.Store.FromContext(ctx); ok {
		return fn(t.DB)
	}
	return l.Store.Update(ctx, func(t *store.Txn) error {
		return fn(t.DB)
	})
}

func credit(db *gorm.DB, account string, amount domain.Amount) error {
	bal, err := balance(db, account)
	if err != nil {
		return err
	}
	if bal, err = bal.Add(amount); err != nil {
		return err
	}
	return put(db, account, bal)
}

func balance(db *gorm.DB, account string) (domain.Amount, error) {
	var row domain.CurrencyAccount
	err := db.Where("account = ?", account).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ZeroAmount(), nil
	}
	if err != nil {
		return domain.Amount{}, err
	}
	return row.Balance, nil
}

func put(db *gorm.DB, account string, bal domain.Amount) error {
	row := domain.CurrencyAccount{Account: account, Balance: bal}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&row).Error
}
