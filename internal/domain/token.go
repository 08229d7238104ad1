package domain

import "time"

// TokenBalance is one row of the fungible credit token ledger.
type TokenBalance struct {
	Account   string    `gorm:"column:account;primaryKey" json:"account"`
	Balance   Amount    `gorm:"column:balance;type:text;not null" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (TokenBalance) TableName() string {
	return "token_balances"
}

// CurrencyAccount holds settlement currency owed to an account, or held by the
// platform reserve.
type CurrencyAccount struct {
	Account   string    `gorm:"column:account;primaryKey" json:"account"`
	Balance   Amount    `gorm:"column:balance;type:text;not null" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CurrencyAccount) TableName() string {
	return "currency_accounts"
}
