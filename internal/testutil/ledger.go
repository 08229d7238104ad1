// Package testutil builds throwaway ledgers on in-memory SQLite for tests.
package testutil

import (
	"testing"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/database"
	"carbon-ledger/internal/infrastructure/store"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	Admin = "0xadmin"
	Owner = "0xowner"
	Buyer = "0xbuyer"
)

// MinPrice is the minimum price test ledgers start with.
var MinPrice = domain.NewAmount(100)

// NewDB opens a migrated in-memory database with the platform row seeded.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	_, err = database.EnsurePlatformState(db, database.Genesis{FeeBps: 250, MinPrice: MinPrice})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewStore returns a store over NewDB.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(NewDB(t))
}
