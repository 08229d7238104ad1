package database

import (
	"errors"
	"strings"

	"carbon-ledger/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from DSN. Postgres DSNs (postgres://, host=...) use the
// pgx driver; "file:" URIs, ":memory:" and *.db paths use the pure-Go SQLite driver.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if IsSQLiteDSN(dsn) {
		db, err := gorm.Open(sqlite.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; a single connection also keeps :memory: databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// IsSQLiteDSN reports whether dsn names a SQLite database.
func IsSQLiteDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db")
}

// Models lists every table the ledger owns.
func Models() []interface{} {
	return []interface{}{
		&domain.PlatformState{},
		&domain.Project{},
		&domain.Sensor{},
		&domain.UserProject{},
		&domain.Offset{},
		&domain.Footprint{},
		&domain.TokenBalance{},
		&domain.CurrencyAccount{},
		&domain.LedgerEvent{},
		&domain.Account{},
	}
}

// AutoMigrate runs migrations for the ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Genesis is the initial governance configuration of a fresh ledger.
type Genesis struct {
	FeeBps   int64
	MinPrice domain.Amount
}

// EnsurePlatformState seeds the singleton counters row on first start; an
// existing row is left untouched so restarts never reset counters.
func EnsurePlatformState(db *gorm.DB, g Genesis) (*domain.PlatformState, error) {
	var st domain.PlatformState
	err := db.Take(&st, domain.PlatformStateID).Error
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	st = domain.PlatformState{
		ID:              domain.PlatformStateID,
		NextProjectID:   1,
		FeeBps:          g.FeeBps,
		MinPrice:        g.MinPrice,
		AccumulatedFees: domain.ZeroAmount(),
		TokenSupply:     domain.ZeroAmount(),
	}
	if err := db.Create(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
