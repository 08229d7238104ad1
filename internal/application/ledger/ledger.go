// Package ledger assembles the ledger services around one store.
package ledger

import (
	"time"

	"carbon-ledger/internal/application/admin"
	"carbon-ledger/internal/application/events"
	"carbon-ledger/internal/application/issuance"
	"carbon-ledger/internal/application/marketplace"
	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/application/tokens"
	"carbon-ledger/internal/application/treasury"
	"carbon-ledger/internal/infrastructure/store"

	"gorm.io/gorm"
)

// Options are the governance parameters fixed at construction.
type Options struct {
	Admin     string
	Threshold int64
	Rate      int64
	Decimals  int
	Publisher events.Publisher
	Now       func() time.Time
}

// Ledger is one logical carbon ledger.
type Ledger struct {
	Store       *store.Store
	Tokens      *tokens.Service
	Treasury    *treasury.Ledger
	Registry    *registry.Service
	Issuance    *issuance.Service
	Marketplace *marketplace.Service
	Admin       *admin.Service
}

// New wires every service over db. db must already be migrated and seeded.
func New(db *gorm.DB, opts Options) *Ledger {
	st := store.New(db)
	tl := tokens.NewLedger(opts.Decimals)
	tr := &treasury.Ledger{Store: st}
	reg := &registry.Service{Store: st, Events: opts.Publisher, Admin: opts.Admin, Now: opts.Now}
	return &Ledger{
		Store:    st,
		Tokens:   &tokens.Service{Store: st, Ledger: tl},
		Treasury: tr,
		Registry: reg,
		Issuance: &issuance.Service{
			Store:     st,
			Tokens:    tl,
			Events:    opts.Publisher,
			Admin:     opts.Admin,
			Threshold: opts.Threshold,
			Rate:      opts.Rate,
		},
		Marketplace: &marketplace.Service{Store: st, Tokens: tl, Treasury: tr, Events: opts.Publisher, Now: opts.Now},
		Admin:       &admin.Service{Store: st, Registry: reg, Treasury: tr, Events: opts.Publisher, Admin: opts.Admin},
	}
}
