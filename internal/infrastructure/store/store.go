// Package store is the ledger's single serialization point. Every mutating
// operation runs through Update as one gorm transaction under a process-wide
// write lock; reads run through View under the shared lock.
package store

import (
	"context"
	"fmt"
	"sync"

	"carbon-ledger/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store serializes access to one logical ledger.
type Store struct {
	db *gorm.DB
	mu sync.RWMutex
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle for migrations and health checks only.
func (s *Store) DB() *gorm.DB {
	return s.db
}

type txnKey struct{ s *Store }

// Txn is the handle a mutating operation works through.
type Txn struct {
	ctx          context.Context
	DB           *gorm.DB
	State        *domain.PlatformState
	stateChanged bool
	afterCommit  []func()
}

// Context carries the transaction so collaborators invoked from inside the
// operation join it instead of opening their own.
func (t *Txn) Context() context.Context {
	return t.ctx
}

// MarkStateChanged schedules the platform_state row for saving on commit.
func (t *Txn) MarkStateChanged() {
	t.stateChanged = true
}

// AfterCommit registers fn to run once the transaction has committed.
func (t *Txn) AfterCommit(fn func()) {
	t.afterCommit = append(t.afterCommit, fn)
}

// FromContext returns the transaction ctx was derived from, if any.
func (s *Store) FromContext(ctx context.Context) (*Txn, bool) {
	t, ok := ctx.Value(txnKey{s}).(*Txn)
	return t, ok
}

// Update runs fn as the only writer. The platform_state row is read with
// FOR UPDATE so separate processes sharing a Postgres database serialize too
// (SQLite ignores the locking clause). Any error from fn rolls everything back.
// Calling Update again with a context derived from a running Update fails with
// ErrReentrancy.
func (s *Store) Update(ctx context.Context, fn func(t *Txn) error) error {
	if _, nested := s.FromContext(ctx); nested {
		return fmt.Errorf("%w: ledger is already executing a mutation", domain.ErrReentrancy)
	}

	var t *Txn
	err := s.locked(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var st domain.PlatformState
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&st, domain.PlatformStateID).Error; err != nil {
				return fmt.Errorf("load platform state: %w", err)
			}
			t = &Txn{State: &st}
			t.ctx = context.WithValue(ctx, txnKey{s}, t)
			t.DB = tx.WithContext(t.ctx)
			if err := fn(t); err != nil {
				return err
			}
			if t.stateChanged {
				return t.DB.Save(t.State).Error
			}
			return nil
		})
	})

	if err != nil {
		return err
	}
	for _, f := range t.afterCommit {
		f()
	}
	return nil
}

func (s *Store) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// View runs fn against a consistent snapshot: no Update can commit while it
// runs. Inside an Update it reads through the running transaction.
func (s *Store) View(ctx context.Context, fn func(db *gorm.DB) error) error {
	if t, ok := s.FromContext(ctx); ok {
		return fn(t.DB)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.db.WithContext(ctx))
}

// State returns a copy of the platform counters.
func (s *Store) State(ctx context.Context) (domain.PlatformState, error) {
	var st domain.PlatformState
	err := s.View(ctx, func(db *gorm.DB) error {
		return db.Take(&st, domain.PlatformStateID).Error
	})
	return st, err
}
