package admin

import (
	"context"
	"fmt"

	"carbon-ledger/internal/application/events"
	"carbon-ledger/internal/application/marketplace"
	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/application/treasury"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"

	"github.com/rs/zerolog/log"
)

// Service is the governance surface. Every operation requires the caller to be
// the platform administrator.
type Service struct {
	Store    *store.Store
	Registry *registry.Service
	Treasury treasury.Treasury
	Events   events.Publisher
	Admin    string
}

func (s *Service) authorize(caller, action string) error {
	if caller == "" || caller != s.Admin {
		log.Warn().Str("caller", caller).Str("action", action).Msg("Rejected admin call")
		return fmt.Errorf("%w: %s is admin only", domain.ErrAuthorization, action)
	}
	return nil
}

func (s *Service) VerifyProject(ctx context.Context, caller string, id int64) error {
	if err := s.authorize(caller, "verify_project"); err != nil {
		return err
	}
	return s.Registry.VerifyProject(ctx, caller, id)
}

func (s *Service) VerifySensor(ctx context.Context, caller, address string) error {
	if err := s.authorize(caller, "verify_sensor"); err != nil {
		return err
	}
	return s.Registry.VerifySensor(ctx, caller, address)
}

// SetUserFootprint overwrites a footprint. Unlike the purchase path there is
// no floor logic; the value is stored as given.
func (s *Service) SetUserFootprint(ctx context.Context, caller, user string, value int64) error {
	if err := s.authorize(caller, "set_user_footprint"); err != nil {
		return err
	}
	if domain.IsZeroAddress(user) {
		return fmt.Errorf("%w: user address is required", domain.ErrValidation)
	}
	if value < 0 {
		return fmt.Errorf("%w: footprint must not be negative", domain.ErrValidation)
	}
	return s.Store.Update(ctx, func(t *store.Txn) error {
		return marketplace.PutFootprint(t.DB, user, value)
	})
}

// SetPlatformFeeBps sets the platform fee, capped at 10%.
func (s *Service) SetPlatformFeeBps(ctx context.Context, caller string, bps int64) error {
	if err := s.authorize(caller, "set_platform_fee"); err != nil {
		return err
	}
	if bps < 0 || bps > domain.MaxFeeBps {
		return fmt.Errorf("%w: fee must be between 0 and %d basis points", domain.ErrValidation, domain.MaxFeeBps)
	}
	return s.Store.Update(ctx, func(t *store.Txn) error {
		t.State.FeeBps = bps
		t.MarkStateChanged()
		return nil
	})
}

// SetMinPrice changes the minimum price new prices are checked against.
// Existing project prices are left as they are.
func (s *Service) SetMinPrice(ctx context.Context, caller string, price domain.Amount) error {
	if err := s.authorize(caller, "set_min_price"); err != nil {
		return err
	}
	return s.Store.Update(ctx, func(t *store.Txn) error {
		t.State.MinPrice = price
		t.MarkStateChanged()
		return nil
	})
}

// WithdrawPlatformFees pays every accumulated fee to the admin and returns the amount.
func (s *Service) WithdrawPlatformFees(ctx context.Context, caller string) (domain.Amount, error) {
	if err := s.authorize(caller, "withdraw_platform_fees"); err != nil {
		return domain.Amount{}, err
	}
	var paid domain.Amount
	err := s.Store.Update(ctx, func(t *store.Txn) error {
		fees := t.State.AccumulatedFees
		if fees.IsZero() {
			return domain.ErrNoFunds
		}
		t.State.AccumulatedFees = domain.ZeroAmount()
		t.MarkStateChanged()
		if err := s.Treasury.Pay(t.Context(), s.Admin, fees); err != nil {
			return err
		}
		paid = fees
		return events.Emit(t, s.Events, domain.LedgerEvent{
			Type:    domain.EventFeesWithdrawn,
			Account: s.Admin,
		}, map[string]interface{}{"amount": fees.String()})
	})
	if err != nil {
		return domain.Amount{}, err
	}
	log.Info().Str("amount", paid.String()).Msg("Platform fees withdrawn")
	return paid, nil
}

// EmergencySetProjectActive flips a project's active flag without the owner check.
func (s *Service) EmergencySetProjectActive(ctx context.Context, caller string, id int64, active bool) error {
	if err := s.authorize(caller, "emergency_set_project_active"); err != nil {
		return err
	}
	err := s.Store.Update(ctx, func(t *store.Txn) error {
		return registry.SetProjectActive(t, id, active)
	})
	if err == nil {
		log.Warn().Int64("project_id", id).Bool("active", active).Msg("Project status overridden by admin")
	}
	return err
}

// Pause stops registrations, sensor reports and purchases until Unpause.
func (s *Service) Pause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, true)
}

func (s *Service) Unpause(ctx context.Context, caller string) error {
	return s.setPaused(ctx, caller, false)
}

func (s *Service) setPaused(ctx context.Context, caller string, paused bool) error {
	action, evtType := "unpause", domain.EventPlatformUnpaused
	if paused {
		action, evtType = "pause", domain.EventPlatformPaused
	}
	if err := s.authorize(caller, action); err != nil {
		return err
	}
	return s.Store.Update(ctx, func(t *store.Txn) error {
		if t.State.Paused == paused {
			return nil
		}
		t.State.Paused = paused
		t.MarkStateChanged()
		return events.Emit(t, s.Events, domain.LedgerEvent{Type: evtType, Account: caller}, nil)
	})
}
