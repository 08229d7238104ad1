package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carbon-ledger/internal/application/events"
	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/application/tokens"
	"carbon-ledger/internal/application/treasury"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service settles credit purchases.
type Service struct {
	Store    *store.Store
	Tokens   *tokens.Ledger
	Treasury treasury.Treasury
	Events   events.Publisher
	Now      func() time.Time
}

// PurchaseInput describes one purchase. Payment is what the buyer delivered;
// anything above the total cost is refunded.
type PurchaseInput struct {
	Buyer     string        `json:"-"`
	ProjectID int64         `json:"project_id"`
	Credits   int64         `json:"credits"`
	Payment   domain.Amount `json:"payment"`
	Reason    string        `json:"reason"`
}

// Receipt summarizes a settled purchase.
type Receipt struct {
	OffsetID     uint64        `json:"offset_id"`
	ProjectID    int64         `json:"project_id"`
	Credits      int64         `json:"credits"`
	TotalCost    domain.Amount `json:"total_cost"`
	PlatformFee  domain.Amount `json:"platform_fee"`
	OwnerPayment domain.Amount `json:"owner_payment"`
	Refund       domain.Amount `json:"refund"`
	Footprint    int64         `json:"footprint"`
}

// Quote is the fee split for a purchase of credits at price with feeBps.
type Quote struct {
	TotalCost    domain.Amount
	PlatformFee  domain.Amount
	OwnerPayment domain.Amount
}

// QuotePurchase computes total = credits*price, fee = floor(total*feeBps/10000)
// and owner payment = total - fee, so fee + owner payment == total exactly.
func QuotePurchase(credits int64, price domain.Amount, feeBps int64) (Quote, error) {
	total, err := price.MulInt64(credits)
	if err != nil {
		return Quote{}, err
	}
	scaled, err := total.MulInt64(feeBps)
	if err != nil {
		return Quote{}, err
	}
	fee := scaled.QuoInt64(10000)
	owner, err := total.Sub(fee)
	if err != nil {
		return Quote{}, err
	}
	return Quote{TotalCost: total, PlatformFee: fee, OwnerPayment: owner}, nil
}

// PurchaseCredits buys credits from a project. Funds, credits, tokens, the
// offset log and the buyer's footprint move together or not at all.
func (s *Service) PurchaseCredits(ctx context.Context, in PurchaseInput) (*Receipt, error) {
	if domain.IsZeroAddress(in.Buyer) {
		return nil, fmt.Errorf("%w: buyer address is required", domain.ErrValidation)
	}

	var receipt *Receipt
	err := s.Store.Update(ctx, func(t *store.Txn) error {
		if t.State.Paused {
			return domain.ErrPaused
		}
		project, err := registry.LoadProject(t, in.ProjectID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: project %d does not exist", domain.ErrProjectNotEligible, in.ProjectID)
		}
		if err != nil {
			return err
		}
		if !project.Eligible() {
			return fmt.Errorf("%w: project %d must be active and verified", domain.ErrProjectNotEligible, in.ProjectID)
		}
		if in.Credits <= 0 {
			return fmt.Errorf("%w: credits must be positive", domain.ErrValidation)
		}
		if project.AvailableCredits < in.Credits {
			return fmt.Errorf("%w: project %d has %d, requested %d", domain.ErrInsufficientSupply, project.ID, project.AvailableCredits, in.Credits)
		}
		quote, err := QuotePurchase(in.Credits, project.PricePerCredit, t.State.FeeBps)
		if err != nil {
			return err
		}
		if in.Payment.LT(quote.TotalCost) {
			return fmt.Errorf("%w: cost is %s, paid %s", domain.ErrInsufficientPayment, quote.TotalCost, in.Payment)
		}
		refund, err := in.Payment.Sub(quote.TotalCost)
		if err != nil {
			return err
		}

		ctx := t.Context()
		if err := s.Treasury.Receive(ctx, in.Buyer, in.Payment); err != nil {
			return err
		}
		if err := s.Treasury.Pay(ctx, project.Owner, quote.OwnerPayment); err != nil {
			return err
		}
		fees, err := t.State.AccumulatedFees.Add(quote.PlatformFee)
		if err != nil {
			return err
		}
		t.State.AccumulatedFees = fees

		if err := t.DB.Model(project).Update("available_credits", project.AvailableCredits-in.Credits).Error; err != nil {
			return err
		}
		units, err := s.Tokens.Scale(in.Credits)
		if err != nil {
			return err
		}
		if err := s.Tokens.Transfer(t, project.Owner, in.Buyer, units); err != nil {
			return err
		}

		offset := domain.Offset{
			Buyer:     in.Buyer,
			ProjectID: project.ID,
			Credits:   in.Credits,
			TotalCost: quote.TotalCost,
			Timestamp: s.now(),
			Reason:    in.Reason,
		}
		if err := t.DB.Create(&offset).Error; err != nil {
			return err
		}
		t.State.TotalOffsetsGenerated++
		t.MarkStateChanged()

		footprint, err := reduceFootprint(t.DB, in.Buyer, in.Credits)
		if err != nil {
			return err
		}
		if err := s.Treasury.Pay(ctx, in.Buyer, refund); err != nil {
			return err
		}

		receipt = &Receipt{
			OffsetID:     offset.ID,
			ProjectID:    project.ID,
			Credits:      in.Credits,
			TotalCost:    quote.TotalCost,
			PlatformFee:  quote.PlatformFee,
			OwnerPayment: quote.OwnerPayment,
			Refund:       refund,
			Footprint:    footprint,
		}
		return events.Emit(t, s.Events, domain.LedgerEvent{
			Type:      domain.EventCreditsPurchased,
			ProjectID: project.ID,
			Account:   in.Buyer,
		}, map[string]interface{}{
			"credits":    in.Credits,
			"total_cost": quote.TotalCost.String(),
			"fee":        quote.PlatformFee.String(),
			"reason":     in.Reason,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int64("project_id", receipt.ProjectID).Str("buyer", in.Buyer).Int64("credits", receipt.Credits).Str("total_cost", receipt.TotalCost.String()).Msg("Purchase settled")
	return receipt, nil
}

// reduceFootprint lowers the buyer's footprint by credits, flooring at zero.
func reduceFootprint(db *gorm.DB, account string, credits int64) (int64, error) {
	var fp domain.Footprint
	err := db.Where("account = ?", account).Take(&fp).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	next := fp.Value - credits
	if fp.Value < credits {
		next = 0
	}
	if err := PutFootprint(db, account, next); err != nil {
		return 0, err
	}
	return next, nil
}

// PutFootprint overwrites an account's footprint.
func PutFootprint(db *gorm.DB, account string, value int64) error {
	row := domain.Footprint{Account: account, Value: value}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
