package issuance

import (
	"context"
	"errors"
	"fmt"
	"math"

	"carbon-ledger/internal/application/events"
	"carbon-ledger/internal/application/registry"
	"carbon-ledger/internal/application/tokens"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"

	"github.com/rs/zerolog/log"
)

// Service turns sensor readings into minted credits.
type Service struct {
	Store  *store.Store
	Tokens *tokens.Ledger
	Events events.Publisher
	Admin  string
	// Threshold is the reading worth one generation step; Rate is the credits per step.
	Threshold int64
	Rate      int64
}

// SensorReading is what the sensor gateway delivers.
type SensorReading struct {
	SensorAddress string `json:"sensor_address"`
	Reading       int64  `json:"reading"`
	Timestamp     int64  `json:"timestamp"`
	Caller        string `json:"-"`
}

// ReadingResult describes an accepted reading.
type ReadingResult struct {
	SensorAddress string        `json:"sensor_address"`
	ProjectID     int64         `json:"project_id"`
	Reading       int64         `json:"reading"`
	Timestamp     int64         `json:"timestamp"`
	CreditsMinted int64         `json:"credits_minted"`
	TokensMinted  domain.Amount `json:"tokens_minted"`
}

// CreditsFor applies the minting rule: floor(reading / Threshold) * Rate.
// The division happens first so a non-unit Rate never changes the rounding.
func (s *Service) CreditsFor(reading int64) (int64, error) {
	if reading < s.Threshold {
		return 0, nil
	}
	steps := reading / s.Threshold
	if s.Rate != 0 && steps > math.MaxInt64/s.Rate {
		return 0, fmt.Errorf("%w: reading %d yields too many credits", domain.ErrOverflow, reading)
	}
	return steps * s.Rate, nil
}

// ReportSensorReading records a reading and mints credits to the project owner
// when the reading crosses the threshold and the project is active and verified.
// The reading and timestamp are stored even when nothing is minted.
func (s *Service) ReportSensorReading(ctx context.Context, r SensorReading) (*ReadingResult, error) {
	if r.Reading < 0 {
		return nil, fmt.Errorf("%w: reading must not be negative", domain.ErrValidation)
	}

	var res *ReadingResult
	err := s.Store.Update(ctx, func(t *store.Txn) error {
		if t.State.Paused {
			return domain.ErrPaused
		}
		sensor, err := registry.LoadSensor(t, r.SensorAddress)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: sensor %s is not registered", domain.ErrSensorNotEligible, r.SensorAddress)
		}
		if err != nil {
			return err
		}
		if !sensor.Eligible() {
			return fmt.Errorf("%w: sensor %s must be active and verified", domain.ErrSensorNotEligible, r.SensorAddress)
		}
		if r.Timestamp <= sensor.LastUpdateTime {
			return fmt.Errorf("%w: timestamp %d is not after %d", domain.ErrStaleReading, r.Timestamp, sensor.LastUpdateTime)
		}
		project, err := registry.LoadProject(t, sensor.ProjectID)
		if err != nil {
			return err
		}
		if r.Caller == "" || (r.Caller != sensor.Address && r.Caller != project.Owner && r.Caller != s.Admin) {
			return fmt.Errorf("%w: caller may not report for sensor %s", domain.ErrAuthorization, r.SensorAddress)
		}

		if err := t.DB.Model(sensor).Updates(map[string]interface{}{
			"last_reading":     r.Reading,
			"last_update_time": r.Timestamp,
		}).Error; err != nil {
			return err
		}
		res = &ReadingResult{
			SensorAddress: sensor.Address,
			ProjectID:     project.ID,
			Reading:       r.Reading,
			Timestamp:     r.Timestamp,
			TokensMinted:  domain.ZeroAmount(),
		}
		if err := events.Emit(t, s.Events, domain.LedgerEvent{
			Type:          domain.EventSensorUpdated,
			ProjectID:     project.ID,
			SensorAddress: sensor.Address,
		}, map[string]interface{}{
			"reading":   r.Reading,
			"timestamp": r.Timestamp,
		}); err != nil {
			return err
		}

		if !project.Eligible() {
			return nil
		}
		credits, err := s.CreditsFor(r.Reading)
		if err != nil || credits == 0 {
			return err
		}
		return s.mint(t, project, credits, res)
	})
	if err != nil {
		return nil, err
	}
	if res.CreditsMinted > 0 {
		log.Info().Int64("project_id", res.ProjectID).Str("sensor", res.SensorAddress).Int64("credits", res.CreditsMinted).Msg("Credits generated")
	}
	return res, nil
}

func (s *Service) mint(t *store.Txn, project *domain.Project, credits int64, res *ReadingResult) error {
	if project.TotalCreditsGenerated > math.MaxInt64-credits ||
		project.AvailableCredits > math.MaxInt64-credits ||
		t.State.TotalCarbonCredits > math.MaxInt64-credits {
		return fmt.Errorf("%w: credit counters", domain.ErrOverflow)
	}
	units, err := s.Tokens.Scale(credits)
	if err != nil {
		return err
	}
	if err := s.Tokens.Mint(t, project.Owner, units); err != nil {
		return err
	}
	if err := t.DB.Model(project).Updates(map[string]interface{}{
		"total_credits_generated": project.TotalCreditsGenerated + credits,
		"available_credits":       project.AvailableCredits + credits,
	}).Error; err != nil {
		return err
	}
	t.State.TotalCarbonCredits += credits
	t.MarkStateChanged()

	res.CreditsMinted = credits
	res.TokensMinted = units
	return events.Emit(t, s.Events, domain.LedgerEvent{
		Type:          domain.EventCreditsGenerated,
		ProjectID:     project.ID,
		SensorAddress: res.SensorAddress,
		Account:       project.Owner,
	}, map[string]interface{}{
		"credits": credits,
		"tokens":  units.String(),
		"reading": res.Reading,
	})
}
