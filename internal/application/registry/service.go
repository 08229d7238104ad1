package registry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"carbon-ledger/internal/application/events"
	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/infrastructure/store"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service owns projects, sensors and per-account project lists.
type Service struct {
	Store  *store.Store
	Events events.Publisher
	Admin  string
	Now    func() time.Time
}

// RegisterProjectInput is the body of a project registration. SensorAddresses
// and SensorTypes are parallel lists.
type RegisterProjectInput struct {
	Name            string        `json:"name"`
	Location        string        `json:"location"`
	Price           domain.Amount `json:"price"`
	SensorAddresses []string      `json:"sensor_addresses"`
	SensorTypes     []string      `json:"sensor_types"`
}

func (in *RegisterProjectInput) validate(owner string) error {
	if domain.IsZeroAddress(owner) {
		return fmt.Errorf("%w: owner address is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Location) == "" {
		return fmt.Errorf("%w: location is required", domain.ErrValidation)
	}
	if len(in.SensorAddresses) == 0 {
		return fmt.Errorf("%w: at least one sensor is required", domain.ErrValidation)
	}
	if len(in.SensorAddresses) != len(in.SensorTypes) {
		return fmt.Errorf("%w: %d sensor addresses but %d sensor types", domain.ErrValidation, len(in.SensorAddresses), len(in.SensorTypes))
	}
	seen := make(map[string]struct{}, len(in.SensorAddresses))
	for i, addr := range in.SensorAddresses {
		if domain.IsZeroAddress(addr) {
			return fmt.Errorf("%w: sensor %d has the zero address", domain.ErrValidation, i)
		}
		if strings.TrimSpace(in.SensorTypes[i]) == "" {
			return fmt.Errorf("%w: sensor %d has no type", domain.ErrValidation, i)
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("%w: sensor %s listed twice", domain.ErrValidation, addr)
		}
		seen[addr] = struct{}{}
	}
	return nil
}

// RegisterProject creates an active, unverified project with one sensor per
// entry and returns its id.
func (s *Service) RegisterProject(ctx context.Context, owner string, in RegisterProjectInput) (int64, error) {
	if err := in.validate(owner); err != nil {
		return 0, err
	}

	var id int64
	err := s.Store.Update(ctx, func(t *store.Txn) error {
		if t.State.Paused {
			return domain.ErrPaused
		}
		if in.Price.LT(t.State.MinPrice) {
			return fmt.Errorf("%w: price %s is below the minimum %s", domain.ErrValidation, in.Price, t.State.MinPrice)
		}
		var taken int64
		if err := t.DB.Model(&domain.Sensor{}).Where("address IN ?", in.SensorAddresses).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: sensor address already registered", domain.ErrValidation)
		}
		if t.State.NextProjectID == math.MaxInt64 {
			return fmt.Errorf("%w: project ids exhausted", domain.ErrOverflow)
		}

		id = t.State.NextProjectID
		t.State.NextProjectID++
		t.MarkStateChanged()

		now := s.now()
		project := domain.Project{
			ID:             id,
			Owner:          owner,
			Name:           strings.TrimSpace(in.Name),
			Location:       strings.TrimSpace(in.Location),
			PricePerCredit: in.Price,
			IsActive:       true,
			CreatedAt:      now,
		}
		if err := t.DB.Create(&project).Error; err != nil {
			return err
		}
		sensors := make([]domain.Sensor, len(in.SensorAddresses))
		for i, addr := range in.SensorAddresses {
			sensors[i] = domain.Sensor{
				Address:    addr,
				ProjectID:  id,
				SensorType: strings.TrimSpace(in.SensorTypes[i]),
				IsActive:   true,
				CreatedAt:  now,
			}
		}
		if err := t.DB.Create(&sensors).Error; err != nil {
			return err
		}
		if err := t.DB.Create(&domain.UserProject{Account: owner, ProjectID: id}).Error; err != nil {
			return err
		}
		return events.Emit(t, s.Events, domain.LedgerEvent{
			Type:      domain.EventProjectRegistered,
			ProjectID: id,
			Account:   owner,
		}, map[string]interface{}{
			"name":     project.Name,
			"location": project.Location,
			"sensors":  len(sensors),
		})
	})
	if err != nil {
		return 0, err
	}
	log.Info().Int64("project_id", id).Str("owner", owner).Int("sensors", len(in.SensorAddresses)).Msg("Project registered")
	return id, nil
}

// VerifyProject marks a project verified. Admin only; idempotent.
func (s *Service) VerifyProject(ctx context.Context, caller string, id int64) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	return s.Store.Update(ctx, func(t *store.Txn) error {
		p, err := loadProject(t.DB, id)
		if err != nil {
			return err
		}
		if p.IsVerified {
			return nil
		}
		return t.DB.Model(p).Update("is_verified", true).Error
	})
}

// VerifySensor marks a sensor verified. Admin only; idempotent.
func (s *Service) VerifySensor(ctx context.Context, caller, address string) error {
	if err := s.requireAdmin(caller); err != nil {
		return err
	}
	return s.Store.Update(ctx, func(t *store.Txn) error {
		sensor, err := loadSensor(t.DB, address)
		if err != nil {
			return err
		}
		if sensor.IsVerified {
			return nil
		}
		return t.DB.Model(sensor).Update("is_verified", true).Error
	})
}

// SetProjectStatus activates or deactivates a project. Owner only.
func (s *Service) SetProjectStatus(ctx context.Context, caller string, id int64, active bool) error {
	return s.Store.Update(ctx, func(t *store.Txn) error {
		p, err := loadOwnedProject(t.DB, caller, id)
		if err != nil {
			return err
		}
		return t.DB.Model(p).Update("is_active", active).Error
	})
}

// SetProjectPrice changes the price per credit. Owner only.
func (s *Service) SetProjectPrice(ctx context.Context, caller string, id int64, price domain.Amount) error {
	return s.Store.Update(ctx, func(t *store.Txn) error {
		p, err := loadOwnedProject(t.DB, caller, id)
		if err != nil {
			return err
		}
		if price.LT(t.State.MinPrice) {
			return fmt.Errorf("%w: price %s is below the minimum %s", domain.ErrValidation, price, t.State.MinPrice)
		}
		return t.DB.Model(p).Update("price_per_credit", price).Error
	})
}

// SetProjectActive flips the active flag with no ownership check. Callers
// must have authorized the change already.
func SetProjectActive(t *store.Txn, id int64, active bool) error {
	p, err := loadProject(t.DB, id)
	if err != nil {
		return err
	}
	return t.DB.Model(p).Update("is_active", active).Error
}

func (s *Service) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	var p *domain.Project
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		var err error
		p, err = loadProject(db, id)
		return err
	})
	return p, err
}

func (s *Service) GetSensor(ctx context.Context, address string) (*domain.Sensor, error) {
	var sensor *domain.Sensor
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		var err error
		sensor, err = loadSensor(db, address)
		return err
	})
	return sensor, err
}

// ListProjectSensors returns a project's sensors in address order.
func (s *Service) ListProjectSensors(ctx context.Context, id int64) ([]domain.Sensor, error) {
	sensors := []domain.Sensor{}
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		if _, err := loadProject(db, id); err != nil {
			return err
		}
		return db.Where("project_id = ?", id).Order("address").Find(&sensors).Error
	})
	return sensors, err
}

// GetUserProjects returns the ids of the projects account registered, oldest first.
func (s *Service) GetUserProjects(ctx context.Context, account string) ([]int64, error) {
	ids := []int64{}
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.UserProject{}).Where("account = ?", account).Order("id").Pluck("project_id", &ids).Error
	})
	return ids, err
}

// GetProjectOffsets returns a project's offset log in append order.
func (s *Service) GetProjectOffsets(ctx context.Context, id int64) ([]domain.Offset, error) {
	offsets := []domain.Offset{}
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		if _, err := loadProject(db, id); err != nil {
			return err
		}
		return db.Where("project_id = ?", id).Order("id").Find(&offsets).Error
	})
	return offsets, err
}

// GetFootprint returns account's footprint; unknown accounts have zero.
func (s *Service) GetFootprint(ctx context.Context, account string) (int64, error) {
	var fp domain.Footprint
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		err := db.Where("account = ?", account).Take(&fp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	})
	return fp.Value, err
}

// GetPlatformStats counts active projects by scanning the projects table.
func (s *Service) GetPlatformStats(ctx context.Context) (domain.PlatformStats, error) {
	var stats domain.PlatformStats
	err := s.Store.View(ctx, func(db *gorm.DB) error {
		var st domain.PlatformState
		if err := db.Take(&st, domain.PlatformStateID).Error; err != nil {
			return err
		}
		var active int64
		if err := db.Model(&domain.Project{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
			return err
		}
		stats = domain.PlatformStats{
			TotalProjects:      st.NextProjectID - 1,
			TotalCredits:       st.TotalCarbonCredits,
			TotalOffsets:       st.TotalOffsetsGenerated,
			ActiveProjectCount: active,
		}
		return nil
	})
	return stats, err
}

// GetPlatformFee returns the fee in basis points.
func (s *Service) GetPlatformFee(ctx context.Context) (int64, error) {
	st, err := s.Store.State(ctx)
	return st.FeeBps, err
}

func (s *Service) GetMinPrice(ctx context.Context) (domain.Amount, error) {
	st, err := s.Store.State(ctx)
	return st.MinPrice, err
}

func (s *Service) requireAdmin(caller string) error {
	if caller == "" || caller != s.Admin {
		return fmt.Errorf("%w: admin only", domain.ErrAuthorization)
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func loadProject(db *gorm.DB, id int64) (*domain.Project, error) {
	var p domain.Project
	if err := db.Where("id = ?", id).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func loadOwnedProject(db *gorm.DB, caller string, id int64) (*domain.Project, error) {
	p, err := loadProject(db, id)
	if err != nil {
		return nil, err
	}
	if caller == "" || p.Owner != caller {
		return nil, fmt.Errorf("%w: only the project owner may change project %d", domain.ErrAuthorization, id)
	}
	return p, nil
}

func loadSensor(db *gorm.DB, address string) (*domain.Sensor, error) {
	var sensor domain.Sensor
	if err := db.Where("address = ?", address).Take(&sensor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sensor %s", domain.ErrNotFound, address)
		}
		return nil, err
	}
	return &sensor, nil
}

// LoadProject reads a project inside a running transaction.
func LoadProject(t *store.Txn, id int64) (*domain.Project, error) {
	return loadProject(t.DB, id)
}

// LoadSensor reads a sensor inside a running transaction.
func LoadSensor(t *store.Txn, address string) (*domain.Sensor, error) {
	return loadSensor(t.DB, address)
}
