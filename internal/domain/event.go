package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ledger notification types.
const (
	EventProjectRegistered = "project.registered"
	EventSensorUpdated     = "sensor.updated"
	EventCreditsGenerated  = "credits.generated"
	EventCreditsPurchased  = "credits.purchased"
	EventFeesWithdrawn     = "fees.withdrawn"
	EventPlatformPaused    = "platform.paused"
	EventPlatformUnpaused  = "platform.unpaused"
)

// LedgerEvent is a persisted notification, written in the same transaction as
// the state change it describes.
type LedgerEvent struct {
	EventID       uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Type          string         `gorm:"column:type;type:varchar(40);index;not null" json:"type"`
	ProjectID     int64          `gorm:"column:project_id;index" json:"project_id,omitempty"`
	SensorAddress string         `gorm:"column:sensor_address" json:"sensor_address,omitempty"`
	Account       string         `gorm:"column:account" json:"account,omitempty"`
	Payload       datatypes.JSON `gorm:"column:payload;type:json" json:"payload"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (LedgerEvent) TableName() string {
	return "ledger_events"
}

func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
