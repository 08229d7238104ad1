package domain

import "time"

// Well-known sensor types. The set is open; any non-empty tag is accepted.
const (
	SensorTypeAirQuality      = "air_quality"
	SensorTypeForestDensity   = "forest_density"
	SensorTypeSoilCarbon      = "soil_carbon"
	SensorTypeRenewableEnergy = "renewable_energy"
	SensorTypeWaterQuality    = "water_quality"
)

// Sensor is a data source attached to exactly one project.
type Sensor struct {
	Address        string    `gorm:"column:address;primaryKey" json:"address"`
	ProjectID      int64     `gorm:"column:project_id;index;not null" json:"project_id"`
	SensorType     string    `gorm:"column:sensor_type;not null" json:"sensor_type"`
	IsActive       bool      `gorm:"column:is_active;not null" json:"is_active"`
	IsVerified     bool      `gorm:"column:is_verified;not null" json:"is_verified"`
	LastReading    int64     `gorm:"column:last_reading;not null" json:"last_reading"`
	LastUpdateTime int64     `gorm:"column:last_update_time;not null" json:"last_update_time"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Sensor) TableName() string {
	return "sensors"
}

func (s *Sensor) Eligible() bool {
	return s.IsActive && s.IsVerified
}
