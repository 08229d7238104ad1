package domain

import "time"

// PlatformStateID is the primary key of the single platform_state row.
const PlatformStateID = 1

// PlatformState holds the ledger's scalar counters and governance settings.
type PlatformState struct {
	ID                    uint      `gorm:"column:id;primaryKey;autoIncrement:false" json:"-"`
	NextProjectID         int64     `gorm:"column:next_project_id;not null" json:"next_project_id"`
	TotalCarbonCredits    int64     `gorm:"column:total_carbon_credits;not null" json:"total_carbon_credits"`
	TotalOffsetsGenerated int64     `gorm:"column:total_offsets_generated;not null" json:"total_offsets_generated"`
	FeeBps                int64     `gorm:"column:fee_bps;not null" json:"fee_bps"`
	MinPrice              Amount    `gorm:"column:min_price;type:text;not null" json:"min_price"`
	AccumulatedFees       Amount    `gorm:"column:accumulated_fees;type:text;not null" json:"accumulated_fees"`
	TokenSupply           Amount    `gorm:"column:token_supply;type:text;not null" json:"token_supply"`
	Paused                bool      `gorm:"column:paused;not null" json:"paused"`
	UpdatedAt             time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PlatformState) TableName() string {
	return "platform_state"
}

// MaxFeeBps caps the platform fee at 10%.
const MaxFeeBps = 1000

// PlatformStats is the aggregate view exposed to collaborators.
type PlatformStats struct {
	TotalProjects      int64 `json:"total_projects"`
	TotalCredits       int64 `json:"total_credits"`
	TotalOffsets       int64 `json:"total_offsets"`
	ActiveProjectCount int64 `json:"active_project_count"`
}
