package domain

import "time"

// Offset is the immutable record of a completed credit purchase.
type Offset struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Buyer     string    `gorm:"column:buyer;index;not null" json:"buyer"`
	ProjectID int64     `gorm:"column:project_id;index;not null" json:"project_id"`
	Credits   int64     `gorm:"column:credits;not null" json:"credits"`
	TotalCost Amount    `gorm:"column:total_cost;type:text;not null" json:"total_cost"`
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	Reason    string    `gorm:"column:reason" json:"reason"`
}

func (Offset) TableName() string {
	return "offsets"
}

// Footprint is an account's running unoffset carbon counter.
type Footprint struct {
	Account   string    `gorm:"column:account;primaryKey" json:"account"`
	Value     int64     `gorm:"column:value;not null" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Footprint) TableName() string {
	return "footprints"
}
