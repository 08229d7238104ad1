package domain

import "time"

// Project is a registered environmental initiative accruing credits from its sensors.
type Project struct {
	ID                    int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Owner                 string    `gorm:"column:owner;index;not null" json:"owner"`
	Name                  string    `gorm:"column:name;not null" json:"name"`
	Location              string    `gorm:"column:location;not null" json:"location"`
	TotalCreditsGenerated int64     `gorm:"column:total_credits_generated;not null" json:"total_credits_generated"`
	AvailableCredits      int64     `gorm:"column:available_credits;not null" json:"available_credits"`
	PricePerCredit        Amount    `gorm:"column:price_per_credit;type:text;not null" json:"price_per_credit"`
	IsActive              bool      `gorm:"column:is_active;not null" json:"is_active"`
	IsVerified            bool      `gorm:"column:is_verified;not null" json:"is_verified"`
	CreatedAt             time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// Eligible reports whether the project may mint and sell credits.
func (p *Project) Eligible() bool {
	return p.IsActive && p.IsVerified
}

// UserProject is one entry of an account's ordered project list.
type UserProject struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Account   string    `gorm:"column:account;index;not null" json:"account"`
	ProjectID int64     `gorm:"column:project_id;not null" json:"project_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (UserProject) TableName() string {
	return "user_projects"
}
