package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier is the selling profile keyed by an external auth user id.
type Supplier struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BusinessName   string          `gorm:"column:business_name;not null"`
	City           string          `gorm:"column:city;not null"`
	Phone          *string         `gorm:"column:phone"`
	Verified       bool            `gorm:"column:verified;not null;default:false"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,4);not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
