package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/enums"
)

// ReorderAlert records a low-stock detection for a product. At most one open
// alert exists per product; the worker dedupes on that.
type ReorderAlert struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID                `gorm:"column:product_id;type:uuid;not null;index"`
	SupplierID        uuid.UUID                `gorm:"column:supplier_id;type:uuid;not null;index"`
	QuantitySuggested int                      `gorm:"column:quantity_suggested;not null"`
	Status            enums.ReorderAlertStatus `gorm:"column:status;not null;default:'open'"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	ResolvedAt        *time.Time               `gorm:"column:resolved_at"`
}

func (r *ReorderAlert) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
