package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryRecord tracks the available/reserved split per product.
// Exactly one record exists per product; the checkout workflow mutates it in
// place and never replaces it.
type InventoryRecord struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	SupplierID        uuid.UUID  `gorm:"column:supplier_id;type:uuid;not null;index"`
	QuantityAvailable int        `gorm:"column:quantity_available;not null;default:0"`
	QuantityReserved  int        `gorm:"column:quantity_reserved;not null;default:0"`
	ReorderLevel      int        `gorm:"column:reorder_level;not null;default:0"`
	ReorderQuantity   int        `gorm:"column:reorder_quantity;not null;default:0"`
	LastRestockedAt   *time.Time `gorm:"column:last_restocked_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *InventoryRecord) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
