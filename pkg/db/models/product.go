package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/enums"
)

// Product represents a supplier listing. The checkout path treats it as read-only.
type Product struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	SupplierID       uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null;index"`
	CategoryID       *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Name             string              `gorm:"column:name;not null"`
	Description      *string             `gorm:"column:description"`
	PricePerUnit     decimal.Decimal     `gorm:"column:price_per_unit;type:numeric(12,2);not null"`
	UnitOfMeasure    enums.ProductUnit   `gorm:"column:unit_of_measure;not null;default:'piece'"`
	MinOrderQuantity int                 `gorm:"column:min_order_quantity;not null;default:1"`
	MaxOrderQuantity int                 `gorm:"column:max_order_quantity;not null;default:0"`
	Status           enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	Supplier         *Supplier           `gorm:"foreignKey:SupplierID"`
	Category         *Category           `gorm:"foreignKey:CategoryID"`
	Inventory        *InventoryRecord    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
