package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
)

// Repository exposes persistence helpers for inventory records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error)
	Create(ctx context.Context, record *models.InventoryRecord) error
	AdjustAvailable(ctx context.Context, productID uuid.UUID, delta int) (bool, error)
	Restock(ctx context.Context, productID uuid.UUID, qty int, now time.Time) (bool, error)
	ListLowStock(ctx context.Context, supplierID uuid.UUID) ([]models.InventoryRecord, error)
	ListAllLowStock(ctx context.Context) ([]models.InventoryRecord, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByProductID(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) Create(ctx context.Context, record *models.InventoryRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// AdjustAvailable applies a signed delta to available stock. Negative deltas
// only apply when enough stock remains, reported via the returned bool.
func (r *repositoryImpl) AdjustAvailable(ctx context.Context, productID uuid.UUID, delta int) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID)
	if delta < 0 {
		query = query.Where("quantity_available >= ?", -delta)
	}
	res := query.Update("quantity_available", gorm.Expr("quantity_available + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repositoryImpl) Restock(ctx context.Context, productID uuid.UUID, qty int, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"quantity_available": gorm.Expr("quantity_available + ?", qty),
			"last_restocked_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListLowStock(ctx context.Context, supplierID uuid.UUID) ([]models.InventoryRecord, error) {
	var rows []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND quantity_available <= reorder_level", supplierID).
		Order("quantity_available ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) ListAllLowStock(ctx context.Context) ([]models.InventoryRecord, error) {
	var rows []models.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("quantity_available <= reorder_level").
		Order("supplier_id, quantity_available ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
