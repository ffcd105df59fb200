package reorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
)

// Repository persists reorder alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	HasOpenAlert(ctx context.Context, productID uuid.UUID) (bool, error)
	Create(ctx context.Context, alert *models.ReorderAlert) error
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.ReorderAlertStatus) ([]models.ReorderAlert, error)
	SetStatus(ctx context.Context, alertID uuid.UUID, status enums.ReorderAlertStatus) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds the reorder alert repository.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) HasOpenAlert(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ReorderAlert{}).
		Where("product_id = ? AND status = ?", productID, enums.ReorderAlertStatusOpen).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repositoryImpl) Create(ctx context.Context, alert *models.ReorderAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *repositoryImpl) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.ReorderAlertStatus) ([]models.ReorderAlert, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReorderAlert{}).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var alerts []models.ReorderAlert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// SetStatus moves an open alert to ordered or dismissed and stamps the
// resolution time. It refuses to touch alerts that already left open.
func (r *repositoryImpl) SetStatus(ctx context.Context, alertID uuid.UUID, status enums.ReorderAlertStatus) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.ReorderAlert{}).
		Where("id = ? AND status = ?", alertID, enums.ReorderAlertStatusOpen).
		Updates(map[string]any{
			"status":      status,
			"resolved_at": &now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
