package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
)

// Repository exposes persistence operations for buyer carts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	FindLine(ctx context.Context, buyerID, productID uuid.UUID) (*models.CartLine, error)
	List(ctx context.Context, buyerID uuid.UUID) ([]models.CartLine, error)
	UpdateQuantity(ctx context.Context, buyerID, productID uuid.UUID, qty int) (bool, error)
	Remove(ctx context.Context, buyerID, productID uuid.UUID) (bool, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Upsert inserts the line or replaces the quantity on the existing line for
// the same buyer and product. Re-adding a product is not additive. The
// conflict clause keeps concurrent adds of the same product from tripping
// the unique index.
func (r *repositoryImpl) Upsert(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": line.Quantity}),
		}).
		Create(line).Error
	if err != nil {
		return nil, err
	}
	return r.FindLine(ctx, line.BuyerID, line.ProductID)
}

func (r *repositoryImpl) FindLine(ctx context.Context, buyerID, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repositoryImpl) List(ctx context.Context, buyerID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Supplier").
		Preload("Product.Inventory").
		Where("buyer_id = ?", buyerID).
		Order("added_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) UpdateQuantity(ctx context.Context, buyerID, productID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Update("quantity", qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repositoryImpl) Remove(ctx context.Context, buyerID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ? AND product_id = ?", buyerID, productID).
		Delete(&models.CartLine{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repositoryImpl) Clear(ctx context.Context, buyerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Delete(&models.CartLine{}).Error
}
