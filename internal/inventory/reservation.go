package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

// ReservationRequest asks for stock to be held for a single cart line.
type ReservationRequest struct {
	CartLineID uuid.UUID
	ProductID  uuid.UUID
	Qty        int
}

// ReservationResult reports the outcome for a single request. Reason is set
// only when the hold could not be taken.
type ReservationResult struct {
	CartLineID uuid.UUID
	Reserved   bool
	Reason     string
}

// Reserve attempts to move stock from available to reserved for each request.
// Each hold is taken with a conditional update so concurrent checkouts can
// never drive quantity_available below zero. Requests are processed in order
// inside the caller's transaction; failed holds are reported, not rolled back
// here, so the caller decides whether to abort.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}

	results := make([]ReservationResult, len(requests))
	for i, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}

		res := tx.WithContext(ctx).
			Model(&models.InventoryRecord{}).
			Where("product_id = ? AND quantity_available >= ?", req.ProductID, req.Qty).
			Updates(map[string]any{
				"quantity_available": gorm.Expr("quantity_available - ?", req.Qty),
				"quantity_reserved":  gorm.Expr("quantity_reserved + ?", req.Qty),
			})
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserving inventory")
		}

		result := ReservationResult{CartLineID: req.CartLineID, Reserved: res.RowsAffected > 0}
		if !result.Reserved {
			result.Reason = insufficientStockReason(ctx, tx, req)
		}
		results[i] = result
	}
	return results, nil
}

func insufficientStockReason(ctx context.Context, tx *gorm.DB, req ReservationRequest) string {
	var record models.InventoryRecord
	err := tx.WithContext(ctx).
		Where("product_id = ?", req.ProductID).
		First(&record).Error
	if err != nil {
		return "product has no inventory record"
	}
	return fmt.Sprintf("insufficient stock: requested %d, available %d", req.Qty, record.QuantityAvailable)
}

// Release returns previously reserved stock to the available pool. Used when
// an order is cancelled before fulfilment.
func Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity_reserved >= ?", productID, qty).
		Updates(map[string]any{
			"quantity_available": gorm.Expr("quantity_available + ?", qty),
			"quantity_reserved":  gorm.Expr("quantity_reserved - ?", qty),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "releasing inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reserved quantity smaller than release amount")
	}
	return nil
}

// Fulfil burns reserved stock once an order ships. The hold is consumed
// rather than returned to the available pool.
func Fulfil(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fulfil quantity must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity_reserved >= ?", productID, qty).
		Update("quantity_reserved", gorm.Expr("quantity_reserved - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "fulfilling inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reserved quantity smaller than fulfil amount")
	}
	return nil
}
