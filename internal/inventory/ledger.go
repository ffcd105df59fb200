package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger adapts the package-level reservation functions for consumers that
// accept an interface, such as the orders service.
type Ledger struct{}

func (Ledger) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return Release(ctx, tx, productID, qty)
}

func (Ledger) Fulfil(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return Fulfil(ctx, tx, productID, qty)
}
