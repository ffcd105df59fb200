package helpers

import (
	"fmt"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

// ValidateLines rejects carts that cannot be checked out: empty carts, lines
// whose product has disappeared, or lines for listings that were deactivated
// after the line was added.
func ValidateLines(lines []models.CartLine) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, line := range lines {
		if line.Product == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("product %s is no longer available", line.ProductID))
		}
		if line.Product.Status != enums.ProductStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("product %q is no longer available", line.Product.Name))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid quantity for product %q", line.Product.Name))
		}
	}
	return nil
}
