package helpers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
)

// GroupLinesBySupplier groups the provided cart lines by the supplier that
// owns each product. Lines without a preloaded product are dropped; the
// service validates the cart before grouping.
func GroupLinesBySupplier(lines []models.CartLine) map[uuid.UUID][]models.CartLine {
	grouped := make(map[uuid.UUID][]models.CartLine, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		supplierID := line.Product.SupplierID
		grouped[supplierID] = append(grouped[supplierID], line)
	}
	return grouped
}

// SupplierTotals captures pre-calculated totals for one supplier's order.
type SupplierTotals struct {
	SupplierID uuid.UUID
	Total      decimal.Decimal
	ItemCount  int
}

// ComputeTotalsBySupplier returns order totals keyed by supplier, priced at
// the product's current unit price.
func ComputeTotalsBySupplier(lines []models.CartLine) map[uuid.UUID]SupplierTotals {
	results := make(map[uuid.UUID]SupplierTotals)
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		supplierID := line.Product.SupplierID
		totals, ok := results[supplierID]
		if !ok {
			totals = SupplierTotals{SupplierID: supplierID, Total: decimal.Zero}
		}
		totals.Total = totals.Total.Add(LineSubtotal(line))
		totals.ItemCount++
		results[supplierID] = totals
	}
	return results
}

// LineSubtotal prices one cart line at the product's current unit price.
func LineSubtotal(line models.CartLine) decimal.Decimal {
	if line.Product == nil {
		return decimal.Zero
	}
	return line.Product.PricePerUnit.Mul(decimal.NewFromInt(int64(line.Quantity)))
}
