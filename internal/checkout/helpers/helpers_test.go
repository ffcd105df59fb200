package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

func TestGroupLinesBySupplier(t *testing.T) {
	t.Parallel()

	supplierA := uuid.New()
	supplierB := uuid.New()
	lines := []models.CartLine{
		line(supplierA, "100.00", 2),
		line(supplierB, "50.00", 1),
		line(supplierA, "30.00", 4),
		{ProductID: uuid.New(), Quantity: 1}, // product vanished mid-flight
	}

	grouped := GroupLinesBySupplier(lines)
	if len(grouped) != 2 {
		t.Fatalf("expected 2 supplier groups, got %d", len(grouped))
	}
	if len(grouped[supplierA]) != 2 {
		t.Fatalf("supplier A should own 2 lines, got %d", len(grouped[supplierA]))
	}
	if len(grouped[supplierB]) != 1 {
		t.Fatalf("supplier B should own 1 line, got %d", len(grouped[supplierB]))
	}
}

func TestComputeTotalsBySupplier(t *testing.T) {
	t.Parallel()

	supplierA := uuid.New()
	supplierB := uuid.New()
	lines := []models.CartLine{
		line(supplierA, "120.50", 2),
		line(supplierA, "30.00", 3),
		line(supplierB, "99.99", 1),
	}

	totals := ComputeTotalsBySupplier(lines)

	if want := decimal.RequireFromString("331.00"); !totals[supplierA].Total.Equal(want) {
		t.Fatalf("supplier A total: want %s, got %s", want, totals[supplierA].Total)
	}
	if totals[supplierA].ItemCount != 2 {
		t.Fatalf("supplier A item count: want 2, got %d", totals[supplierA].ItemCount)
	}
	if want := decimal.RequireFromString("99.99"); !totals[supplierB].Total.Equal(want) {
		t.Fatalf("supplier B total: want %s, got %s", want, totals[supplierB].Total)
	}
}

func TestValidateLines(t *testing.T) {
	t.Parallel()

	if err := ValidateLines(nil); err == nil {
		t.Fatal("empty cart must fail validation")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error for empty cart: %v", err)
	}

	good := line(uuid.New(), "10.00", 1)
	if err := ValidateLines([]models.CartLine{good}); err != nil {
		t.Fatalf("valid line rejected: %v", err)
	}

	orphan := models.CartLine{ProductID: uuid.New(), Quantity: 1}
	if err := ValidateLines([]models.CartLine{orphan}); err == nil {
		t.Fatal("line without a product must fail validation")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error for orphan line: %v", err)
	}

	inactive := line(uuid.New(), "10.00", 1)
	inactive.Product.Status = enums.ProductStatusInactive
	if err := ValidateLines([]models.CartLine{inactive}); err == nil {
		t.Fatal("inactive product must fail validation")
	}

	zeroQty := line(uuid.New(), "10.00", 0)
	if err := ValidateLines([]models.CartLine{zeroQty}); err == nil {
		t.Fatal("zero quantity must fail validation")
	}
}

func TestLineSubtotal(t *testing.T) {
	t.Parallel()

	l := line(uuid.New(), "12.34", 3)
	if want := decimal.RequireFromString("37.02"); !LineSubtotal(l).Equal(want) {
		t.Fatalf("subtotal: want %s, got %s", want, LineSubtotal(l))
	}

	orphan := models.CartLine{Quantity: 3}
	if !LineSubtotal(orphan).IsZero() {
		t.Fatal("subtotal without a product must be zero")
	}
}

func line(supplierID uuid.UUID, price string, qty int) models.CartLine {
	return models.CartLine{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Quantity:  qty,
		Product: &models.Product{
			ID:           uuid.New(),
			SupplierID:   supplierID,
			PricePerUnit: decimal.RequireFromString(price),
			Status:       enums.ProductStatusActive,
		},
	}
}
