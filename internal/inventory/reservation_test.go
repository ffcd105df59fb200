package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

func TestReserve(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	for _, record := range []models.InventoryRecord{
		{ProductID: productA, SupplierID: supplierID, QuantityAvailable: 5},
		{ProductID: productB, SupplierID: supplierID, QuantityAvailable: 1},
	} {
		if err := db.Create(&record).Error; err != nil {
			t.Fatalf("seed inventory: %v", err)
		}
	}

	requests := []ReservationRequest{
		{CartLineID: uuid.New(), ProductID: productA, Qty: 3},
		{CartLineID: uuid.New(), ProductID: productA, Qty: 4},
		{CartLineID: uuid.New(), ProductID: productB, Qty: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := Reserve(ctx, tx, requests)
		if terr != nil {
			return terr
		}
		if len(results) != 3 {
			t.Fatalf("expected 3 results, got %d", len(results))
		}
		if !results[0].Reserved || results[0].Reason != "" {
			t.Fatalf("expected first reservation to succeed")
		}
		if results[1].Reserved || results[1].Reason == "" {
			t.Fatalf("expected second reservation to fail with reason")
		}
		if !strings.Contains(results[1].Reason, "insufficient stock") {
			t.Fatalf("unexpected reason %q", results[1].Reason)
		}
		if !results[2].Reserved {
			t.Fatalf("expected third reservation to succeed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	var invA, invB models.InventoryRecord
	if err := db.First(&invA, "product_id = ?", productA).Error; err != nil {
		t.Fatalf("load inventory a: %v", err)
	}
	if err := db.First(&invB, "product_id = ?", productB).Error; err != nil {
		t.Fatalf("load inventory b: %v", err)
	}
	if invA.QuantityAvailable != 2 || invA.QuantityReserved != 3 {
		t.Fatalf("unexpected inventory a state: %+v", invA)
	}
	if invB.QuantityAvailable != 0 || invB.QuantityReserved != 1 {
		t.Fatalf("unexpected inventory b state: %+v", invB)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	record := models.InventoryRecord{ProductID: product, SupplierID: uuid.New(), QuantityAvailable: 5}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	_, err := Reserve(ctx, db, []ReservationRequest{{ProductID: product, Qty: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveMissingRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	results, err := Reserve(ctx, db, []ReservationRequest{
		{CartLineID: uuid.New(), ProductID: uuid.New(), Qty: 2},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if results[0].Reserved {
		t.Fatal("expected reservation to fail")
	}
	if results[0].Reason != "product has no inventory record" {
		t.Fatalf("unexpected reason %q", results[0].Reason)
	}
}

func TestReleaseAndFulfil(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	record := models.InventoryRecord{ProductID: product, SupplierID: uuid.New(), QuantityAvailable: 2, QuantityReserved: 5}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	if err := Release(ctx, db, product, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := Fulfil(ctx, db, product, 3); err != nil {
		t.Fatalf("fulfil: %v", err)
	}

	var got models.InventoryRecord
	if err := db.First(&got, "product_id = ?", product).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if got.QuantityAvailable != 4 || got.QuantityReserved != 0 {
		t.Fatalf("unexpected state: %+v", got)
	}

	if err := Release(ctx, db, product, 1); err == nil {
		t.Fatal("expected state conflict releasing more than reserved")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryRecord{}); err != nil {
		t.Fatalf("migrate inventory: %v", err)
	}
	return db
}
