package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

type gormProductLoader struct {
	db *gorm.DB
}

func (l gormProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := l.db.WithContext(ctx).
		Preload("Inventory").
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func TestAddItemReplacesQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyerID := uuid.New()
	product := seedProduct(t, db, 1, 0)

	svc := newTestService(t, db)

	if _, err := svc.AddItem(ctx, buyerID, product.ID, 5); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyerID, product.ID, 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	var lines []models.CartLine
	if err := db.Where("buyer_id = ?", buyerID).Find(&lines).Error; err != nil {
		t.Fatalf("load lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one line per product, got %d", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("expected re-add to replace quantity, got %d", lines[0].Quantity)
	}
}

func TestAddItemEnforcesOrderBounds(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyerID := uuid.New()
	product := seedProduct(t, db, 10, 100)

	svc := newTestService(t, db)

	if _, err := svc.AddItem(ctx, buyerID, product.ID, 5); err == nil {
		t.Fatal("expected below-minimum rejection")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyerID, product.ID, 101); err == nil {
		t.Fatal("expected above-maximum rejection")
	}
	if _, err := svc.AddItem(ctx, buyerID, product.ID, 10); err != nil {
		t.Fatalf("boundary quantity should pass: %v", err)
	}
}

func TestUpsertKeepsOneRowPerBuyerProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(db)
	buyerID := uuid.New()
	product := seedProduct(t, db, 1, 0)

	first, err := repo.Upsert(ctx, &models.CartLine{BuyerID: buyerID, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, &models.CartLine{BuyerID: buyerID, ProductID: product.ID, Quantity: 7})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("upsert created a new row instead of updating")
	}
	if second.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", second.Quantity)
	}
	var count int64
	if err := db.Model(&models.CartLine{}).Where("buyer_id = ?", buyerID).Count(&count).Error; err != nil {
		t.Fatalf("count lines: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 cart line, got %d", count)
	}
}

func TestAddItemRejectsQuantityBeyondStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc, err := NewService(NewRepository(db), gormProductLoader{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	buyerID := uuid.New()
	product := seedProduct(t, db, 1, 0)
	record := &models.InventoryRecord{
		ProductID:         product.ID,
		SupplierID:        product.SupplierID,
		QuantityAvailable: 3,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	_, err = svc.AddItem(ctx, buyerID, product.ID, 5)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for oversell, got %v", err)
	}

	if _, err := svc.AddItem(ctx, buyerID, product.ID, 3); err != nil {
		t.Fatalf("add within stock: %v", err)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, 1, 0)
	if err := db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("status", enums.ProductStatusInactive).Error; err != nil {
		t.Fatalf("deactivate product: %v", err)
	}

	svc := newTestService(t, db)

	if _, err := svc.AddItem(ctx, uuid.New(), product.ID, 2); err == nil {
		t.Fatal("expected inactive product rejection")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestViewComputesTotals(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyerID := uuid.New()
	productA := seedProductWithPrice(t, db, "120.50")
	productB := seedProductWithPrice(t, db, "30.00")

	svc := newTestService(t, db)

	if _, err := svc.AddItem(ctx, buyerID, productA.ID, 2); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyerID, productB.ID, 3); err != nil {
		t.Fatalf("add b: %v", err)
	}

	view, err := svc.View(ctx, buyerID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.ItemCount != 2 {
		t.Fatalf("expected 2 lines, got %d", view.ItemCount)
	}
	want := decimal.RequireFromString("331.00")
	if !view.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, view.Total)
	}
	for _, line := range view.Lines {
		if line.Product == nil {
			t.Fatal("expected product preloaded on cart line")
		}
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyerID := uuid.New()
	productA := seedProduct(t, db, 1, 0)
	productB := seedProduct(t, db, 1, 0)

	svc := newTestService(t, db)

	if _, err := svc.AddItem(ctx, buyerID, productA.ID, 1); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := svc.AddItem(ctx, buyerID, productB.ID, 1); err != nil {
		t.Fatalf("add b: %v", err)
	}

	if err := svc.RemoveItem(ctx, buyerID, productA.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.RemoveItem(ctx, buyerID, productA.ID); err == nil {
		t.Fatal("expected not found on double remove")
	}

	if err := svc.Clear(ctx, buyerID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := svc.View(ctx, buyerID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %d lines", view.ItemCount)
	}
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormProductLoader{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, db *gorm.DB, minQty, maxQty int) *models.Product {
	t.Helper()
	product := &models.Product{
		SupplierID:       uuid.New(),
		Name:             "Maize Flour 2kg",
		PricePerUnit:     decimal.RequireFromString("85.00"),
		UnitOfMeasure:    enums.ProductUnitPiece,
		MinOrderQuantity: minQty,
		MaxOrderQuantity: maxQty,
		Status:           enums.ProductStatusActive,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedProductWithPrice(t *testing.T, db *gorm.DB, price string) *models.Product {
	t.Helper()
	product := seedProduct(t, db, 1, 0)
	if err := db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("price_per_unit", price).Error; err != nil {
		t.Fatalf("set price: %v", err)
	}
	product.PricePerUnit = decimal.RequireFromString(price)
	return product
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Supplier{},
		&models.Category{},
		&models.Product{},
		&models.InventoryRecord{},
		&models.CartLine{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
