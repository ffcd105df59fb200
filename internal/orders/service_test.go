package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stockCall struct {
	productID uuid.UUID
	qty       int
}

type fakeInventory struct {
	released  []stockCall
	fulfilled []stockCall
}

func (f *fakeInventory) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	f.released = append(f.released, stockCall{productID: productID, qty: qty})
	return nil
}

func (f *fakeInventory) Fulfil(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	f.fulfilled = append(f.fulfilled, stockCall{productID: productID, qty: qty})
	return nil
}

type fakeNotifier struct {
	calls []enums.OrderStatus
}

func (f *fakeNotifier) NotifyOrderStatus(ctx context.Context, tx *gorm.DB, order *models.Order, previous enums.OrderStatus) error {
	f.calls = append(f.calls, order.Status)
	return nil
}

func TestSetStatusHappyPath(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := uuid.New()
	order := seedOrder(t, db, uuid.New(), supplierID, enums.OrderStatusPending)

	inv := &fakeInventory{}
	notifier := &fakeNotifier{}
	svc := newTestService(t, db, inv, notifier)
	actor := Actor{ProfileID: supplierID, Role: enums.ActorRoleSupplier}

	updated, err := svc.SetStatus(ctx, actor, order.ID, enums.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected one buyer notification, got %d", len(notifier.calls))
	}

	if _, err := svc.SetStatus(ctx, actor, order.ID, enums.OrderStatusDelivered); err == nil {
		t.Fatal("expected invalid transition confirmed->delivered")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetStatusShipBurnsReservedStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := uuid.New()
	order := seedOrder(t, db, uuid.New(), supplierID, enums.OrderStatusProcessing)

	inv := &fakeInventory{}
	svc := newTestService(t, db, inv, &fakeNotifier{})
	actor := Actor{ProfileID: supplierID, Role: enums.ActorRoleSupplier}

	if _, err := svc.SetStatus(ctx, actor, order.ID, enums.OrderStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if len(inv.fulfilled) != len(order.Items) {
		t.Fatalf("expected %d fulfil calls, got %d", len(order.Items), len(inv.fulfilled))
	}
	if len(inv.released) != 0 {
		t.Fatal("ship must not release stock")
	}
}

func TestBuyerCancelReleasesStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyerID := uuid.New()
	order := seedOrder(t, db, buyerID, uuid.New(), enums.OrderStatusPending)

	inv := &fakeInventory{}
	svc := newTestService(t, db, inv, &fakeNotifier{})
	buyer := Actor{ProfileID: buyerID, Role: enums.ActorRoleBuyer}

	if _, err := svc.SetStatus(ctx, buyer, order.ID, enums.OrderStatusConfirmed); err == nil {
		t.Fatal("buyers must not confirm orders")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SetStatus(ctx, buyer, order.ID, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(inv.released) != len(order.Items) {
		t.Fatalf("expected %d release calls, got %d", len(order.Items), len(inv.released))
	}
	for i, item := range order.Items {
		if inv.released[i].productID != item.ProductID || inv.released[i].qty != item.Quantity {
			t.Fatalf("release call %d mismatch: %+v vs %+v", i, inv.released[i], item)
		}
	}
}

func TestOwnershipEnforced(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPending)

	svc := newTestService(t, db, &fakeInventory{}, &fakeNotifier{})

	stranger := Actor{ProfileID: uuid.New(), Role: enums.ActorRoleSupplier}
	if _, err := svc.GetForActor(ctx, stranger, order.ID); err == nil {
		t.Fatal("expected forbidden for foreign supplier")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}

	admin := Actor{ProfileID: uuid.New(), Role: enums.ActorRoleAdmin}
	if _, err := svc.GetForActor(ctx, admin, order.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestSetPaymentStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	supplierID := uuid.New()
	order := seedOrder(t, db, uuid.New(), supplierID, enums.OrderStatusConfirmed)

	svc := newTestService(t, db, &fakeInventory{}, &fakeNotifier{})
	actor := Actor{ProfileID: supplierID, Role: enums.ActorRoleSupplier}

	updated, err := svc.SetPaymentStatus(ctx, actor, order.ID, enums.PaymentStatusPaid)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", updated.PaymentStatus)
	}

	if _, err := svc.SetPaymentStatus(ctx, actor, order.ID, enums.PaymentStatusPending); err == nil {
		t.Fatal("expected invalid payment transition")
	}
}

func TestSetDeliveryDetails(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyerID := uuid.New()
	order := seedOrder(t, db, buyerID, uuid.New(), enums.OrderStatusPending)

	svc := newTestService(t, db, &fakeInventory{}, &fakeNotifier{})
	buyer := Actor{ProfileID: buyerID, Role: enums.ActorRoleBuyer}

	address := "Warehouse 4, Industrial Area"
	notes := "Call the gate before offloading"
	future := time.Now().Add(48 * time.Hour)
	updated, err := svc.SetDeliveryDetails(ctx, buyer, order.ID, DeliveryUpdate{
		Address: &address,
		Date:    &future,
		Notes:   &notes,
	})
	if err != nil {
		t.Fatalf("update delivery: %v", err)
	}
	if updated.DeliveryAddress != address {
		t.Fatalf("address not updated: %q", updated.DeliveryAddress)
	}
	if updated.DeliveryDate == nil {
		t.Fatal("delivery date not set")
	}
	if updated.Notes == nil || *updated.Notes != notes {
		t.Fatal("notes not updated")
	}

	if err := db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", enums.OrderStatusShipped).Error; err != nil {
		t.Fatalf("force shipped: %v", err)
	}
	if _, err := svc.SetDeliveryDetails(ctx, buyer, order.ID, DeliveryUpdate{Address: &address}); err == nil {
		t.Fatal("expected locked delivery details after shipping")
	}
}

func TestListScopesByActor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyerID := uuid.New()
	supplierID := uuid.New()
	seedOrder(t, db, buyerID, supplierID, enums.OrderStatusPending)
	seedOrder(t, db, buyerID, uuid.New(), enums.OrderStatusPending)
	seedOrder(t, db, uuid.New(), supplierID, enums.OrderStatusConfirmed)

	svc := newTestService(t, db, &fakeInventory{}, &fakeNotifier{})

	buyerList, err := svc.List(ctx, Actor{ProfileID: buyerID, Role: enums.ActorRoleBuyer}, ListInput{})
	if err != nil {
		t.Fatalf("buyer list: %v", err)
	}
	if len(buyerList.Items) != 2 {
		t.Fatalf("expected 2 buyer orders, got %d", len(buyerList.Items))
	}

	pending := enums.OrderStatusPending
	supplierList, err := svc.List(ctx, Actor{ProfileID: supplierID, Role: enums.ActorRoleSupplier}, ListInput{Status: &pending})
	if err != nil {
		t.Fatalf("supplier list: %v", err)
	}
	if len(supplierList.Items) != 1 {
		t.Fatalf("expected 1 pending supplier order, got %d", len(supplierList.Items))
	}
}

func newTestService(t *testing.T, db *gorm.DB, inv InventoryReleaser, notifier StatusNotifier) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, inv, notifier)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID, supplierID uuid.UUID, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:     "ORD-" + uuid.NewString()[:13],
		BuyerID:         buyerID,
		SupplierID:      supplierID,
		TotalAmount:     decimal.RequireFromString("540.00"),
		Status:          status,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   enums.PaymentMethodMobileMoney,
		DeliveryAddress: "Shop 12, Market Street",
		DeliveryCity:    "Nairobi",
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Quantity: 3, UnitPrice: decimal.RequireFromString("100.00"), Subtotal: decimal.RequireFromString("300.00")},
			{ProductID: uuid.New(), Quantity: 2, UnitPrice: decimal.RequireFromString("120.00"), Subtotal: decimal.RequireFromString("240.00")},
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
