package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/internal/cart"
	"github.com/jkimathi/sokoflow-backend/internal/catalog"
	checkoutsvc "github.com/jkimathi/sokoflow-backend/internal/checkout"
	"github.com/jkimathi/sokoflow-backend/internal/inventory"
	"github.com/jkimathi/sokoflow-backend/internal/notifications"
	"github.com/jkimathi/sokoflow-backend/internal/orders"
	"github.com/jkimathi/sokoflow-backend/internal/reorder"
	pkgauth "github.com/jkimathi/sokoflow-backend/pkg/auth"
	"github.com/jkimathi/sokoflow-backend/pkg/config"
	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	"github.com/jkimathi/sokoflow-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "sokoflow",
			ExpirationMinutes: 5,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&models.Buyer{}, &models.Supplier{}, &models.Category{}, &models.Product{},
		&models.InventoryRecord{}, &models.CartLine{}, &models.Order{},
		&models.OrderItem{}, &models.Notification{}, &models.ReorderAlert{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: zerolog.Disabled})

	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	inventoryRepo := inventory.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	reorderRepo := reorder.NewRepository(gormDB)

	notificationsSvc, err := notifications.NewService(notificationsRepo, nil)
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	inventorySvc, err := inventory.NewService(inventoryRepo)
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	ordersSvc, err := orders.NewService(ordersRepo, gormTxRunner{gormDB}, inventory.Ledger{}, notificationsSvc)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	reorderSvc, err := reorder.NewService(reorderRepo)
	if err != nil {
		t.Fatalf("reorder service: %v", err)
	}
	checkoutSvc, err := checkoutsvc.NewService(
		gormTxRunner{gormDB}, cartRepo, ordersRepo, nil,
		notificationsSvc, notificationsRepo, nil, logg,
	)
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	return NewRouter(cfg, logg, Dependencies{
		DB:    stubPinger{},
		Redis: stubPinger{},
	}, Services{
		Catalog:       catalogSvc,
		Cart:          cartSvc,
		Checkout:      checkoutSvc,
		Orders:        ordersSvc,
		Inventory:     inventorySvc,
		Notifications: notificationsSvc,
		ReorderAlerts: reorderSvc,
	})
}

func mintToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	profileID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:    uuid.New(),
		Role:      role,
		ProfileID: &profileID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func doRequest(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	rec := doRequest(router, http.MethodGet, "/health/live", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Sokoflow-Env") != "test" {
		t.Fatalf("live: env header missing")
	}

	rec = doRequest(router, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
}

func TestReadinessFailsWhenDependencyDown(t *testing.T) {
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Level: zerolog.Disabled})

	broken := NewRouter(cfg, logg, Dependencies{
		DB:    stubPinger{err: errors.New("connection refused")},
		Redis: stubPinger{},
	}, Services{})

	rec := doRequest(broken, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := doRequest(router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCatalogIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := doRequest(router, http.MethodGet, "/api/v1/catalog", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, path := range []string{
		"/api/v1/cart",
		"/api/v1/orders",
		"/api/v1/notifications",
		"/api/v1/supplier/reorder-alerts",
	} {
		rec := doRequest(router, http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestRoleGates(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	buyerToken := mintToken(t, cfg, enums.ActorRoleBuyer)
	supplierToken := mintToken(t, cfg, enums.ActorRoleSupplier)

	rec := doRequest(router, http.MethodGet, "/api/v1/supplier/reorder-alerts", buyerToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("buyer on supplier route: expected 403, got %d", rec.Code)
	}

	rec = doRequest(router, http.MethodGet, "/api/v1/supplier/reorder-alerts", supplierToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("supplier reorder alerts: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, http.MethodGet, "/api/v1/cart", supplierToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("supplier on cart: expected 403, got %d", rec.Code)
	}

	rec = doRequest(router, http.MethodGet, "/api/v1/cart", buyerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("buyer cart: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
