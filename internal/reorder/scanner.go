package reorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	"github.com/jkimathi/sokoflow-backend/pkg/logger"
)

// dedupeTTL keeps a product from producing alert spam across scan cycles even
// when the open-alert row has already been resolved.
const dedupeTTL = 6 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lowStockLister interface {
	ListAllLowStock(ctx context.Context) ([]models.InventoryRecord, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type lowStockNotifier interface {
	NotifyLowStock(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, productName string) error
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReorderDedupeKey(productID string) string
}

// ScannerParams configure the low-stock scanner.
type ScannerParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Inventory lowStockLister
	Alerts    Repository
	Products  productLoader
	Notifier  lowStockNotifier
	Dedupe    dedupeStore
}

// Scanner walks every inventory record at or under its reorder level and
// raises one open alert per product.
type Scanner struct {
	logg      *logger.Logger
	db        txRunner
	inventory lowStockLister
	alerts    Repository
	products  productLoader
	notifier  lowStockNotifier
	dedupe    dedupeStore
}

// NewScanner validates dependencies. The dedupe store is optional; without it
// the open-alert check in the database is the only guard.
func NewScanner(params ScannerParams) (*Scanner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory lister required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &Scanner{
		logg:      params.Logger,
		db:        params.DB,
		inventory: params.Inventory,
		alerts:    params.Alerts,
		products:  params.Products,
		notifier:  params.Notifier,
		dedupe:    params.Dedupe,
	}, nil
}

func (s *Scanner) Name() string { return "reorder-scan" }

// Run performs one scan cycle and returns how many alerts it created.
func (s *Scanner) Run(ctx context.Context) (int, error) {
	records, err := s.inventory.ListAllLowStock(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing low stock: %w", err)
	}

	created := 0
	for i := range records {
		record := records[i]
		ok, err := s.processRecord(ctx, &record)
		if err != nil {
			logCtx := s.logg.WithField(ctx, "product_id", record.ProductID.String())
			s.logg.Error(logCtx, "reorder scan: product skipped", err)
			continue
		}
		if ok {
			created++
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"low_stock_products": len(records),
		"alerts_created":     created,
	})
	s.logg.Info(logCtx, "reorder scan complete")
	return created, nil
}

func (s *Scanner) processRecord(ctx context.Context, record *models.InventoryRecord) (bool, error) {
	if s.dedupe != nil {
		key := s.dedupe.ReorderDedupeKey(record.ProductID.String())
		fresh, err := s.dedupe.SetNX(ctx, key, time.Now().UTC().Unix(), dedupeTTL)
		if err != nil {
			// A cache outage must not stop alerting; the DB check still dedupes.
			s.logg.Warn(ctx, "reorder dedupe unavailable: "+err.Error())
		} else if !fresh {
			return false, nil
		}
	}

	var createdAlert bool
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		alerts := s.alerts.WithTx(tx)

		open, err := alerts.HasOpenAlert(ctx, record.ProductID)
		if err != nil {
			return fmt.Errorf("checking open alerts: %w", err)
		}
		if open {
			return nil
		}

		product, err := s.products.FindByID(ctx, record.ProductID)
		if err != nil {
			return fmt.Errorf("loading product: %w", err)
		}

		alert := &models.ReorderAlert{
			ProductID:         record.ProductID,
			SupplierID:        record.SupplierID,
			QuantitySuggested: suggestedQuantity(record),
			Status:            enums.ReorderAlertStatusOpen,
		}
		if err := alerts.Create(ctx, alert); err != nil {
			return fmt.Errorf("creating alert: %w", err)
		}

		if err := s.notifier.NotifyLowStock(ctx, tx, record, product.Name); err != nil {
			return fmt.Errorf("notifying supplier: %w", err)
		}

		createdAlert = true
		return nil
	})
	return createdAlert, err
}

// suggestedQuantity proposes the configured reorder quantity, falling back to
// topping the product back up to twice its reorder level.
func suggestedQuantity(record *models.InventoryRecord) int {
	if record.ReorderQuantity > 0 {
		return record.ReorderQuantity
	}
	suggested := record.ReorderLevel*2 - record.QuantityAvailable
	if suggested < 1 {
		suggested = 1
	}
	return suggested
}
