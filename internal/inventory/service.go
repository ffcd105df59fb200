package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

// Service exposes supplier-facing stock operations.
type Service interface {
	Get(ctx context.Context, supplierID, productID uuid.UUID) (*models.InventoryRecord, error)
	Adjust(ctx context.Context, supplierID, productID uuid.UUID, delta int) (*models.InventoryRecord, error)
	Restock(ctx context.Context, supplierID, productID uuid.UUID, qty int) (*models.InventoryRecord, error)
	ListLowStock(ctx context.Context, supplierID uuid.UUID) ([]models.InventoryRecord, error)
}

type service struct {
	repo Repository
}

// NewService wires inventory dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, supplierID, productID uuid.UUID) (*models.InventoryRecord, error) {
	record, err := s.ownedRecord(ctx, supplierID, productID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) Adjust(ctx context.Context, supplierID, productID uuid.UUID, delta int) (*models.InventoryRecord, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}
	if _, err := s.ownedRecord(ctx, supplierID, productID); err != nil {
		return nil, err
	}

	applied, err := s.repo.AdjustAvailable(ctx, productID, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjusting inventory")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "adjustment would drive available stock negative")
	}
	return s.reload(ctx, productID)
}

func (s *service) Restock(ctx context.Context, supplierID, productID uuid.UUID, qty int) (*models.InventoryRecord, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
	}
	if _, err := s.ownedRecord(ctx, supplierID, productID); err != nil {
		return nil, err
	}

	applied, err := s.repo.Restock(ctx, productID, qty, time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restocking inventory")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
	}
	return s.reload(ctx, productID)
}

func (s *service) ListLowStock(ctx context.Context, supplierID uuid.UUID) ([]models.InventoryRecord, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	rows, err := s.repo.ListLowStock(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing low stock")
	}
	return rows, nil
}

func (s *service) ownedRecord(ctx context.Context, supplierID, productID uuid.UUID) (*models.InventoryRecord, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	record, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory record")
	}
	if record.SupplierID != supplierID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "inventory record belongs to another supplier")
	}
	return record, nil
}

func (s *service) reload(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	record, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading inventory record")
	}
	return record, nil
}
