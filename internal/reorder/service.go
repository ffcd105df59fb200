package reorder

import (
	"context"

	"github.com/google/uuid"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

// Service exposes the supplier-facing view of reorder alerts.
type Service interface {
	ListForSupplier(ctx context.Context, supplierID uuid.UUID, status *enums.ReorderAlertStatus) ([]models.ReorderAlert, error)
	Resolve(ctx context.Context, supplierID, alertID uuid.UUID, status enums.ReorderAlertStatus) error
}

type service struct {
	repo Repository
}

// NewService wires reorder alert dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "reorder repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListForSupplier(ctx context.Context, supplierID uuid.UUID, status *enums.ReorderAlertStatus) ([]models.ReorderAlert, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	alerts, err := s.repo.ListBySupplier(ctx, supplierID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing reorder alerts")
	}
	return alerts, nil
}

// Resolve moves an open alert to ordered or dismissed. Only the owning
// supplier may resolve its alerts.
func (s *service) Resolve(ctx context.Context, supplierID, alertID uuid.UUID, status enums.ReorderAlertStatus) error {
	if supplierID == uuid.Nil || alertID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier and alert ids required")
	}
	if status != enums.ReorderAlertStatusOrdered && status != enums.ReorderAlertStatusDismissed {
		return pkgerrors.New(pkgerrors.CodeValidation, "alerts resolve to ordered or dismissed")
	}

	alerts, err := s.repo.ListBySupplier(ctx, supplierID, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading reorder alerts")
	}
	owned := false
	for _, alert := range alerts {
		if alert.ID == alertID {
			owned = true
			break
		}
	}
	if !owned {
		return pkgerrors.New(pkgerrors.CodeNotFound, "reorder alert not found")
	}

	updated, err := s.repo.SetStatus(ctx, alertID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving reorder alert")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reorder alert already resolved")
	}
	return nil
}
