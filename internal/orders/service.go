package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
	"github.com/jkimathi/sokoflow-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InventoryReleaser returns reserved stock when an order is cancelled.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Fulfil(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// StatusNotifier records an in-app notification for the order's buyer when
// the order moves between statuses.
type StatusNotifier interface {
	NotifyOrderStatus(ctx context.Context, tx *gorm.DB, order *models.Order, previous enums.OrderStatus) error
}

// Service defines order reads and the allow-listed transition operations.
type Service interface {
	GetForActor(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor Actor, input ListInput) (*ListResult, error)
	SetStatus(ctx context.Context, actor Actor, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	SetPaymentStatus(ctx context.Context, actor Actor, orderID uuid.UUID, next enums.PaymentStatus) (*models.Order, error)
	SetDeliveryDetails(ctx context.Context, actor Actor, orderID uuid.UUID, update DeliveryUpdate) (*models.Order, error)
}

// Actor identifies who is acting on an order.
type Actor struct {
	ProfileID uuid.UUID
	Role      enums.ActorRole
}

// ListInput configures the order listing for one actor.
type ListInput struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

// ListResult wraps one page of orders and the cursor for the next.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory InventoryReleaser
	notifier  StatusNotifier
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, inventory InventoryReleaser, notifier StatusNotifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	return &service{repo: repo, tx: tx, inventory: inventory, notifier: notifier}, nil
}

func (s *service) GetForActor(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor Actor, input ListInput) (*ListResult, error) {
	if actor.ProfileID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}

	params := ListParams{ActorID: actor.ProfileID, Status: input.Status, Limit: input.Limit}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}

	var (
		rows []models.Order
		next *pagination.Cursor
		err  error
	)
	switch actor.Role {
	case enums.ActorRoleBuyer:
		rows, next, err = s.repo.ListByBuyer(ctx, params)
	case enums.ActorRoleSupplier:
		rows, next, err = s.repo.ListBySupplier(ctx, params)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot list orders")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// SetStatus applies one transition from the order status state machine.
// Suppliers drive fulfilment; buyers may only cancel their own pending
// orders. Cancelling releases the stock holds, shipping consumes them.
func (s *service) SetStatus(ctx context.Context, actor Actor, orderID uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := authorize(actor, order); err != nil {
			return err
		}
		if err := authorizeTransition(actor, next); err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
		}

		applied, err := repo.UpdateStatus(ctx, order.ID, order.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}

		switch next {
		case enums.OrderStatusCancelled:
			for _, item := range order.Items {
				if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case enums.OrderStatusShipped:
			for _, item := range order.Items {
				if err := s.inventory.Fulfil(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		previous := order.Status
		order.Status = next
		if err := s.notifier.NotifyOrderStatus(ctx, tx, order, previous); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SetPaymentStatus(ctx context.Context, actor Actor, orderID uuid.UUID, next enums.PaymentStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment status %q", next))
	}
	if actor.Role != enums.ActorRoleSupplier && actor.Role != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers can record payments")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := authorize(actor, order); err != nil {
			return err
		}
		if !order.PaymentStatus.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move payment from %s to %s", order.PaymentStatus, next))
		}

		applied, err := repo.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating payment status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status changed concurrently")
		}
		order.PaymentStatus = next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetDeliveryDetails lets the buyer amend delivery fields while the order is
// still pending or confirmed. Nothing else on the order is editable.
func (s *service) SetDeliveryDetails(ctx context.Context, actor Actor, orderID uuid.UUID, update DeliveryUpdate) (*models.Order, error) {
	if actor.Role != enums.ActorRoleBuyer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can edit delivery details")
	}
	if update.Address == nil && update.City == nil && update.Date == nil && update.Notes == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no delivery fields provided")
	}
	if update.Date != nil && update.Date.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery date must be in the future")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if err := authorize(actor, order); err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery details are locked once processing starts")
		}

		if _, err := repo.UpdateDeliveryDetails(ctx, order.ID, update); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating delivery details")
		}
		updated, err = s.loadOrder(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) loadOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func authorize(actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleBuyer:
		if order.BuyerID == actor.ProfileID {
			return nil
		}
	case enums.ActorRoleSupplier:
		if order.SupplierID == actor.ProfileID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another account")
}

func authorizeTransition(actor Actor, next enums.OrderStatus) error {
	if actor.Role == enums.ActorRoleAdmin {
		return nil
	}
	if actor.Role == enums.ActorRoleBuyer {
		if next == enums.OrderStatusCancelled {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "buyers can only cancel orders")
	}
	if actor.Role == enums.ActorRoleSupplier {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot change order status")
}
