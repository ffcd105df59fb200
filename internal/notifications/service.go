package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
	"github.com/jkimathi/sokoflow-backend/pkg/pagination"
)

const unreadCountTTL = 5 * time.Minute

// countCache is the slice of the redis client the unread counter needs.
type countCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	UnreadCountKey(userID string) string
}

// Service defines notification list/read operations plus the domain emitters
// used by checkout, orders, and the reorder worker.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	NotifyOrderPlaced(ctx context.Context, tx *gorm.DB, order *models.Order) error
	NotifyOrderStatus(ctx context.Context, tx *gorm.DB, order *models.Order, previous enums.OrderStatus) error
	NotifyLowStock(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, productName string) error
}

type service struct {
	repo  Repository
	cache countCache
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies. The cache is optional; without
// it every unread count hits the database.
func NewService(repo Repository, cache countCache) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, cache: cache}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// UnreadCount serves the badge counter, consulting the cache first. A cache
// failure falls through to the database rather than failing the request.
func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	if s.cache != nil {
		key := s.cache.UnreadCountKey(userID.String())
		// cache miss or a cache outage both fall through to the database
		if cached, err := s.cache.Get(ctx, key); err == nil {
			if count, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting unread notifications")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, s.cache.UnreadCountKey(userID.String()), strconv.FormatInt(count, 10), unreadCountTTL)
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	if result.Updated {
		s.invalidateCount(ctx, userID)
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	if count > 0 {
		s.invalidateCount(ctx, userID)
	}
	return count, nil
}

// NotifyOrderPlaced writes the supplier's new-order notification inside the
// checkout transaction so it commits or rolls back with the order.
func (s *service) NotifyOrderPlaced(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	supplier, err := repo.FindSupplier(ctx, order.SupplierID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading supplier for notification")
	}

	link := "/orders/" + order.ID.String()
	notification := &models.Notification{
		UserID:  supplier.UserID,
		Type:    enums.NotificationTypeOrderPlaced,
		Title:   "New order received",
		Message: fmt.Sprintf("Order %s placed for %s", order.OrderNumber, order.TotalAmount.StringFixed(2)),
		Link:    &link,
	}
	if err := repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order notification")
	}
	s.invalidateCount(ctx, supplier.UserID)
	return nil
}

// NotifyOrderStatus informs the buyer that their order moved state.
func (s *service) NotifyOrderStatus(ctx context.Context, tx *gorm.DB, order *models.Order, previous enums.OrderStatus) error {
	repo := s.repo.WithTx(tx)
	buyer, err := repo.FindBuyer(ctx, order.BuyerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading buyer for notification")
	}

	link := "/orders/" + order.ID.String()
	notification := &models.Notification{
		UserID:  buyer.UserID,
		Type:    enums.NotificationTypeOrderStatus,
		Title:   fmt.Sprintf("Order %s %s", order.OrderNumber, order.Status),
		Message: fmt.Sprintf("Order %s moved from %s to %s", order.OrderNumber, previous, order.Status),
		Link:    &link,
	}
	if err := repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating status notification")
	}
	s.invalidateCount(ctx, buyer.UserID)
	return nil
}

// NotifyLowStock warns the supplier that a product crossed its reorder level.
func (s *service) NotifyLowStock(ctx context.Context, tx *gorm.DB, record *models.InventoryRecord, productName string) error {
	repo := s.repo.WithTx(tx)
	supplier, err := repo.FindSupplier(ctx, record.SupplierID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading supplier for notification")
	}

	link := "/inventory/" + record.ProductID.String()
	notification := &models.Notification{
		UserID: supplier.UserID,
		Type:   enums.NotificationTypeLowStock,
		Title:  "Low stock warning",
		Message: fmt.Sprintf("%s is down to %d units (reorder level %d)",
			productName, record.QuantityAvailable, record.ReorderLevel),
		Link: &link,
	}
	if err := repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating low stock notification")
	}
	s.invalidateCount(ctx, supplier.UserID)
	return nil
}

func (s *service) invalidateCount(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cache.UnreadCountKey(userID.String()))
}
