package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/internal/cart"
	"github.com/jkimathi/sokoflow-backend/internal/checkout/helpers"
	"github.com/jkimathi/sokoflow-backend/internal/inventory"
	"github.com/jkimathi/sokoflow-backend/internal/orders"
	"github.com/jkimathi/sokoflow-backend/pkg/db"
	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
	"github.com/jkimathi/sokoflow-backend/pkg/logger"
	"github.com/jkimathi/sokoflow-backend/pkg/mailer"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error)
}

type orderNotifier interface {
	NotifyOrderPlaced(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type buyerLoader interface {
	FindBuyer(ctx context.Context, id uuid.UUID) (*models.Buyer, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error) {
	return inventory.Reserve(ctx, tx, requests)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID, input Input) (*Result, error)
}

// Input captures the delivery and payment details supplied at checkout.
type Input struct {
	PaymentMethod   enums.PaymentMethod
	DeliveryAddress string
	DeliveryCity    string
	DeliveryDate    *time.Time
	Notes           *string
}

// Result is the set of per-supplier orders produced from one cart.
type Result struct {
	Orders []models.Order `json:"orders"`
}

// ReservationFailure reports one cart line that could not be reserved.
type ReservationFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

type service struct {
	tx          txRunner
	cartRepo    cart.Repository
	ordersRepo  orders.Repository
	reservation reservationRunner
	notifier    orderNotifier
	buyers      buyerLoader
	mail        mailer.Sender
	logg        *logger.Logger
}

// NewService builds the checkout service. The mail sender is optional; when
// absent no invoice email goes out after commit.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	ordersRepo orders.Repository,
	reservation reservationRunner,
	notifier orderNotifier,
	buyers buyerLoader,
	mail mailer.Sender,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if reservation == nil {
		reservation = reservationEngine{}
	}
	if notifier == nil {
		return nil, fmt.Errorf("order notifier required")
	}
	if buyers == nil {
		return nil, fmt.Errorf("buyer loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		reservation: reservation,
		notifier:    notifier,
		buyers:      buyers,
		mail:        mail,
		logg:        logg,
	}, nil
}

// Execute turns the buyer's cart into one order per supplier. The whole
// workflow runs in a single transaction: stock holds, orders, order items,
// supplier notifications, and the cart wipe commit together or not at all.
func (s *service) Execute(ctx context.Context, buyerID uuid.UUID, input Input) (*Result, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		lines, err := cartRepo.List(ctx, buyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
		}
		if err := helpers.ValidateLines(lines); err != nil {
			return err
		}

		requests := make([]inventory.ReservationRequest, len(lines))
		for i, line := range lines {
			requests[i] = inventory.ReservationRequest{
				CartLineID: line.ID,
				ProductID:  line.ProductID,
				Qty:        line.Quantity,
			}
		}
		reservations, err := s.reservation.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}
		if failures := collectFailures(lines, reservations); len(failures) > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock for cart").
				WithDetails(failures)
		}

		grouped := helpers.GroupLinesBySupplier(lines)
		totals := helpers.ComputeTotalsBySupplier(lines)
		created := make([]models.Order, 0, len(grouped))

		for _, supplierID := range sortedSupplierIDs(grouped) {
			supplierLines := grouped[supplierID]

			order := &models.Order{
				BuyerID:         buyerID,
				SupplierID:      supplierID,
				TotalAmount:     totals[supplierID].Total,
				Status:          enums.OrderStatusPending,
				PaymentStatus:   enums.PaymentStatusPending,
				PaymentMethod:   input.PaymentMethod,
				DeliveryAddress: input.DeliveryAddress,
				DeliveryCity:    input.DeliveryCity,
				DeliveryDate:    input.DeliveryDate,
				Notes:           input.Notes,
			}
			if err := s.createOrderWithNumber(ctx, tx, order); err != nil {
				return err
			}

			items := make([]models.OrderItem, 0, len(supplierLines))
			for _, line := range supplierLines {
				items = append(items, models.OrderItem{
					OrderID:   order.ID,
					ProductID: line.ProductID,
					Quantity:  line.Quantity,
					UnitPrice: line.Product.PricePerUnit,
					Subtotal:  helpers.LineSubtotal(line),
				})
			}
			if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order items")
			}
			order.Items = items

			if err := s.notifier.NotifyOrderPlaced(ctx, tx, order); err != nil {
				return err
			}
			created = append(created, *order)
		}

		if err := cartRepo.Clear(ctx, buyerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
		}

		result = &Result{Orders: created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendInvoiceEmail(ctx, buyerID, result)
	return result, nil
}

// createOrderWithNumber mints the order number and retries exactly once if a
// concurrent checkout won the same number. Each attempt runs under a savepoint
// so the retry survives the aborted insert.
func (s *service) createOrderWithNumber(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for attempt := 0; attempt < 2; attempt++ {
		order.OrderNumber = GenerateOrderNumber(time.Now().UTC())
		err := tx.Transaction(func(inner *gorm.DB) error {
			_, createErr := s.ordersRepo.WithTx(inner).CreateOrder(ctx, order)
			return createErr
		})
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, "ux_orders_order_number") && attempt == 0 {
			continue
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
	}
	return pkgerrors.New(pkgerrors.CodeDependency, "could not allocate order number")
}

// sendInvoiceEmail runs after commit; a mail failure never unwinds the order.
func (s *service) sendInvoiceEmail(ctx context.Context, buyerID uuid.UUID, result *Result) {
	if s.mail == nil || result == nil || len(result.Orders) == 0 {
		return
	}

	buyer, err := s.buyers.FindBuyer(ctx, buyerID)
	if err != nil {
		s.logg.Warn(ctx, "skipping invoice email, buyer lookup failed: "+err.Error())
		return
	}
	if buyer.ContactEmail == nil || *buyer.ContactEmail == "" {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Thank you for your order, %s.\n\n", buyer.BusinessName)
	for _, order := range result.Orders {
		fmt.Fprintf(&sb, "Order %s: %s (%d items)\n",
			order.OrderNumber, order.TotalAmount.StringFixed(2), len(order.Items))
	}

	msg := mailer.Message{
		To:      *buyer.ContactEmail,
		Subject: "Your order confirmation",
		Text:    sb.String(),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logg.Warn(ctx, "invoice email failed: "+err.Error())
	}
}

func collectFailures(lines []models.CartLine, reservations []inventory.ReservationResult) []ReservationFailure {
	byLine := make(map[uuid.UUID]inventory.ReservationResult, len(reservations))
	for _, res := range reservations {
		byLine[res.CartLineID] = res
	}

	var failures []ReservationFailure
	for _, line := range lines {
		res, ok := byLine[line.ID]
		if !ok || res.Reserved {
			continue
		}
		failures = append(failures, ReservationFailure{ProductID: line.ProductID, Reason: res.Reason})
	}
	return failures
}

func sortedSupplierIDs(grouped map[uuid.UUID][]models.CartLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

func validateInput(input Input) error {
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if strings.TrimSpace(input.DeliveryCity) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery city required")
	}
	if input.DeliveryDate != nil && input.DeliveryDate.Before(time.Now()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery date must be in the future")
	}
	return nil
}
