package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes buyer cart operations.
type Service interface {
	AddItem(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*models.CartLine, error)
	UpdateQuantity(ctx context.Context, buyerID, productID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) error
	View(ctx context.Context, buyerID uuid.UUID) (*View, error)
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

// LineView pairs a cart line with its computed subtotal.
type LineView struct {
	models.CartLine
	Subtotal decimal.Decimal `json:"subtotal"`
}

// View is the buyer-facing cart summary.
type View struct {
	Lines     []LineView      `json:"lines"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

type service struct {
	repo     Repository
	products productLoader
}

// NewService wires cart dependencies.
func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) AddItem(ctx context.Context, buyerID, productID uuid.UUID, qty int) (*models.CartLine, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(product, qty); err != nil {
		return nil, err
	}

	line, err := s.repo.Upsert(ctx, &models.CartLine{
		BuyerID:   buyerID,
		ProductID: productID,
		Quantity:  qty,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart line")
	}
	return line, nil
}

func (s *service) UpdateQuantity(ctx context.Context, buyerID, productID uuid.UUID, qty int) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := validateQuantity(product, qty); err != nil {
		return err
	}

	updated, err := s.repo.UpdateQuantity(ctx, buyerID, productID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cart line")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, buyerID, productID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	removed, err := s.repo.Remove(ctx, buyerID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "removing cart line")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return nil
}

func (s *service) View(ctx context.Context, buyerID uuid.UUID) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	rows, err := s.repo.List(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing cart lines")
	}

	view := &View{Lines: make([]LineView, 0, len(rows)), Total: decimal.Zero}
	for _, row := range rows {
		subtotal := LineSubtotal(row)
		view.Lines = append(view.Lines, LineView{CartLine: row, Subtotal: subtotal})
		view.Total = view.Total.Add(subtotal)
		view.ItemCount++
	}
	return view, nil
}

func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if buyerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if err := s.repo.Clear(ctx, buyerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
	}
	return nil
}

// LineSubtotal computes quantity times the current unit price.
func LineSubtotal(line models.CartLine) decimal.Decimal {
	if line.Product == nil {
		return decimal.Zero
	}
	return line.Product.PricePerUnit.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

func (s *service) loadSellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available for ordering")
	}
	return product, nil
}

func validateQuantity(product *models.Product, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if qty < product.MinOrderQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity below minimum order of %d", product.MinOrderQuantity))
	}
	if product.MaxOrderQuantity > 0 && qty > product.MaxOrderQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("quantity above maximum order of %d", product.MaxOrderQuantity))
	}
	// Checkout re-checks under the reservation lock; this guards the cart UX.
	if product.Inventory != nil && qty > product.Inventory.QuantityAvailable {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("only %d available", product.Inventory.QuantityAvailable))
	}
	return nil
}
