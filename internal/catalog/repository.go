package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jkimathi/sokoflow-backend/pkg/db/models"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	"github.com/jkimathi/sokoflow-backend/pkg/pagination"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product with its stock record.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Inventory").
		First(&product, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductDetail fetches a product with supplier, category, and stock
// state. Listings of unverified suppliers stay hidden here as in the browse
// query.
func (r *Repository) GetProductDetail(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Category").
		Preload("Inventory").
		Joins("JOIN suppliers ON suppliers.id = products.supplier_id").
		Where("suppliers.verified = ?", true).
		First(&product, "products.id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct updates an existing product row.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// ListProductsBySupplier lists the products owned by a supplier with stock preloaded.
func (r *Repository) ListProductsBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Inventory").
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ListProducts returns the buyer-facing catalog page for the given filters.
// Only active listings are surfaced. The newest ordering is keyset-paginated
// on (created_at, id) descending; price and name orderings page by limit.
func (r *Repository) ListProducts(ctx context.Context, input ListInput, cursor *pagination.Cursor) ([]models.Product, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(input.Pagination.Limit)
	limit := pagination.LimitWithBuffer(input.Pagination.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Supplier").
		Preload("Category").
		Preload("Inventory").
		Joins("JOIN suppliers ON suppliers.id = products.supplier_id").
		Where("products.status = ?", enums.ProductStatusActive).
		Where("suppliers.verified = ?", true)

	query = applyFilters(query, input.Filters)

	sort := input.Sort
	if sort == "" {
		sort = SortNewest
	}
	if sort == SortNewest && cursor != nil {
		query = query.Where("(products.created_at, products.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	if err := query.
		Order(orderClause(sort)).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		next := rows[normalized]
		rows = rows[:normalized]
		if sort == SortNewest {
			return rows, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
		}
	}
	return rows, nil, nil
}

func orderClause(sort Sort) string {
	switch sort {
	case SortPriceAsc:
		return "products.price_per_unit ASC, products.id ASC"
	case SortPriceDesc:
		return "products.price_per_unit DESC, products.id ASC"
	case SortName:
		return "products.name ASC, products.id ASC"
	default:
		return "products.created_at DESC, products.id DESC"
	}
}

func applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if filters.SupplierID != nil {
		query = query.Where("products.supplier_id = ?", *filters.SupplierID)
	}
	if filters.City != "" {
		query = query.Where("suppliers.city = ?", filters.City)
	}
	if filters.InStock {
		query = query.
			Joins("JOIN inventory_records ON inventory_records.product_id = products.id").
			Where("inventory_records.quantity_available > 0")
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", pattern, pattern)
	}
	return query
}
