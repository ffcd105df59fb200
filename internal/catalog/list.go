package catalog

import (
	"github.com/google/uuid"

	"github.com/jkimathi/sokoflow-backend/pkg/pagination"
)

// Sort selects the catalog ordering. Cursor pagination is only available
// for the newest ordering; the others page by limit.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortName      Sort = "name"
)

// ParseSort maps the sort query value onto a known ordering. Empty input
// falls back to newest.
func ParseSort(value string) (Sort, bool) {
	switch Sort(value) {
	case "":
		return SortNewest, true
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName:
		return Sort(value), true
	default:
		return "", false
	}
}

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	SupplierID *uuid.UUID `json:"supplier_id,omitempty"`
	City       string     `json:"city,omitempty"`
	InStock    bool       `json:"in_stock,omitempty"`
	Query      string     `json:"q,omitempty"`
}

// ListInput captures the inputs needed to paginate/filter the catalog.
type ListInput struct {
	Filters    ListFilters
	Sort       Sort
	Pagination pagination.Params
}
