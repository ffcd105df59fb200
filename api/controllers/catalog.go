package controllers

import (
	"net/http"
	"strings"

	"github.com/jkimathi/sokoflow-backend/api/responses"
	"github.com/jkimathi/sokoflow-backend/api/validators"
	"github.com/jkimathi/sokoflow-backend/internal/catalog"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
	"github.com/jkimathi/sokoflow-backend/pkg/logger"
	"github.com/jkimathi/sokoflow-backend/pkg/pagination"
)

// CatalogList serves the buyer-facing product listing with filters and
// cursor pagination.
func CatalogList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categoryID, err := validators.ParseQueryUUID(r, "category_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inStock, err := validators.ParseQueryBool(r, "in_stock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sort, ok := catalog.ParseSort(strings.TrimSpace(r.URL.Query().Get("sort")))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort"))
			return
		}

		input := catalog.ListInput{
			Filters: catalog.ListFilters{
				CategoryID: categoryID,
				SupplierID: supplierID,
				City:       strings.TrimSpace(r.URL.Query().Get("city")),
				InStock:    inStock,
				Query:      strings.TrimSpace(r.URL.Query().Get("q")),
			},
			Sort: sort,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CatalogDetail serves one product with its supplier, category, and stock.
func CatalogDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParseURLParamUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetDetail(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
