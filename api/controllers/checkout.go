package controllers

import (
	"net/http"
	"time"

	"github.com/jkimathi/sokoflow-backend/api/responses"
	"github.com/jkimathi/sokoflow-backend/api/validators"
	checkoutsvc "github.com/jkimathi/sokoflow-backend/internal/checkout"
	"github.com/jkimathi/sokoflow-backend/pkg/enums"
	pkgerrors "github.com/jkimathi/sokoflow-backend/pkg/errors"
	"github.com/jkimathi/sokoflow-backend/pkg/logger"
)

type checkoutRequest struct {
	PaymentMethod   string     `json:"payment_method" validate:"required"`
	DeliveryAddress string     `json:"delivery_address" validate:"required"`
	DeliveryCity    string     `json:"delivery_city" validate:"required"`
	DeliveryDate    *time.Time `json:"delivery_date,omitempty"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Checkout converts the buyer's cart into per-supplier orders.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		buyerID, err := buyerProfileFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.Execute(r.Context(), buyerID, checkoutsvc.Input{
			PaymentMethod:   method,
			DeliveryAddress: payload.DeliveryAddress,
			DeliveryCity:    payload.DeliveryCity,
			DeliveryDate:    payload.DeliveryDate,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
