package controllers

import (
	"net/http"

	"github.com/maplecart/maplecart-backend/api/responses"
	"github.com/maplecart/maplecart-backend/api/validators"
	ordersvc "github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	pkgerrors "github.com/maplecart/maplecart-backend/pkg/errors"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

// PaymentNotify is the payment-success callback. Replays for an order already
// past pending_pay are acknowledged without effect.
func PaymentNotify(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload paymentNotifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payWay, err := enums.ParsePayWay(payload.PayWay)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pay way"))
			return
		}

		// only successful events advance the order; everything else is
		// acknowledged so the gateway stops retrying
		if payload.Status != "success" {
			responses.WriteSuccess(w, map[string]any{"order_number": payload.OrderNumber, "handled": false})
			return
		}

		if err := svc.MarkPaid(r.Context(), payload.OrderNumber, payWay); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"order_number": payload.OrderNumber, "handled": true})
	}
}

type paymentNotifyRequest struct {
	OrderNumber string `json:"order_number" validate:"required"`
	PayWay      string `json:"pay_way" validate:"required"`
	Status      string `json:"status" validate:"required"`
}
