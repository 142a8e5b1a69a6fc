package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/maplecart/maplecart-backend/api/responses"
	"github.com/maplecart/maplecart-backend/api/validators"
	ordersvc "github.com/maplecart/maplecart-backend/internal/orders"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	pkgerrors "github.com/maplecart/maplecart-backend/pkg/errors"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

// OrderCreate places an order from the selected cart or an explicit buy-now
// line. The whole checkout commits or rolls back as one transaction.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// OrderList returns the user's orders, optionally filtered by status.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.OrderStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		summaries, err := svc.ListByUser(r.Context(), userID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"orders": summaries})
	}
}

// OrderDetail returns a full order view by order number.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderNumber, err := validators.URLParamString(r, "orderNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDetail(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// OrderUpdateStatus advances an order along the lifecycle. Illegal
// transitions return a state conflict.
func OrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderNumber, err := validators.URLParamString(r, "orderNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := svc.UpdateStatus(r.Context(), orderNumber, status, payload.Reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"order_number": orderNumber, "status": status})
	}
}

type createOrderRequest struct {
	Items       []buyNowItemPayload `json:"items" validate:"omitempty,dive"`
	Consignee   string              `json:"consignee_name"`
	Phone       string              `json:"consignee_phone"`
	Province    string              `json:"province"`
	City        string              `json:"city"`
	District    string              `json:"district"`
	Address     string              `json:"address"`
	DeliveryWay string              `json:"delivery_way"`
	PayWay      string              `json:"pay_way"`
}

type buyNowItemPayload struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	SKUID          uuid.UUID `json:"sku_id" validate:"required"`
	Quantity       int       `json:"quantity" validate:"required,min=1"`
	Specifications *string   `json:"specifications"`
}

func (p createOrderRequest) toInput(userID uuid.UUID) (ordersvc.CreateOrderInput, error) {
	input := ordersvc.CreateOrderInput{
		UserID: userID,
		Shipping: ordersvc.ShippingInput{
			ConsigneeName:  p.Consignee,
			ConsigneePhone: p.Phone,
			Province:       p.Province,
			City:           p.City,
			District:       p.District,
			Address:        p.Address,
		},
	}

	if p.DeliveryWay != "" {
		way, err := enums.ParseDeliveryWay(p.DeliveryWay)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery way")
		}
		input.DeliveryWay = way
	}
	if p.PayWay != "" {
		way, err := enums.ParsePayWay(p.PayWay)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pay way")
		}
		input.PayWay = way
	}

	for _, item := range p.Items {
		input.BuyNow = append(input.BuyNow, ordersvc.BuyNowItem{
			ProductID:      item.ProductID,
			SKUID:          item.SKUID,
			Quantity:       item.Quantity,
			Specifications: item.Specifications,
		})
	}
	return input, nil
}

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason"`
}
