package controllers

import (
	"net/http"

	"github.com/maplecart/maplecart-backend/api/responses"
	"github.com/maplecart/maplecart-backend/api/validators"
	refundsvc "github.com/maplecart/maplecart-backend/internal/refunds"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	pkgerrors "github.com/maplecart/maplecart-backend/pkg/errors"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

// RefundApply opens a refund request against one of the user's orders.
func RefundApply(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderNumber, err := validators.URLParamString(r, "orderNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyRefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refundType, err := enums.ParseRefundType(payload.RefundType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund type"))
			return
		}

		refund, err := svc.Apply(r.Context(), refundsvc.ApplyInput{
			OrderNumber: orderNumber,
			UserID:      userID,
			RefundType:  refundType,
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, refund)
	}
}

// RefundSellerAccept records the seller's agreement to a pending refund.
func RefundSellerAccept(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		orderNumber, err := validators.URLParamString(r, "orderNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SellerAccept(r.Context(), orderNumber); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"order_number": orderNumber, "status": enums.RefundStatusSellerOK})
	}
}

// RefundAudit is the final platform decision. Approval reverses the recorded
// fund split and restocks returned goods in one transaction.
func RefundAudit(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		orderNumber, err := validators.URLParamString(r, "orderNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload auditRefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Audit(r.Context(), refundsvc.AuditInput{
			OrderNumber:  orderNumber,
			Approve:      payload.Approve,
			RejectReason: payload.RejectReason,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"order_number": orderNumber, "approved": payload.Approve})
	}
}

// RefundProgress returns the current refund record for an order.
func RefundProgress(svc refundsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		orderNumber, err := validators.URLParamString(r, "orderNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.Progress(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, refund)
	}
}

type applyRefundRequest struct {
	RefundType string `json:"refund_type" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

type auditRefundRequest struct {
	Approve      bool    `json:"approve"`
	RejectReason *string `json:"reject_reason"`
}
