package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/maplecart/maplecart-backend/api/responses"
	"github.com/maplecart/maplecart-backend/api/validators"
	financesvc "github.com/maplecart/maplecart-backend/internal/finance"
	"github.com/maplecart/maplecart-backend/pkg/enums"
	pkgerrors "github.com/maplecart/maplecart-backend/pkg/errors"
	"github.com/maplecart/maplecart-backend/pkg/logger"
)

// FinanceAccount returns one account with its flow history. Pool accounts
// omit the merchant_id query parameter.
func FinanceAccount(svc financesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}

		rawType, err := validators.URLParamString(r, "accountType")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		accountType, err := enums.ParseAccountType(rawType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account type"))
			return
		}

		merchantID := uuid.Nil
		if raw := r.URL.Query().Get("merchant_id"); raw != "" {
			merchantID, err = uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
				return
			}
		}

		account, err := svc.GetAccount(r.Context(), accountType, merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		flows, err := svc.ListFlows(r.Context(), account.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"account": account, "flows": flows})
	}
}

// FinanceOrderSplits returns the recorded split rows for an order.
func FinanceOrderSplits(svc financesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "finance service unavailable"))
			return
		}

		orderNumber, err := validators.URLParamString(r, "orderNumber")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		splits, err := svc.ListSplits(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"order_number": orderNumber, "splits": splits})
	}
}
