package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/maplecart/maplecart-backend/api/middleware"
	pkgerrors "github.com/maplecart/maplecart-backend/pkg/errors"
)

// requestUserID resolves the authenticated user id from the request context.
func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}
