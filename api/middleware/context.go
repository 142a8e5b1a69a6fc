package middleware

import (
	"context"
	"net/http"

	"github.com/maplecart/maplecart-backend/pkg/logger"
)

type contextKey string

const userIDKey contextKey = "user_id"

const userIDHeader = "X-User-Id"

// UserContext lifts the authenticated user id from the gateway-injected
// header into the request context. Authentication itself happens upstream.
func UserContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(userIDHeader)
			ctx := r.Context()
			if userID != "" {
				ctx = context.WithValue(ctx, userIDKey, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the user id set by UserContext, or "".
func UserIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(userIDKey).(string); ok {
		return value
	}
	return ""
}
