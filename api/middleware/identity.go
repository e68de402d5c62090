package middleware

import (
	"net/http"
	"strings"

	"github.com/photostream-labs/photostream-backend/pkg/logger"
)

const (
	userIDHeader   = "X-User-Id"
	userNameHeader = "X-User-Name"
)

// Identity reads the client-persisted identity headers and seeds the request
// context. The id is an opaque string the server handed out once and never
// verifies again; requests without it proceed anonymously and are rejected by
// handlers that need an identity.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			displayName := strings.TrimSpace(r.Header.Get(userNameHeader))

			ctx := r.Context()
			if userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			if displayName != "" {
				ctx = WithDisplayName(ctx, displayName)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
