package api

import (
	"context"
	"net/http"

	"github.com/inkwell-io/inkwell/server/internal/api/respond"
	"github.com/inkwell-io/inkwell/server/internal/auth"
)

type ctxKey int

const userInfoKey ctxKey = 0

// AuthMiddleware verifies the Bearer token and stashes the caller identity
// in the request context. Every route behind it can assume a verified user.
func AuthMiddleware(az auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractBearer(r)
			if err != nil {
				respond.WriteUnauthorized(w, err.Error())
				return
			}
			info, err := az.Authorize(r.Context(), token)
			if err != nil {
				respond.WriteUnauthorized(w, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), userInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerFrom returns the verified identity placed by AuthMiddleware.
func callerFrom(r *http.Request) *auth.UserInfo {
	info, _ := r.Context().Value(userInfoKey).(*auth.UserInfo)
	return info
}
