package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"notelink/internal/identity"
	"notelink/pkg/logger"
	"notelink/pkg/response"
)

type contextKey string

const IdentityKey contextKey = "identity"

const (
	msgNoToken      = "No token provided. Authorization header must be in format: Bearer <token>"
	msgTokenExpired = "Token expired. Please login again."
	msgTokenInvalid = "Invalid token. Authentication failed."
)

// AuthMiddleware verifies the bearer credential and stores the caller's
// Identity in the request context.
func AuthMiddleware(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.Error(w, response.Unauthenticated(msgNoToken))
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Sugar.Warnf("Token verification failed: %v", err)
				if errors.Is(err, identity.ErrExpired) {
					response.Error(w, response.Unauthenticated(msgTokenExpired))
					return
				}
				response.Error(w, response.Unauthenticated(msgTokenInvalid))
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity stored by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(identity.Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
