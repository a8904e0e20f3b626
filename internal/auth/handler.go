package auth

import (
	"net/http"

	"notelink/middleware"
	"notelink/pkg/response"
)

// VerifyToken serves POST /api/auth/verify. AuthMiddleware has already done
// the verification; this reports the result.
func VerifyToken(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, response.Unauthenticated("Authentication required"))
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"message": "Token is valid",
		"user":    id,
	})
}

// CurrentUser serves GET /api/auth/user.
func CurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, response.Unauthenticated("Authentication required"))
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"user": id})
}
