package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iho/stockroyale/internal/domain"
)

const (
	// UserIDHeader carries the account the request acts for.
	UserIDHeader = "X-User-ID"
	// UserRoleHeader carries the caller's role. Absent means trader.
	UserRoleHeader = "X-User-Role"
)

// Identity attaches the caller named by the identity headers to the request
// context. Requests without X-User-ID continue anonymously.
//
// The headers are taken as given. The server must sit behind an authenticating
// gateway that strips client-supplied X-User-ID and X-User-Role and sets them
// from the verified session; exposed directly, any client can claim admin.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := r.Header.Get(UserIDHeader)
		if accountID == "" {
			next.ServeHTTP(w, r)
			return
		}

		role := domain.RoleTrader
		if raw := r.Header.Get(UserRoleHeader); raw != "" {
			role = domain.Role(raw)
		}
		if !role.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid role header")
			return
		}

		ctx := domain.WithCaller(r.Context(), domain.Caller{AccountID: accountID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers that cannot run administrative operations.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := domain.CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !caller.Role.CanAdminister() {
			writeError(w, http.StatusForbidden, domain.ErrForbidden.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
