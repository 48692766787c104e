package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/gogo/internal/auth"
)

// RequireSession verifies the admin session cookie and populates
// AuthContext. Failures get a JSON 401; the admin panel is an API client.
func RequireSession(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			sess := sessions.Verify(r.Context(), cookie.Value)
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID: sess.UserID,
				Email:  sess.Email,
				Role:   sess.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
