package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/nomadways/apinomad/internal/auth"
	"github.com/nomadways/apinomad/internal/store"
)

// RequireAuth validates the "Authorization: Token <key>" header and populates
// AuthContext. When renewTTL is non-zero the session expiry slides forward on
// every authenticated request.
func RequireAuth(sessions *store.SessionStore, accounts *store.AccountStore, renewTTL time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := tokenFromHeader(r)
			if !ok {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}

			sess, err := sessions.GetValidByKey(key)
			if err != nil || sess == nil {
				unauthorized(w, "Invalid token.")
				return
			}

			account, err := accounts.GetByID(sess.AccountID)
			if err != nil || account == nil || !account.IsActive {
				unauthorized(w, "Invalid token.")
				return
			}

			if renewTTL > 0 {
				// Renewal failure is not fatal; the session is still
				// valid for this request.
				sessions.Renew(sess.Key, renewTTL)
			}

			ac := auth.AuthContext{
				AccountID:   account.ID,
				IsSuperuser: account.IsSuperuser,
				SessionKey:  sess.Key,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromHeader(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, key, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Token") || key == "" {
		return "", false
	}
	return strings.TrimSpace(key), true
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"detail": "` + detail + `"}`))
}
