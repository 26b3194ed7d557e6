package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/log"
)

// SessionCookie is the cookie browsers carry the session token in.
const SessionCookie = "fintrack_session"

// Middleware admits only requests with a valid session and puts the user on
// the request context. Everything else gets a JSON 401.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := g.Authenticate(r.Context(), TokenFromRequest(r))
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				log.FromContext(r.Context()).ErrorContext(r.Context(), "Session lookup failed", log.FieldError, err)
			}
			writeUnauthorized(w)
			return
		}
		ctx := WithUser(r.Context(), u)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, u.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromRequest prefers the Authorization header, then the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// SetSessionCookie stores the session in an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="fintrack"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": ErrUnauthenticated.Error()})
}
