package security

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CSRF protects form posts with the double-submit cookie technique. The token
// may be echoed in a header or in a hidden form field.
type CSRF struct {
	Cookie string
	Header string
	Field  string
	Secure bool
	// Disabled turns the check off while still issuing tokens.
	Disabled bool
}

type csrfTokenKey struct{}

// CSRFToken returns the token issued for the request, for embedding in forms.
func CSRFToken(ctx context.Context) string {
	if v, ok := ctx.Value(csrfTokenKey{}).(string); ok {
		return v
	}
	return ""
}

// FieldName reports the form field carrying the token.
func (c CSRF) FieldName() string {
	if f := strings.TrimSpace(c.Field); f != "" {
		return f
	}
	return "csrf_token"
}

func (c CSRF) cookieName() string {
	if n := strings.TrimSpace(c.Cookie); n != "" {
		return n
	}
	return "csrf_token"
}

func (c CSRF) headerName() string {
	if h := strings.TrimSpace(c.Header); h != "" {
		return h
	}
	return "X-CSRF-Token"
}

// Middleware issues a token cookie when none is present and, for unsafe methods,
// requires the submitted token to match the cookie.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookieToken := ""
		if cookie, err := r.Cookie(c.cookieName()); err == nil {
			cookieToken = strings.TrimSpace(cookie.Value)
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			if cookieToken == "" {
				cookieToken = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     c.cookieName(),
					Value:    cookieToken,
					Path:     "/",
					HttpOnly: true,
					Secure:   c.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, cookieToken)))
			return
		}

		if c.Disabled {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, cookieToken)))
			return
		}
		if cookieToken == "" {
			http.Error(w, "missing csrf cookie", http.StatusForbidden)
			return
		}
		submitted := strings.TrimSpace(r.Header.Get(c.headerName()))
		if submitted == "" {
			submitted = strings.TrimSpace(r.PostFormValue(c.FieldName()))
		}
		if submitted == "" {
			http.Error(w, "missing csrf token", http.StatusForbidden)
			return
		}
		if subtleConstantTimeCompare(submitted, cookieToken) != 1 {
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, cookieToken)))
	})
}

func subtleConstantTimeCompare(a, b string) int {
	if len(a) != len(b) {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b))
}
