package security

import (
	"fmt"
	"net/http"
	"time"
)

const (
	defaultCSP     = "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"
	defaultHSTSAge = 365 * 24 * time.Hour
)

// Headers sets the browser hardening headers. HSTS is only sent on TLS requests.
type Headers struct {
	Enable     bool
	EnableHSTS bool

	// HSTSMaxAge defaults to one year.
	HSTSMaxAge      time.Duration
	HSTSSubdomains  bool
	ContentSecurity string
}

func (h Headers) static() http.Header {
	csp := h.ContentSecurity
	if csp == "" {
		csp = defaultCSP
	}
	return http.Header{
		"X-Content-Type-Options":  {"nosniff"},
		"X-Frame-Options":         {"DENY"},
		"Referrer-Policy":         {"same-origin"},
		"Permissions-Policy":      {"geolocation=(), microphone=(), camera=()"},
		"Content-Security-Policy": {csp},
	}
}

func (h Headers) hsts() string {
	age := h.HSTSMaxAge
	if age <= 0 {
		age = defaultHSTSAge
	}
	v := fmt.Sprintf("max-age=%d", int64(age/time.Second))
	if h.HSTSSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// Middleware attaches the headers to every response.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	fixed := h.static()
	hsts := h.hsts()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for k, v := range fixed {
			out[k] = v
		}
		if h.EnableHSTS && r.TLS != nil {
			out.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}
