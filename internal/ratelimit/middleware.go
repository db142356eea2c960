package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/smoothie-scribe/internal/common"
)

// Config binds a Rule to a request key.
type Config struct {
	Key  func(*http.Request) string
	Rule Rule
	// WritesOnly exempts GET, HEAD and OPTIONS requests.
	WritesOnly bool
}

// ByClientIP keys requests by the caller's address.
func ByClientIP(r *http.Request) string {
	return "ip:" + common.ClientIP(r)
}

// Handler answers 429 once a client exceeds its rule. Limiter errors are
// passed to OnError and the request is let through.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
}

func (h Handler) exempt(r *http.Request) bool {
	if h.Limiter == nil || h.Config.Key == nil {
		return true
	}
	if !h.Config.WritesOnly {
		return false
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Middleware implements chi middleware.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.exempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		d, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Rule)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		writeHeaders(w.Header(), d)
		if !d.Allowed {
			wait := math.Ceil(time.Until(d.Reset).Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(max(int(wait), 0)))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeHeaders(h http.Header, d Decision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(max(d.Limit, 0)))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
}
