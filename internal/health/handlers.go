package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync/atomic"
	"time"
)

// ErrDisabled is returned by a probe whose dependency is not configured.
// It is reported but does not fail readiness.
var ErrDisabled = errors.New("disabled")

const defaultProbeTimeout = 300 * time.Millisecond

// Probe checks one dependency. The context carries the probe deadline.
type Probe interface {
	Check(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) error

// Check implements Probe.
func (f ProbeFunc) Check(ctx context.Context) error { return f(ctx) }

var draining atomic.Bool

// SetReady flips readiness; main clears it when shutdown starts.
func SetReady(v bool) { draining.Store(!v) }

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Report is the readiness payload.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and answers 503 when one fails or the process is draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	report := h.Evaluate(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if report.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(report)
}

// Evaluate runs the probes in name order.
func (h Handler) Evaluate(ctx context.Context) Report {
	report := Report{Status: "ok", Checks: map[string]string{"app": "ok"}}
	if draining.Load() {
		report.Status = "draining"
		report.Checks["app"] = "shutting down"
	}

	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := h.Probes[name].Check(pctx)
		cancel()
		switch {
		case err == nil:
			report.Checks[name] = "ok"
		case errors.Is(err, ErrDisabled):
			report.Checks[name] = ErrDisabled.Error()
		default:
			report.Checks[name] = err.Error()
			report.Status = "degraded"
		}
	}
	return report
}
