// Package health serves the liveness and dependency check endpoint.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"smartration/pkg/platform/httputil"
)

// CheckFunc reports whether one dependency is reachable.
type CheckFunc func(ctx context.Context) error

type Response struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// Handler runs every registered check on each request.
type Handler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

func New(timeout time.Duration) *Handler {
	return &Handler{checks: make(map[string]CheckFunc), timeout: timeout}
}

// Add registers a named check. It is not safe to call once serving.
func (h *Handler) Add(name string, check CheckFunc) {
	h.checks[name] = check
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := Response{Status: "healthy", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK
	if len(names) > 0 {
		resp.Checks = make(map[string]string, len(names))
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
