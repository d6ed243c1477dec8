// Package health serves liveness and readiness checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Checker is a dependency the server needs to be ready.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Handler serves the health endpoints.
type Handler struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

// NewHandler creates a health handler with no checkers.
func NewHandler(logger *zap.SugaredLogger) *Handler {
	return &Handler{timeout: 5 * time.Second, logger: logger}
}

// RegisterChecker adds a dependency checker.
func (h *Handler) RegisterChecker(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, c)
}

// Response is the health check body.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports that the process is serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	write(w, http.StatusOK, Response{Status: "ok"})
}

// Ready runs every checker and answers 503 if any fails. Failure details
// are logged, not returned.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.mu.RLock()
	checkers := append([]Checker(nil), h.checkers...)
	h.mu.RUnlock()

	resp := Response{Status: "ready", Checks: make(map[string]string, len(checkers))}
	status := http.StatusOK
	for _, c := range checkers {
		if err := c.Check(ctx); err != nil {
			h.logger.Warnw("readiness check failed", "check", c.Name(), "error", err)
			resp.Checks[c.Name()] = "failing"
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name()] = "ok"
	}

	write(w, status, resp)
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
