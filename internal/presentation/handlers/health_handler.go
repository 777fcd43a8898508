package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines the interface for health checking components
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker
type HealthCheckFunc func(ctx context.Context) error

// HealthCheck calls f
func (f HealthCheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// HealthHandler handles health check requests. The chain RPC is required;
// the cache and price API only degrade the status.
type HealthHandler struct {
	rpc    HealthChecker
	cache  HealthChecker
	prices HealthChecker
}

// NewHealthHandler creates a new health handler. Any checker may be nil.
func NewHealthHandler(rpc, cache, prices HealthChecker) *HealthHandler {
	return &HealthHandler{
		rpc:    rpc,
		cache:  cache,
		prices: prices,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
	}

	degrade := func() {
		if response.Status == "healthy" {
			response.Status = "degraded"
		}
	}

	// Check chain RPC
	if h.rpc == nil {
		degrade()
		response.Services["rpc"] = "not configured"
	} else if err := h.rpc.HealthCheck(ctx); err != nil {
		response.Status = "unhealthy"
		response.Services["rpc"] = "unhealthy: " + err.Error()
	} else {
		response.Services["rpc"] = "healthy"
	}

	// Check cache
	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			degrade()
			response.Services["cache"] = "unhealthy: " + err.Error()
		} else {
			response.Services["cache"] = "healthy"
		}
	}

	// Check price API
	if h.prices != nil {
		if err := h.prices.HealthCheck(ctx); err != nil {
			degrade()
			response.Services["prices"] = "unhealthy: " + err.Error()
		} else {
			response.Services["prices"] = "healthy"
		}
	}

	status := http.StatusOK
	if response.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, response)
}

// Ready handles GET /ready for Kubernetes readiness checks
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.rpc != nil {
		if err := h.rpc.HealthCheck(ctx); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Live handles GET /live for Kubernetes liveness checks
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
