package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/meetdesk/meetdesk/internal/apiclient"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	client    *apiclient.Client
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, client *apiclient.Client) *HealthHandler {
	return &HealthHandler{
		db:        db,
		client:    client,
		startTime: time.Now(),
	}
}

// HealthStatus is the health check response body.
type HealthStatus struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks"`
}

// Health reports the session store and upstream API reachability. Degraded
// dependencies produce a 503 so load balancers stop routing here.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status: "ok",
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Checks: map[string]string{
			"database": "ok",
			"upstream": "ok",
		},
	}

	if err := h.db.PingContext(r.Context()); err != nil {
		status.Status = "degraded"
		status.Checks["database"] = "unreachable"
	}
	if err := h.client.Ping(r.Context()); err != nil {
		status.Status = "degraded"
		status.Checks["upstream"] = "unreachable"
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
