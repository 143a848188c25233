package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness and the readiness of the pipeline's two
// backing services. Postgres holds the registry and tenant data; Redis
// carries the task queue and run locks. A trigger accepted while either is
// down would just fail on the worker, so readiness gates on both.
type HealthHandler struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"postgres": "ok",
		"redis":    "ok",
	}
	ready := true

	if h.db == nil {
		checks["postgres"] = "not configured"
		ready = false
	} else if err := h.db.Ping(r.Context()); err != nil {
		checks["postgres"] = err.Error()
		ready = false
	}

	if h.redis == nil {
		checks["redis"] = "not configured"
		ready = false
	} else if err := h.redis.Ping(r.Context()).Err(); err != nil {
		checks["redis"] = err.Error()
		ready = false
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not_ready"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
