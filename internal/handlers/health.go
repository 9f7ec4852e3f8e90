package handlers

import (
	"net/http"
	"time"

	"github.com/Novip1906/tasks-realtime/internal/contextkeys"
	"github.com/Novip1906/tasks-realtime/internal/response"
	"github.com/Novip1906/tasks-realtime/pkg/logging"
)

type healthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	body := healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startedAt).Seconds(),
		Environment: h.cfg.Env,
	}

	status := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		contextkeys.GetLogger(r.Context()).Error("health check failed", logging.DbErr("Ping", err))
		body.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, body, msgOK)
}
