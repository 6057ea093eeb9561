package api

import (
	"context"
	"net/http"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

type healthResponse struct {
	Status string `json:"status"`
	DB     string `json:"db"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", DB: "ok"}
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.DB = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
