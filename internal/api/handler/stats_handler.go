package handler

import (
	"net/http"

	"github.com/notifyhub/receiver/internal/service"
)

// StatsHandler serves a human-readable JSON snapshot of subscriber counts.
// Raw Prometheus metrics are available at /metrics via promhttp.
type StatsHandler struct {
	svc *service.NotificationService
}

func NewStatsHandler(svc *service.NotificationService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /stats
//
// @Summary  Subscriber counts per product type
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /stats [get]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"subscribers": counts,
		"total":       total,
	})
}
