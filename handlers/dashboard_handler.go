package handlers

import (
	"net/http"

	"github.com/Dosada05/bolao-system/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(s services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: s}
}

// Stats godoc
// @Summary Сводка бэк-офиса
// @Tags admin
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
