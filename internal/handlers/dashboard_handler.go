package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/services"
	"github.com/alnoor-edu/school-ops-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler:      NewBaseHandler(logger),
		dashboardService: dashboardService,
	}
}

// GetOverview returns the operations dashboard
// @Summary Get dashboard overview
// @Description Ticket, leave, signup and compliance numbers for the landing page
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardResponse
// @Failure 500 {object} ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	overview, err := h.dashboardService.GetOverview(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
