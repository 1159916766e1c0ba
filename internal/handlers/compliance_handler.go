package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/services"
	"github.com/alnoor-edu/school-ops-service/internal/utils"
)

type ComplianceHandler struct {
	BaseHandler
	complianceService services.ComplianceService
}

func NewComplianceHandler(complianceService services.ComplianceService, logger utils.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		BaseHandler:       NewBaseHandler(logger),
		complianceService: complianceService,
	}
}

// GetAlerts runs a compliance pass and returns the sorted alert list
// @Summary Get compliance alerts
// @Description Recomputes document and data alerts across the whole directory
// @Tags compliance
// @Produce json
// @Success 200 {object} services.ComplianceReport
// @Failure 500 {object} ErrorResponse
// @Router /compliance/alerts [get]
func (h *ComplianceHandler) GetAlerts(c *gin.Context) {
	h.LogRequest(c, "Running compliance evaluation")

	report, err := h.complianceService.Evaluate(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetBadge returns the alert count for the notification badge
// @Summary Get alert badge count
// @Tags compliance
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /compliance/badge [get]
func (h *ComplianceHandler) GetBadge(c *gin.Context) {
	count, err := h.complianceService.BadgeCount(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{"count": count}})
}

// ExportReport downloads the alert list as an xlsx workbook
// @Summary Export compliance report
// @Tags compliance
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} ErrorResponse
// @Router /compliance/export [get]
func (h *ComplianceHandler) ExportReport(c *gin.Context) {
	h.LogRequest(c, "Exporting compliance report")

	workbook, err := h.complianceService.ExportReport(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("compliance-report-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}
