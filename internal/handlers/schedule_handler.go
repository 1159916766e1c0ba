package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/services"
	"github.com/alnoor-edu/school-ops-service/internal/utils"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

type ScheduleHandler struct {
	BaseHandler
	scheduleService services.ScheduleService
	validator       *validator.Validator
}

func NewScheduleHandler(scheduleService services.ScheduleService, validator *validator.Validator, logger utils.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		BaseHandler:     NewBaseHandler(logger),
		scheduleService: scheduleService,
		validator:       validator,
	}
}

// CreateSchedule creates a recurring maintenance schedule
// @Summary Create schedule
// @Tags schedules
// @Accept json
// @Produce json
// @Param schedule body services.CreateScheduleRequest true "Schedule data"
// @Success 201 {object} models.RecurringSchedule
// @Failure 400 {object} ErrorResponse
// @Router /schedules [post]
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req services.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	creatorID, _ := GetUserIDFromContext(c)
	schedule, err := h.scheduleService.Create(c.Request.Context(), &req, creatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// GetSchedule retrieves a schedule by ID
// @Summary Get schedule
// @Tags schedules
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {object} models.RecurringSchedule
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	schedule, err := h.scheduleService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// ListSchedules lists recurring schedules
// @Summary List schedules
// @Tags schedules
// @Produce json
// @Param active query bool false "Active filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.ScheduleListResponse
// @Router /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	filters := repositories.ScheduleFilters{
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	}
	if v := c.Query("active"); v != "" {
		active := v == "true"
		filters.Active = &active
	}

	resp, err := h.scheduleService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateSchedule updates schedule fields
// @Summary Update schedule
// @Tags schedules
// @Accept json
// @Produce json
// @Param id path uint true "Schedule ID"
// @Param schedule body services.UpdateScheduleRequest true "Schedule fields"
// @Success 200 {object} models.RecurringSchedule
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	schedule, err := h.scheduleService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// DeleteSchedule removes a schedule
// @Summary Delete schedule
// @Tags schedules
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.scheduleService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Schedule deleted"})
}

// GenerateTickets runs the generation pass for due schedules
// @Summary Generate due tickets
// @Description Materializes tickets for every schedule whose next occurrence has passed
// @Tags schedules
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /schedules/generate [post]
func (h *ScheduleHandler) GenerateTickets(c *gin.Context) {
	h.LogRequest(c, "Running schedule generation pass")

	created, err := h.scheduleService.GenerateDueTickets(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Generation pass complete",
		Data:    gin.H{"created": created},
	})
}
