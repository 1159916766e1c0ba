package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/services"
	"github.com/alnoor-edu/school-ops-service/internal/utils"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

type TicketHandler struct {
	BaseHandler
	ticketService services.TicketService
	validator     *validator.Validator
}

func NewTicketHandler(ticketService services.TicketService, validator *validator.Validator, logger utils.Logger) *TicketHandler {
	return &TicketHandler{
		BaseHandler:   NewBaseHandler(logger),
		ticketService: ticketService,
		validator:     validator,
	}
}

// CreateTicket creates a maintenance ticket
// @Summary Create ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Param ticket body services.CreateTicketRequest true "Ticket data"
// @Success 201 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /tickets [post]
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req services.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	reporterID, ok := GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	ticket, err := h.ticketService.Create(c.Request.Context(), &req, reporterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// GetTicket retrieves a ticket by ID
// @Summary Get ticket
// @Tags tickets
// @Produce json
// @Param id path uint true "Ticket ID"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} ErrorResponse
// @Router /tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	ticket, err := h.ticketService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListTickets lists tickets with filters
// @Summary List tickets
// @Tags tickets
// @Produce json
// @Param status query string false "Status filter"
// @Param priority query string false "Priority filter"
// @Param assignee_id query string false "Assignee filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.TicketListResponse
// @Router /tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	filters := repositories.TicketFilters{
		Limit:     intQuery(c, "limit", 20),
		Offset:    intQuery(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if v := c.Query("status"); v != "" {
		status := models.TicketStatus(v)
		filters.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TicketPriority(v)
		filters.Priority = &priority
	}
	if v := c.Query("assignee_id"); v != "" {
		filters.AssigneeID = &v
	}
	if v := c.Query("reporter_id"); v != "" {
		filters.ReporterID = &v
	}

	resp, err := h.ticketService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateTicket updates ticket fields
// @Summary Update ticket
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path uint true "Ticket ID"
// @Param ticket body services.UpdateTicketRequest true "Ticket fields"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tickets/{id} [put]
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// DeleteTicket removes a ticket
// @Summary Delete ticket
// @Tags tickets
// @Produce json
// @Param id path uint true "Ticket ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /tickets/{id} [delete]
func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.ticketService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Ticket deleted"})
}

// UpdateTicketStatus moves a ticket through its lifecycle
// @Summary Update ticket status
// @Tags tickets
// @Accept json
// @Produce json
// @Param id path uint true "Ticket ID"
// @Param status body services.UpdateTicketStatusRequest true "New status"
// @Success 200 {object} models.Ticket
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tickets/{id}/status [put]
func (h *TicketHandler) UpdateTicketStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID, _ := GetUserIDFromContext(c)
	ticket, err := h.ticketService.UpdateStatus(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// EscalateTicket forces a ticket to urgent priority
// @Summary Escalate ticket
// @Tags tickets
// @Produce json
// @Param id path uint true "Ticket ID"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tickets/{id}/escalate [post]
func (h *TicketHandler) EscalateTicket(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actorID, _ := GetUserIDFromContext(c)
	h.LogRequest(c, "Escalating ticket", "ticket_id", id)

	ticket, err := h.ticketService.Escalate(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// DeescalateTicket restores the pre-escalation priority
// @Summary De-escalate ticket
// @Tags tickets
// @Produce json
// @Param id path uint true "Ticket ID"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tickets/{id}/deescalate [post]
func (h *TicketHandler) DeescalateTicket(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actorID, _ := GetUserIDFromContext(c)
	ticket, err := h.ticketService.Deescalate(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}
