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

type LeaveHandler struct {
	BaseHandler
	leaveService services.LeaveService
	validator    *validator.Validator
}

func NewLeaveHandler(leaveService services.LeaveService, validator *validator.Validator, logger utils.Logger) *LeaveHandler {
	return &LeaveHandler{
		BaseHandler:  NewBaseHandler(logger),
		leaveService: leaveService,
		validator:    validator,
	}
}

// SubmitLeave submits a leave request
// @Summary Submit leave request
// @Tags leave
// @Accept json
// @Produce json
// @Param request body services.SubmitLeaveRequest true "Leave request"
// @Success 201 {object} models.LeaveRequest
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /leave [post]
func (h *LeaveHandler) SubmitLeave(c *gin.Context) {
	var req services.SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	employeeID, ok := GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	request, err := h.leaveService.Submit(c.Request.Context(), &req, employeeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// GetLeave retrieves a leave request
// @Summary Get leave request
// @Description Owners see their own requests; HR and admins see all
// @Tags leave
// @Produce json
// @Param id path uint true "Request ID"
// @Success 200 {object} models.LeaveRequest
// @Failure 404 {object} ErrorResponse
// @Router /leave/{id} [get]
func (h *LeaveHandler) GetLeave(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	actorID, _ := GetUserIDFromContext(c)
	role, _ := GetUserRoleFromContext(c)

	request, err := h.leaveService.GetByID(c.Request.Context(), id, actorID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListLeave lists leave requests
// @Summary List leave requests
// @Description HR and admins see all requests; everyone else sees their own
// @Tags leave
// @Produce json
// @Param status query string false "Status filter"
// @Param employee_id query string false "Employee filter (hr/admin only)"
// @Success 200 {object} services.LeaveListResponse
// @Router /leave [get]
func (h *LeaveHandler) ListLeave(c *gin.Context) {
	filters := repositories.LeaveFilters{
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	}
	if v := c.Query("status"); v != "" {
		status := models.LeaveStatus(v)
		filters.Status = &status
	}

	role, _ := GetUserRoleFromContext(c)
	if services.CanManageStaff(role) {
		if v := c.Query("employee_id"); v != "" {
			filters.EmployeeID = &v
		}
	} else {
		// Non-managers only ever see their own requests.
		employeeID, _ := GetUserIDFromContext(c)
		filters.EmployeeID = &employeeID
	}

	resp, err := h.leaveService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBalance returns a leave balance
// @Summary Get leave balance
// @Tags leave
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} models.LeaveBalance
// @Router /leave/balance/{id} [get]
func (h *LeaveHandler) GetBalance(c *gin.Context) {
	employeeID := c.Param("id")

	role, _ := GetUserRoleFromContext(c)
	actorID, _ := GetUserIDFromContext(c)
	if employeeID != actorID && !services.CanManageStaff(role) {
		abortForbidden(c, "cannot view another employee's balance")
		return
	}

	balance, err := h.leaveService.GetBalance(c.Request.Context(), employeeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// SetBalance sets a leave balance
// @Summary Set leave balance
// @Tags leave
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} models.LeaveBalance
// @Failure 403 {object} ErrorResponse
// @Router /leave/balance/{id} [put]
func (h *LeaveHandler) SetBalance(c *gin.Context) {
	var body struct {
		Days int `json:"days"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	role, _ := GetUserRoleFromContext(c)
	balance, err := h.leaveService.SetBalance(c.Request.Context(), c.Param("id"), body.Days, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// ApproveLeave approves a pending request and deducts the balance
// @Summary Approve leave request
// @Tags leave
// @Produce json
// @Param id path uint true "Request ID"
// @Success 200 {object} services.LeaveDecisionResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /leave/{id}/approve [post]
func (h *LeaveHandler) ApproveLeave(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	reviewerID, _ := GetUserIDFromContext(c)
	h.LogRequest(c, "Approving leave request", "request_id", id)

	decision, err := h.leaveService.Approve(c.Request.Context(), id, reviewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// RejectLeave rejects a pending request
// @Summary Reject leave request
// @Tags leave
// @Produce json
// @Param id path uint true "Request ID"
// @Success 200 {object} models.LeaveRequest
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /leave/{id}/reject [post]
func (h *LeaveHandler) RejectLeave(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	reviewerID, _ := GetUserIDFromContext(c)
	request, err := h.leaveService.Reject(c.Request.Context(), id, reviewerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}
