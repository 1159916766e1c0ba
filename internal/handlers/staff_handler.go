package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/services"
	"github.com/alnoor-edu/school-ops-service/internal/utils"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

type StaffHandler struct {
	BaseHandler
	staffService services.StaffService
	validator    *validator.Validator
}

func NewStaffHandler(staffService services.StaffService, validator *validator.Validator, logger utils.Logger) *StaffHandler {
	return &StaffHandler{
		BaseHandler:  NewBaseHandler(logger),
		staffService: staffService,
		validator:    validator,
	}
}

// Register creates a new staff account
// @Summary Register staff account
// @Description Creates a pending directory record for a new staff member
// @Tags staff
// @Accept json
// @Produce json
// @Param staff body services.RegisterStaffRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /staff/register [post]
func (h *StaffHandler) Register(c *gin.Context) {
	var req services.RegisterStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.staffService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetMe returns the authenticated user's own profile
// @Summary Get own profile
// @Tags staff
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /staff/me [get]
func (h *StaffHandler) GetMe(c *gin.Context) {
	user, ok := GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListStaff lists directory records visible to the caller
// @Summary List staff
// @Description Lists staff records, filtered by the caller's role visibility
// @Tags staff
// @Produce json
// @Param query query string false "Search query"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.StaffListResponse
// @Failure 401 {object} ErrorResponse
// @Router /staff [get]
func (h *StaffHandler) ListStaff(c *gin.Context) {
	role, ok := GetUserRoleFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	filters := repositories.UserFilters{
		Query:  c.Query("query"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}

	resp, err := h.staffService.ListVisible(c.Request.Context(), role, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStaff returns a single directory record
// @Summary Get staff record
// @Description Returns the record when the caller's role may see it; document fields require hr or admin
// @Tags staff
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse
// @Router /staff/{id} [get]
func (h *StaffHandler) GetStaff(c *gin.Context) {
	viewerID, _ := GetUserIDFromContext(c)
	viewerRole, _ := GetUserRoleFromContext(c)

	user, err := h.staffService.GetVisible(c.Request.Context(), c.Param("id"), viewerID, viewerRole)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateStaff updates a directory record
// @Summary Update staff record
// @Tags staff
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param staff body services.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /staff/{id} [put]
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID, _ := GetUserIDFromContext(c)
	actorRole, _ := GetUserRoleFromContext(c)

	user, err := h.staffService.UpdateProfile(c.Request.Context(), c.Param("id"), &req, actorID, actorRole)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ApproveStaff approves a pending account
// @Summary Approve staff account
// @Tags staff
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /staff/{id}/approve [post]
func (h *StaffHandler) ApproveStaff(c *gin.Context) {
	actorRole, _ := GetUserRoleFromContext(c)
	h.LogRequest(c, "Approving staff account", "user_id", c.Param("id"))

	user, err := h.staffService.Approve(c.Request.Context(), c.Param("id"), actorRole)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// BlockStaff blocks an account
// @Summary Block staff account
// @Tags staff
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /staff/{id}/block [post]
func (h *StaffHandler) BlockStaff(c *gin.Context) {
	actorRole, _ := GetUserRoleFromContext(c)
	h.LogRequest(c, "Blocking staff account", "user_id", c.Param("id"))

	user, err := h.staffService.Block(c.Request.Context(), c.Param("id"), actorRole)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangeRole changes an account's role
// @Summary Change staff role
// @Tags staff
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body services.ChangeRoleRequest true "New role"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /staff/{id}/role [put]
func (h *StaffHandler) ChangeRole(c *gin.Context) {
	var req services.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorRole, _ := GetUserRoleFromContext(c)
	user, err := h.staffService.ChangeRole(c.Request.Context(), c.Param("id"), &req, actorRole)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
