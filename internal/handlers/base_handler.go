package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/services"
	"github.com/alnoor-edu/school-ops-service/internal/utils"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

// ErrorResponse is the error envelope for API responses.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse wraps a successful API payload.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler needs.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs through the request-scoped logger when available.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Error(msg, args...)
}

// parseIDParam parses a numeric path parameter, writing the 400 itself.
// Returns 0 when the parameter is missing or malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// intQuery parses an integer query parameter with a fallback.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// handleServiceError maps service-layer errors onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Request validation failed",
			Details: validationErrs.Error(),
		})
		return
	}

	var permissionErr *services.PermissionError
	if errors.As(err, &permissionErr) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: permissionErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Resource not found",
		})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadyEscalated),
		errors.Is(err, services.ErrNotEscalated),
		errors.Is(err, services.ErrAlreadyDecided),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case errors.Is(err, repositories.ErrDirectoryTimeout):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "directory_timeout",
			Message: "Directory did not confirm the write in time",
		})
	default:
		h.LogError(c, "Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal server error",
		})
	}
}
