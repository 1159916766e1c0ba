package services

import (
	"errors"
	"fmt"
)

// Sentinel errors the handler layer maps onto HTTP statuses.
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrAlreadyEscalated    = errors.New("ticket is already escalated")
	ErrNotEscalated        = errors.New("ticket is not escalated")
	ErrAlreadyDecided      = errors.New("leave request already decided")
	ErrInsufficientBalance = errors.New("requested days exceed leave balance")
	ErrEmailTaken          = errors.New("email is already registered")
)

// PermissionError carries who tried what on which resource.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsPermissionError reports whether err is (or wraps) a PermissionError.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}
