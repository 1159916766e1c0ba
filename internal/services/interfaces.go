package services

import (
	"context"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

// ===== STAFF DTOs =====

type RegisterStaffRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Nationality string `json:"nationality" validate:"max=100"`
	ArabicName  string `json:"arabic_name" validate:"max=200"`
}

type UpdateProfileRequest struct {
	DisplayName *string    `json:"display_name" validate:"omitempty,max=100"`
	Nationality *string    `json:"nationality" validate:"omitempty,max=100"`
	CPRExpiry   *time.Time `json:"cpr_expiry"`
	VisaExpiry  *time.Time `json:"visa_expiry"`
	IBAN        *string    `json:"iban" validate:"omitempty,bh_iban,max=34"`
	ArabicName  *string    `json:"arabic_name" validate:"omitempty,max=200"`
}

type ChangeRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,console_role"`
}

type StaffListResponse struct {
	Users     []*models.User `json:"users"`
	Total     int64          `json:"total"`
	CanManage bool           `json:"can_manage"`
}

// ===== TICKET DTOs =====

type CreateTicketRequest struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"max=2000"`
	Location    string                `json:"location" validate:"max=200"`
	Priority    models.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	PhotoURLs   []string              `json:"photo_urls" validate:"omitempty,dive,url"`
}

type UpdateTicketRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=200"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	Location    *string                `json:"location" validate:"omitempty,max=200"`
	Priority    *models.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string                `json:"assignee_id"`
}

type UpdateTicketStatusRequest struct {
	Status models.TicketStatus `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

type TicketListResponse struct {
	Tickets []*models.Ticket `json:"tickets"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

// ===== SCHEDULE DTOs =====

type CreateScheduleRequest struct {
	Title       string                   `json:"title" validate:"required,max=200"`
	Description string                   `json:"description" validate:"max=2000"`
	Location    string                   `json:"location" validate:"max=200"`
	Frequency   models.ScheduleFrequency `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Weekdays    []time.Weekday           `json:"weekdays" validate:"omitempty,dive,min=0,max=6"`
	DayOfMonth  int                      `json:"day_of_month" validate:"omitempty,min=1,max=28"`
	Priority    models.TicketPriority    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string                  `json:"assignee_id"`
}

type UpdateScheduleRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=200"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	Location    *string                `json:"location" validate:"omitempty,max=200"`
	Priority    *models.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string                `json:"assignee_id"`
	Active      *bool                  `json:"active"`
}

type ScheduleListResponse struct {
	Schedules []*models.RecurringSchedule `json:"schedules"`
	Total     int64                       `json:"total"`
}

// ===== LEAVE DTOs =====

type SubmitLeaveRequest struct {
	Type          models.LeaveType `json:"type" validate:"required,oneof=annual sick unpaid"`
	StartDate     time.Time        `json:"start_date" validate:"required"`
	EndDate       time.Time        `json:"end_date" validate:"required"`
	DaysRequested int              `json:"days_requested" validate:"required,leave_days"`
	Reason        string           `json:"reason" validate:"max=1000"`
}

type LeaveDecisionResponse struct {
	Request    *models.LeaveRequest `json:"request"`
	NewBalance int                  `json:"new_balance"`
}

type LeaveListResponse struct {
	Requests []*models.LeaveRequest `json:"requests"`
	Total    int64                  `json:"total"`
}

// ===== COMPLIANCE DTOs =====

type ComplianceReport struct {
	Alerts      []ComplianceAlert     `json:"alerts"`
	Counts      map[AlertSeverity]int `json:"counts"`
	BadgeCount  int                   `json:"badge_count"`
	EvaluatedAt time.Time             `json:"evaluated_at"`
}

// ===== DASHBOARD DTOs =====

type DashboardOverview struct {
	OpenTickets      int `json:"open_tickets"`
	ResolvedTickets  int `json:"resolved_tickets"`
	PendingApprovals int `json:"pending_approvals"`
	PendingLeave     int `json:"pending_leave"`
	CriticalAlerts   int `json:"critical_alerts"`
	WarningAlerts    int `json:"warning_alerts"`
	InfoAlerts       int `json:"info_alerts"`
}

type DashboardResponse struct {
	Overview      DashboardOverview `json:"overview"`
	RecentTickets []*models.Ticket  `json:"recent_tickets"`
	BadgeCount    int               `json:"badge_count"`
}

// ===== SERVICE INTERFACES =====

type StaffService interface {
	// Registration and profile
	Register(ctx context.Context, req *RegisterStaffRequest) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest, actorID string, actorRole models.UserRole) (*models.User, error)

	// GetVisible reads a single record through the viewer's visibility
	// matrix; HR document fields are withheld from non-managers.
	GetVisible(ctx context.Context, userID, viewerID string, viewerRole models.UserRole) (*models.User, error)

	// Management list, filtered by the viewer's visibility
	ListVisible(ctx context.Context, viewerRole models.UserRole, filters repositories.UserFilters) (*StaffListResponse, error)

	// Admin operations
	Approve(ctx context.Context, userID string, actorRole models.UserRole) (*models.User, error)
	Block(ctx context.Context, userID string, actorRole models.UserRole) (*models.User, error)
	ChangeRole(ctx context.Context, userID string, req *ChangeRoleRequest, actorRole models.UserRole) (*models.User, error)
}

type TicketService interface {
	Create(ctx context.Context, req *CreateTicketRequest, reporterID string) (*models.Ticket, error)
	GetByID(ctx context.Context, id uint) (*models.Ticket, error)
	Update(ctx context.Context, id uint, req *UpdateTicketRequest) (*models.Ticket, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.TicketFilters) (*TicketListResponse, error)

	UpdateStatus(ctx context.Context, id uint, req *UpdateTicketStatusRequest, actorID string) (*models.Ticket, error)
	Escalate(ctx context.Context, id uint, actorID string) (*models.Ticket, error)
	Deescalate(ctx context.Context, id uint, actorID string) (*models.Ticket, error)
}

type ScheduleService interface {
	Create(ctx context.Context, req *CreateScheduleRequest, creatorID string) (*models.RecurringSchedule, error)
	GetByID(ctx context.Context, id uint) (*models.RecurringSchedule, error)
	Update(ctx context.Context, id uint, req *UpdateScheduleRequest) (*models.RecurringSchedule, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.ScheduleFilters) (*ScheduleListResponse, error)

	// GenerateDueTickets materializes tickets for every due schedule,
	// returning how many were created. Idempotent per schedule per day.
	GenerateDueTickets(ctx context.Context, asOf time.Time) (int, error)
}

type LeaveService interface {
	Submit(ctx context.Context, req *SubmitLeaveRequest, employeeID string) (*models.LeaveRequest, error)

	// GetByID returns the request when the actor owns it or can manage
	// staff; anyone else's request reads as not found.
	GetByID(ctx context.Context, id uint, actorID string, actorRole models.UserRole) (*models.LeaveRequest, error)
	List(ctx context.Context, filters repositories.LeaveFilters) (*LeaveListResponse, error)
	GetBalance(ctx context.Context, employeeID string) (*models.LeaveBalance, error)
	SetBalance(ctx context.Context, employeeID string, days int, actorRole models.UserRole) (*models.LeaveBalance, error)

	Approve(ctx context.Context, requestID uint, reviewerID string) (*LeaveDecisionResponse, error)
	Reject(ctx context.Context, requestID uint, reviewerID string) (*models.LeaveRequest, error)
}

type ComplianceService interface {
	// Evaluate recomputes the alert list from the full directory.
	Evaluate(ctx context.Context) (*ComplianceReport, error)

	// CurrentReport serves the cached evaluation, recomputing on a miss.
	CurrentReport(ctx context.Context) (*ComplianceReport, error)

	// BadgeCount returns the cached alert total for the notification badge.
	BadgeCount(ctx context.Context) (int, error)

	// ExportReport renders the current alert list as an xlsx workbook.
	ExportReport(ctx context.Context) ([]byte, error)
}

type DashboardService interface {
	GetOverview(ctx context.Context) (*DashboardResponse, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Staff() StaffService
	Ticket() TicketService
	Schedule() ScheduleService
	Leave() LeaveService
	Compliance() ComplianceService
	Dashboard() DashboardService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
