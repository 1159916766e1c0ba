package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/models"
)

// ErrDirectoryTimeout is returned when a just-written directory record did
// not become readable within the configured retry policy. It is distinct
// from transport failures so callers can surface it as its own condition.
var ErrDirectoryTimeout = errors.New("directory read-after-write timed out")

// Not-found sentinels shared across repository backends.
var (
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrUserNotFound         = errors.New("user not found")
)

// ===== SHARED FILTER STRUCTS =====

type TicketFilters struct {
	Status     *models.TicketStatus   `json:"status"`
	Priority   *models.TicketPriority `json:"priority"`
	ReporterID *string                `json:"reporter_id"`
	AssigneeID *string                `json:"assignee_id"`
	ScheduleID *uint                  `json:"schedule_id"`
	DateFrom   *time.Time             `json:"date_from"`
	DateTo     *time.Time             `json:"date_to"`
	Limit      int                    `json:"limit"`
	Offset     int                    `json:"offset"`
	SortBy     string                 `json:"sort_by"`    // "created_at", "priority", "status"
	SortOrder  string                 `json:"sort_order"` // "asc", "desc"
}

type ScheduleFilters struct {
	Active    *bool      `json:"active"`
	DueBefore *time.Time `json:"due_before"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

type LeaveFilters struct {
	Status     *models.LeaveStatus `json:"status"`
	EmployeeID *string             `json:"employee_id"`
	Type       *models.LeaveType   `json:"type"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

type UserFilters struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type TicketStats struct {
	TotalTickets    int                           `json:"total_tickets"`
	OpenTickets     int                           `json:"open_tickets"`
	ResolvedTickets int                           `json:"resolved_tickets"`
	ByPriority      map[models.TicketPriority]int `json:"by_priority"`
	ByStatus        map[models.TicketStatus]int   `json:"by_status"`
}

type LeaveStats struct {
	PendingRequests  int `json:"pending_requests"`
	ApprovedRequests int `json:"approved_requests"`
	RejectedRequests int `json:"rejected_requests"`
}

// ===== REPOSITORY INTERFACES =====

type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id uint) (*models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters TicketFilters) ([]*models.Ticket, int64, error)
	ExistsForScheduleOn(ctx context.Context, scheduleID uint, day time.Time) (bool, error)
	GetStats(ctx context.Context) (*TicketStats, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.RecurringSchedule) error
	GetByID(ctx context.Context, id uint) (*models.RecurringSchedule, error)
	Update(ctx context.Context, schedule *models.RecurringSchedule) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters ScheduleFilters) ([]*models.RecurringSchedule, int64, error)
	ListDue(ctx context.Context, asOf time.Time) ([]*models.RecurringSchedule, error)
}

type LeaveRepository interface {
	CreateRequest(ctx context.Context, req *models.LeaveRequest) error
	GetRequestByID(ctx context.Context, id uint) (*models.LeaveRequest, error)
	UpdateRequest(ctx context.Context, req *models.LeaveRequest) error
	ListRequests(ctx context.Context, filters LeaveFilters) ([]*models.LeaveRequest, int64, error)
	GetBalance(ctx context.Context, employeeID string) (*models.LeaveBalance, error)
	SaveBalance(ctx context.Context, balance *models.LeaveBalance) error
	GetStats(ctx context.Context) (*LeaveStats, error)
}

// UserRepository is the directory boundary. Reads go to the identity
// provider (through the cache); writes go straight to the provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error

	// WaitForUser polls until a just-created record becomes readable or the
	// retry policy is exhausted, in which case ErrDirectoryTimeout is returned.
	WaitForUser(ctx context.Context, id string) (*models.User, error)
}

// ===== AGGREGATE =====

type Repository interface {
	Ticket() TicketRepository
	Schedule() ScheduleRepository
	Leave() LeaveRepository
	User() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
