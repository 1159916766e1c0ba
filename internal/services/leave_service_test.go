package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/events"
	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

// mockLeaveRepo is an in-memory LeaveRepository for service tests.
type mockLeaveRepo struct {
	requests map[uint]*models.LeaveRequest
	balances map[string]*models.LeaveBalance
	nextID   uint
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{
		requests: make(map[uint]*models.LeaveRequest),
		balances: make(map[string]*models.LeaveBalance),
		nextID:   1,
	}
}

func (m *mockLeaveRepo) CreateRequest(ctx context.Context, req *models.LeaveRequest) error {
	req.ID = m.nextID
	m.nextID++
	m.requests[req.ID] = req
	return nil
}

func (m *mockLeaveRepo) GetRequestByID(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, repositories.ErrLeaveRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *mockLeaveRepo) UpdateRequest(ctx context.Context, req *models.LeaveRequest) error {
	if _, ok := m.requests[req.ID]; !ok {
		return repositories.ErrLeaveRequestNotFound
	}
	m.requests[req.ID] = req
	return nil
}

func (m *mockLeaveRepo) ListRequests(ctx context.Context, filters repositories.LeaveFilters) ([]*models.LeaveRequest, int64, error) {
	out := make([]*models.LeaveRequest, 0, len(m.requests))
	for _, req := range m.requests {
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

func (m *mockLeaveRepo) GetBalance(ctx context.Context, employeeID string) (*models.LeaveBalance, error) {
	if balance, ok := m.balances[employeeID]; ok {
		copied := *balance
		return &copied, nil
	}
	balance := &models.LeaveBalance{EmployeeID: employeeID}
	m.balances[employeeID] = balance
	copied := *balance
	return &copied, nil
}

func (m *mockLeaveRepo) SaveBalance(ctx context.Context, balance *models.LeaveBalance) error {
	m.balances[balance.EmployeeID] = balance
	return nil
}

func (m *mockLeaveRepo) GetStats(ctx context.Context) (*repositories.LeaveStats, error) {
	return &repositories.LeaveStats{}, nil
}

// mockLeaveRepository satisfies the aggregate with only the leave store wired.
type mockLeaveRepository struct {
	leave *mockLeaveRepo
}

func (m *mockLeaveRepository) Ticket() repositories.TicketRepository     { return nil }
func (m *mockLeaveRepository) Schedule() repositories.ScheduleRepository { return nil }
func (m *mockLeaveRepository) Leave() repositories.LeaveRepository       { return m.leave }
func (m *mockLeaveRepository) User() repositories.UserRepository         { return nil }
func (m *mockLeaveRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockLeaveRepository) Ping(ctx context.Context) error { return nil }
func (m *mockLeaveRepository) Close() error                   { return nil }

func newLeaveServiceForTest(t *testing.T) (LeaveService, *mockLeaveRepo, *events.MockEventPublisher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(logger)
	repo := newMockLeaveRepo()
	service := NewLeaveService(&mockLeaveRepository{leave: repo}, publisher, logger, validator.New())
	return service, repo, publisher
}

func submitLeaveFixture(days int) *SubmitLeaveRequest {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return &SubmitLeaveRequest{
		Type:          models.LeaveAnnual,
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, days-1),
		DaysRequested: days,
		Reason:        "family travel",
	}
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects paid leave above balance", func(t *testing.T) {
		service, repo, _ := newLeaveServiceForTest(t)
		repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 5}

		_, err := service.Submit(ctx, submitLeaveFixture(10), "emp-1")
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("Submit() error = %v, want ErrInsufficientBalance", err)
		}
	})

	t.Run("accepts paid leave within balance", func(t *testing.T) {
		service, repo, _ := newLeaveServiceForTest(t)
		repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 20}

		request, err := service.Submit(ctx, submitLeaveFixture(10), "emp-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if request.Status != models.LeavePending {
			t.Errorf("new request status = %s, want pending", request.Status)
		}
	})

	t.Run("unpaid leave skips the balance check", func(t *testing.T) {
		service, repo, _ := newLeaveServiceForTest(t)
		repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 0}

		req := submitLeaveFixture(10)
		req.Type = models.LeaveUnpaid
		if _, err := service.Submit(ctx, req, "emp-1"); err != nil {
			t.Errorf("unpaid Submit() error = %v", err)
		}
	})
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newLeaveServiceForTest(t)
	repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 20}

	request, err := service.Submit(ctx, submitLeaveFixture(5), "emp-1")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	t.Run("owner reads their own request", func(t *testing.T) {
		got, err := service.GetByID(ctx, request.ID, "emp-1", models.RoleStaff)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.EmployeeID != "emp-1" {
			t.Errorf("employee = %s, want emp-1", got.EmployeeID)
		}
	})

	t.Run("another employee's request reads as not found", func(t *testing.T) {
		if _, err := service.GetByID(ctx, request.ID, "emp-2", models.RoleStaff); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID(non-owner) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("hr reads any request", func(t *testing.T) {
		if _, err := service.GetByID(ctx, request.ID, "hr-1", models.RoleHR); err != nil {
			t.Errorf("GetByID(hr) error = %v", err)
		}
	})

	t.Run("missing request reads as not found", func(t *testing.T) {
		if _, err := service.GetByID(ctx, 999, "emp-1", models.RoleStaff); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestLeaveService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("deducts approved days from the balance", func(t *testing.T) {
		service, repo, publisher := newLeaveServiceForTest(t)
		repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 20}

		request, err := service.Submit(ctx, submitLeaveFixture(8), "emp-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		decision, err := service.Approve(ctx, request.ID, "hr-1")
		if err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if decision.NewBalance != 12 {
			t.Errorf("new balance = %d, want 12", decision.NewBalance)
		}
		if decision.Request.Status != models.LeaveApproved {
			t.Errorf("request status = %s, want approved", decision.Request.Status)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventLeaveApproved {
			t.Errorf("expected one leave.approved event, got %+v", published)
		}
	})

	t.Run("clamps at zero when the balance shrank after submission", func(t *testing.T) {
		service, repo, _ := newLeaveServiceForTest(t)
		repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 20}

		request, err := service.Submit(ctx, submitLeaveFixture(10), "emp-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		// Balance shrinks between submission and decision.
		repo.balances["emp-1"].Days = 5

		decision, err := service.Approve(ctx, request.ID, "hr-1")
		if err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if decision.NewBalance != 0 {
			t.Errorf("new balance = %d, want 0 (clamped)", decision.NewBalance)
		}
	})

	t.Run("second decision is rejected", func(t *testing.T) {
		service, repo, _ := newLeaveServiceForTest(t)
		repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 20}

		request, _ := service.Submit(ctx, submitLeaveFixture(3), "emp-1")
		if _, err := service.Approve(ctx, request.ID, "hr-1"); err != nil {
			t.Fatalf("first Approve() error = %v", err)
		}
		if _, err := service.Approve(ctx, request.ID, "hr-2"); !errors.Is(err, ErrAlreadyDecided) {
			t.Errorf("second Approve() error = %v, want ErrAlreadyDecided", err)
		}
	})

	t.Run("missing request maps to not found", func(t *testing.T) {
		service, _, _ := newLeaveServiceForTest(t)
		if _, err := service.Approve(ctx, 999, "hr-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Approve(missing) error = %v, want ErrNotFound", err)
		}
	})
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()
	service, repo, publisher := newLeaveServiceForTest(t)
	repo.balances["emp-1"] = &models.LeaveBalance{EmployeeID: "emp-1", Days: 20}

	request, _ := service.Submit(ctx, submitLeaveFixture(5), "emp-1")

	rejected, err := service.Reject(ctx, request.ID, "hr-1")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if rejected.Status != models.LeaveRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}

	// A rejection must not touch the balance.
	balance, _ := repo.GetBalance(ctx, "emp-1")
	if balance.Days != 20 {
		t.Errorf("balance after rejection = %d, want 20", balance.Days)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.EventLeaveRejected {
		t.Errorf("expected one leave.rejected event, got %+v", published)
	}
}

func TestLeaveService_SetBalance(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newLeaveServiceForTest(t)

	if _, err := service.SetBalance(ctx, "emp-1", 30, models.RoleStaff); !IsPermissionError(err) {
		t.Errorf("staff SetBalance() error = %v, want permission error", err)
	}

	balance, err := service.SetBalance(ctx, "emp-1", 30, models.RoleHR)
	if err != nil {
		t.Fatalf("hr SetBalance() error = %v", err)
	}
	if balance.Days != 30 {
		t.Errorf("balance = %d, want 30", balance.Days)
	}
}
