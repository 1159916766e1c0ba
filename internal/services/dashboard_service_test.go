package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

// stubComplianceService counts which read path the caller took.
type stubComplianceService struct {
	report        *ComplianceReport
	evaluateCalls int
	currentCalls  int
}

func (s *stubComplianceService) Evaluate(ctx context.Context) (*ComplianceReport, error) {
	s.evaluateCalls++
	return s.report, nil
}

func (s *stubComplianceService) CurrentReport(ctx context.Context) (*ComplianceReport, error) {
	s.currentCalls++
	return s.report, nil
}

func (s *stubComplianceService) BadgeCount(ctx context.Context) (int, error) {
	return s.report.BadgeCount, nil
}

func (s *stubComplianceService) ExportReport(ctx context.Context) ([]byte, error) {
	return nil, nil
}

type mockDashboardRepository struct {
	ticket *mockTicketRepo
	leave  *mockLeaveRepo
	users  *mockUserRepo
}

func (m *mockDashboardRepository) Ticket() repositories.TicketRepository     { return m.ticket }
func (m *mockDashboardRepository) Schedule() repositories.ScheduleRepository { return nil }
func (m *mockDashboardRepository) Leave() repositories.LeaveRepository       { return m.leave }
func (m *mockDashboardRepository) User() repositories.UserRepository         { return m.users }
func (m *mockDashboardRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockDashboardRepository) Ping(ctx context.Context) error { return nil }
func (m *mockDashboardRepository) Close() error                   { return nil }

func TestDashboardService_GetOverview(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	compliance := &stubComplianceService{report: &ComplianceReport{
		Counts: map[AlertSeverity]int{
			SeverityCritical: 2,
			SeverityWarning:  1,
		},
		BadgeCount:  3,
		EvaluatedAt: time.Now().UTC(),
	}}

	repo := &mockDashboardRepository{
		ticket: newMockTicketRepo(),
		leave:  newMockLeaveRepo(),
		users:  newMockUserRepo(),
	}
	repo.users.users["u1"] = &models.User{ID: "u1", Status: models.StatusPending}
	repo.users.users["u2"] = &models.User{ID: "u2", Status: models.StatusApproved}

	service := NewDashboardService(repo, compliance, logger)

	resp, err := service.GetOverview(ctx)
	if err != nil {
		t.Fatalf("GetOverview() error = %v", err)
	}

	if resp.Overview.PendingApprovals != 1 {
		t.Errorf("pending approvals = %d, want 1", resp.Overview.PendingApprovals)
	}
	if resp.Overview.CriticalAlerts != 2 || resp.Overview.WarningAlerts != 1 {
		t.Errorf("alert tallies = %d/%d, want 2/1", resp.Overview.CriticalAlerts, resp.Overview.WarningAlerts)
	}
	if resp.BadgeCount != 3 {
		t.Errorf("badge count = %d, want 3", resp.BadgeCount)
	}

	// The overview rides the cached report; only the alerts endpoint forces
	// a recompute.
	if compliance.evaluateCalls != 0 {
		t.Errorf("Evaluate called %d times from the dashboard, want 0", compliance.evaluateCalls)
	}
	if compliance.currentCalls != 1 {
		t.Errorf("CurrentReport called %d times, want 1", compliance.currentCalls)
	}
}
