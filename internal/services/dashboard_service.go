package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

type dashboardService struct {
	repo       repositories.Repository
	compliance ComplianceService
	logger     *slog.Logger
}

func NewDashboardService(repo repositories.Repository, compliance ComplianceService, logger *slog.Logger) DashboardService {
	return &dashboardService{
		repo:       repo,
		compliance: compliance,
		logger:     logger,
	}
}

// GetOverview assembles the admin landing page in one call: ticket and leave
// statistics, pending signups, the compliance tallies, and the most recent
// open tickets.
func (s *dashboardService) GetOverview(ctx context.Context) (*DashboardResponse, error) {
	ticketStats, err := s.repo.Ticket().GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket stats: %w", err)
	}

	leaveStats, err := s.repo.Leave().GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leave stats: %w", err)
	}

	pendingApprovals, err := s.countPendingSignups(ctx)
	if err != nil {
		// The dashboard still renders without the directory; log and move on.
		s.logger.Warn("Failed to count pending signups", "error", err)
	}

	// The cached report is fine here; the alerts endpoint is the place for
	// a forced recompute.
	report, err := s.compliance.CurrentReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load compliance report: %w", err)
	}

	recent, _, err := s.repo.Ticket().List(ctx, repositories.TicketFilters{
		Limit:     5,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent tickets: %w", err)
	}

	return &DashboardResponse{
		Overview: DashboardOverview{
			OpenTickets:      ticketStats.OpenTickets,
			ResolvedTickets:  ticketStats.ResolvedTickets,
			PendingApprovals: pendingApprovals,
			PendingLeave:     leaveStats.PendingRequests,
			CriticalAlerts:   report.Counts[SeverityCritical],
			WarningAlerts:    report.Counts[SeverityWarning],
			InfoAlerts:       report.Counts[SeverityInfo],
		},
		RecentTickets: recent,
		BadgeCount:    report.BadgeCount,
	}, nil
}

func (s *dashboardService) countPendingSignups(ctx context.Context) (int, error) {
	users, err := s.repo.User().ListAll(ctx)
	if err != nil {
		return 0, err
	}

	pending := 0
	for _, user := range users {
		if user != nil && user.Status == models.StatusPending {
			pending++
		}
	}
	return pending, nil
}
