package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alnoor-edu/school-ops-service/internal/cache"
	"github.com/alnoor-edu/school-ops-service/internal/events"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

const (
	alertsCacheKey = "current"
	badgeCacheKey  = "total"
)

type complianceService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	caches    *cache.CacheManager
	logger    *slog.Logger
}

func NewComplianceService(repo repositories.Repository, publisher events.EventPublisher, caches *cache.CacheManager, logger *slog.Logger) ComplianceService {
	return &complianceService{
		repo:      repo,
		publisher: publisher,
		caches:    caches,
		logger:    logger,
	}
}

// Evaluate recomputes the alert list from the full directory, refreshes the
// caches, and announces critical findings on the bus.
func (s *complianceService) Evaluate(ctx context.Context) (*ComplianceReport, error) {
	started := time.Now()

	records, err := s.repo.User().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load directory for compliance pass: %w", err)
	}

	asOf := time.Now().UTC()
	alerts := ComputeAlerts(records, asOf)
	counts := CountBySeverity(alerts)

	report := &ComplianceReport{
		Alerts:      alerts,
		Counts:      counts,
		BadgeCount:  len(alerts),
		EvaluatedAt: asOf,
	}

	s.cacheReport(ctx, report)

	if counts[SeverityCritical] > 0 {
		s.publishCriticals(ctx, report)
	}

	s.logger.Info("Compliance pass complete",
		"records", len(records),
		"alerts", len(alerts),
		"critical", counts[SeverityCritical],
		"duration", time.Since(started))

	return report, nil
}

// BadgeCount serves the notification badge from cache, recomputing on a miss.
func (s *complianceService) BadgeCount(ctx context.Context) (int, error) {
	if cached, err := s.caches.Badge.GetString(ctx, badgeCacheKey); err == nil {
		if n, err := strconv.Atoi(cached); err == nil {
			return n, nil
		}
	}

	report, err := s.Evaluate(ctx)
	if err != nil {
		return 0, err
	}
	return report.BadgeCount, nil
}

// ExportReport renders the current alert list as an xlsx workbook for the
// HR weekly filing.
func (s *complianceService) ExportReport(ctx context.Context) ([]byte, error) {
	report, err := s.CurrentReport(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Compliance Alerts"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Severity", "Kind", "Employee", "Message", "Detail"}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, col+"1", h)
	}

	for i, alert := range report.Alerts {
		row := strconv.Itoa(i + 2)
		f.SetCellValue(sheet, "A"+row, string(alert.Severity))
		f.SetCellValue(sheet, "B"+row, string(alert.Kind))
		f.SetCellValue(sheet, "C"+row, alert.EmployeeName)
		f.SetCellValue(sheet, "D"+row, alert.Message)
		f.SetCellValue(sheet, "E"+row, alert.Detail)
	}

	f.SetCellValue(sheet, "G1", "Evaluated at")
	f.SetCellValue(sheet, "H1", report.EvaluatedAt.Format(time.RFC3339))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render compliance workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// CurrentReport serves the cached evaluation when fresh, else runs a new
// pass. Read paths that tolerate slightly stale tallies go through here to
// stay off the directory provider.
func (s *complianceService) CurrentReport(ctx context.Context) (*ComplianceReport, error) {
	var cached ComplianceReport
	if err := s.caches.Alerts.Get(ctx, alertsCacheKey, &cached); err == nil {
		return &cached, nil
	}
	return s.Evaluate(ctx)
}

func (s *complianceService) cacheReport(ctx context.Context, report *ComplianceReport) {
	if err := s.caches.Alerts.Set(ctx, alertsCacheKey, report, cache.AlertsCacheConfig.TTL); err != nil {
		s.logger.Debug("Alert cache write skipped", "error", err)
	}
	if err := s.caches.Badge.SetString(ctx, badgeCacheKey, strconv.Itoa(report.BadgeCount), cache.BadgeCacheConfig.TTL); err != nil {
		s.logger.Debug("Badge cache write skipped", "error", err)
	}
}

func (s *complianceService) publishCriticals(ctx context.Context, report *ComplianceReport) {
	if s.publisher == nil {
		return
	}

	criticals := make([]ComplianceAlert, 0, report.Counts[SeverityCritical])
	for _, alert := range report.Alerts {
		if alert.Severity == SeverityCritical {
			criticals = append(criticals, alert)
		}
	}

	event := events.NewEvent(events.EventCriticalAlerts, map[string]interface{}{
		"count":  len(criticals),
		"alerts": criticals,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish critical alerts event", "error", err)
	}
}
