package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

type TicketPostgreSQL struct {
	db *gorm.DB
}

func NewTicketPostgreSQL(db *gorm.DB) repositories.TicketRepository {
	return &TicketPostgreSQL{db: db}
}

func (r *TicketPostgreSQL) Create(ctx context.Context, ticket *models.Ticket) error {
	if err := r.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *TicketPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).First(&ticket, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *TicketPostgreSQL) Update(ctx context.Context, ticket *models.Ticket) error {
	if err := r.db.WithContext(ctx).Save(ticket).Error; err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return nil
}

func (r *TicketPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Ticket{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrTicketNotFound
	}
	return nil
}

func (r *TicketPostgreSQL) List(ctx context.Context, filters repositories.TicketFilters) ([]*models.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Ticket{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.ReporterID != nil {
		query = query.Where("reporter_id = ?", *filters.ReporterID)
	}
	if filters.AssigneeID != nil {
		query = query.Where("assignee_id = ?", *filters.AssigneeID)
	}
	if filters.ScheduleID != nil {
		query = query.Where("schedule_id = ?", *filters.ScheduleID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tickets: %w", err)
	}

	query = applySort(query, filters.SortBy, filters.SortOrder, map[string]bool{
		"created_at": true, "priority": true, "status": true, "updated_at": true,
	})

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var tickets []*models.Ticket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}

	return tickets, total, nil
}

// ExistsForScheduleOn reports whether a schedule already materialized a ticket
// on the given day. Used to keep schedule generation idempotent.
func (r *TicketPostgreSQL) ExistsForScheduleOn(ctx context.Context, scheduleID uint, day time.Time) (bool, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("schedule_id = ? AND created_at >= ? AND created_at < ?", scheduleID, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check schedule tickets: %w", err)
	}

	return count > 0, nil
}

func (r *TicketPostgreSQL) GetStats(ctx context.Context) (*repositories.TicketStats, error) {
	stats := &repositories.TicketStats{
		ByPriority: make(map[models.TicketPriority]int),
		ByStatus:   make(map[models.TicketStatus]int),
	}

	type statusCount struct {
		Status models.TicketStatus
		Count  int
	}
	var byStatus []statusCount
	err := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets by status: %w", err)
	}

	for _, sc := range byStatus {
		stats.ByStatus[sc.Status] = sc.Count
		stats.TotalTickets += sc.Count
		switch sc.Status {
		case models.TicketOpen, models.TicketInProgress:
			stats.OpenTickets += sc.Count
		case models.TicketResolved, models.TicketClosed:
			stats.ResolvedTickets += sc.Count
		}
	}

	type priorityCount struct {
		Priority models.TicketPriority
		Count    int
	}
	var byPriority []priorityCount
	err = r.db.WithContext(ctx).Model(&models.Ticket{}).
		Select("priority, count(*) as count").
		Group("priority").
		Scan(&byPriority).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets by priority: %w", err)
	}

	for _, pc := range byPriority {
		stats.ByPriority[pc.Priority] = pc.Count
	}

	return stats, nil
}

// applySort adds an ORDER BY clause restricted to an allow-list of columns.
func applySort(query *gorm.DB, sortBy, sortOrder string, allowed map[string]bool) *gorm.DB {
	if !allowed[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	return query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))
}
