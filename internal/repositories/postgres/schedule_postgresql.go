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

type SchedulePostgreSQL struct {
	db *gorm.DB
}

func NewSchedulePostgreSQL(db *gorm.DB) repositories.ScheduleRepository {
	return &SchedulePostgreSQL{db: db}
}

func (r *SchedulePostgreSQL) Create(ctx context.Context, schedule *models.RecurringSchedule) error {
	if err := r.db.WithContext(ctx).Create(schedule).Error; err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *SchedulePostgreSQL) GetByID(ctx context.Context, id uint) (*models.RecurringSchedule, error) {
	var schedule models.RecurringSchedule
	err := r.db.WithContext(ctx).First(&schedule, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (r *SchedulePostgreSQL) Update(ctx context.Context, schedule *models.RecurringSchedule) error {
	if err := r.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

func (r *SchedulePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.RecurringSchedule{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete schedule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrScheduleNotFound
	}
	return nil
}

func (r *SchedulePostgreSQL) List(ctx context.Context, filters repositories.ScheduleFilters) ([]*models.RecurringSchedule, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RecurringSchedule{})

	if filters.Active != nil {
		query = query.Where("active = ?", *filters.Active)
	}
	if filters.DueBefore != nil {
		query = query.Where("next_due_at <= ?", *filters.DueBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count schedules: %w", err)
	}

	query = query.Order("created_at desc")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var schedules []*models.RecurringSchedule
	if err := query.Find(&schedules).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
	}

	return schedules, total, nil
}

// ListDue returns active schedules whose next due time has passed.
func (r *SchedulePostgreSQL) ListDue(ctx context.Context, asOf time.Time) ([]*models.RecurringSchedule, error) {
	var schedules []*models.RecurringSchedule
	err := r.db.WithContext(ctx).
		Where("active = ? AND next_due_at IS NOT NULL AND next_due_at <= ?", true, asOf).
		Order("next_due_at asc").
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	return schedules, nil
}
