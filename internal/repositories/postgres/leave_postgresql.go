package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
)

type LeavePostgreSQL struct {
	db *gorm.DB
}

func NewLeavePostgreSQL(db *gorm.DB) repositories.LeaveRepository {
	return &LeavePostgreSQL{db: db}
}

func (r *LeavePostgreSQL) CreateRequest(ctx context.Context, req *models.LeaveRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to create leave request: %w", err)
	}
	return nil
}

func (r *LeavePostgreSQL) GetRequestByID(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	var req models.LeaveRequest
	err := r.db.WithContext(ctx).First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrLeaveRequestNotFound
		}
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}
	return &req, nil
}

func (r *LeavePostgreSQL) UpdateRequest(ctx context.Context, req *models.LeaveRequest) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	return nil
}

func (r *LeavePostgreSQL) ListRequests(ctx context.Context, filters repositories.LeaveFilters) ([]*models.LeaveRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LeaveRequest{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filters.EmployeeID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	query = query.Order("created_at desc")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit).Offset(filters.Offset)
	}

	var requests []*models.LeaveRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list leave requests: %w", err)
	}

	return requests, total, nil
}

// GetBalance returns the employee's balance row, creating a zero balance on
// first sight so callers never deal with a missing row.
func (r *LeavePostgreSQL) GetBalance(ctx context.Context, employeeID string) (*models.LeaveBalance, error) {
	var balance models.LeaveBalance
	err := r.db.WithContext(ctx).First(&balance, "employee_id = ?", employeeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			balance = models.LeaveBalance{EmployeeID: employeeID, Days: 0}
			if err := r.db.WithContext(ctx).Create(&balance).Error; err != nil {
				return nil, fmt.Errorf("failed to initialize leave balance: %w", err)
			}
			return &balance, nil
		}
		return nil, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return &balance, nil
}

func (r *LeavePostgreSQL) SaveBalance(ctx context.Context, balance *models.LeaveBalance) error {
	if err := r.db.WithContext(ctx).Save(balance).Error; err != nil {
		return fmt.Errorf("failed to save leave balance: %w", err)
	}
	return nil
}

func (r *LeavePostgreSQL) GetStats(ctx context.Context) (*repositories.LeaveStats, error) {
	stats := &repositories.LeaveStats{}

	type statusCount struct {
		Status models.LeaveStatus
		Count  int
	}
	var counts []statusCount
	err := r.db.WithContext(ctx).Model(&models.LeaveRequest{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count leave requests: %w", err)
	}

	for _, sc := range counts {
		switch sc.Status {
		case models.LeavePending:
			stats.PendingRequests = sc.Count
		case models.LeaveApproved:
			stats.ApprovedRequests = sc.Count
		case models.LeaveRejected:
			stats.RejectedRequests = sc.Count
		}
	}

	return stats, nil
}
