package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/events"
	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

type leaveService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewLeaveService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) LeaveService {
	return &leaveService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== SUBMISSION =====

func (s *leaveService) Submit(ctx context.Context, req *SubmitLeaveRequest, employeeID string) (*models.LeaveRequest, error) {
	s.logger.Info("Submitting leave request", "employee_id", employeeID, "type", req.Type, "days", req.DaysRequested)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("end date precedes start date")
	}

	// Paid leave is refused up front when it exceeds the balance. Unpaid
	// leave never draws on the balance, so no check applies.
	if req.Type != models.LeaveUnpaid {
		balance, err := s.repo.Leave().GetBalance(ctx, employeeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load leave balance: %w", err)
		}
		if req.DaysRequested > balance.Days {
			return nil, fmt.Errorf("%w: requested %d, balance %d", ErrInsufficientBalance, req.DaysRequested, balance.Days)
		}
	}

	request := &models.LeaveRequest{
		EmployeeID:    employeeID,
		Type:          req.Type,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DaysRequested: req.DaysRequested,
		Reason:        req.Reason,
		Status:        models.LeavePending,
	}

	if err := s.repo.Leave().CreateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create leave request: %w", err)
	}

	s.logger.Info("Leave request submitted", "request_id", request.ID, "employee_id", employeeID)
	return request, nil
}

// GetByID serves a single request. Non-managers only ever see their own;
// someone else's request reads as not found rather than forbidden, so the
// endpoint leaks neither the record nor its existence.
func (s *leaveService) GetByID(ctx context.Context, id uint, actorID string, actorRole models.UserRole) (*models.LeaveRequest, error) {
	request, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.EmployeeID != actorID && !CanManageStaff(actorRole) {
		return nil, ErrNotFound
	}
	return request, nil
}

func (s *leaveService) getRequest(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	request, err := s.repo.Leave().GetRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeaveRequestNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *leaveService) List(ctx context.Context, filters repositories.LeaveFilters) (*LeaveListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	requests, total, err := s.repo.Leave().ListRequests(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	return &LeaveListResponse{Requests: requests, Total: total}, nil
}

// ===== BALANCES =====

func (s *leaveService) GetBalance(ctx context.Context, employeeID string) (*models.LeaveBalance, error) {
	balance, err := s.repo.Leave().GetBalance(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leave balance: %w", err)
	}
	return balance, nil
}

func (s *leaveService) SetBalance(ctx context.Context, employeeID string, days int, actorRole models.UserRole) (*models.LeaveBalance, error) {
	if !CanManageStaff(actorRole) {
		return nil, NewPermissionError(employeeID, 0, "leave_balance", "set", "requires hr or admin role")
	}
	if days < 0 {
		return nil, fmt.Errorf("balance cannot be negative")
	}

	balance, err := s.repo.Leave().GetBalance(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leave balance: %w", err)
	}

	balance.Days = days
	if err := s.repo.Leave().SaveBalance(ctx, balance); err != nil {
		return nil, fmt.Errorf("failed to save leave balance: %w", err)
	}

	s.logger.Info("Leave balance set", "employee_id", employeeID, "days", days)
	return balance, nil
}

// ===== DECISIONS =====

// Approve marks the request approved and deducts it from the balance in one
// transaction. The balance may have shrunk since submission; the deduction
// clamps at zero rather than failing the approval.
func (s *leaveService) Approve(ctx context.Context, requestID uint, reviewerID string) (*LeaveDecisionResponse, error) {
	var request *models.LeaveRequest
	var balance *models.LeaveBalance

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		request, err = txRepo.Leave().GetRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, repositories.ErrLeaveRequestNotFound) {
				return ErrNotFound
			}
			return err
		}
		if request.Status != models.LeavePending {
			return ErrAlreadyDecided
		}

		now := time.Now().UTC()
		request.Status = models.LeaveApproved
		request.ReviewerID = &reviewerID
		request.DecidedAt = &now
		if err := txRepo.Leave().UpdateRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}

		if request.Type == models.LeaveUnpaid {
			balance, err = txRepo.Leave().GetBalance(ctx, request.EmployeeID)
			if err != nil {
				return fmt.Errorf("failed to load leave balance: %w", err)
			}
			return nil
		}

		balance, err = txRepo.Leave().GetBalance(ctx, request.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to load leave balance: %w", err)
		}
		balance.DeductDays(request.DaysRequested)
		if err := txRepo.Leave().SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("failed to save leave balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventLeaveApproved, request)
	s.logger.Info("Leave request approved", "request_id", requestID, "reviewer_id", reviewerID, "new_balance", balance.Days)

	return &LeaveDecisionResponse{Request: request, NewBalance: balance.Days}, nil
}

func (s *leaveService) Reject(ctx context.Context, requestID uint, reviewerID string) (*models.LeaveRequest, error) {
	request, err := s.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.LeavePending {
		return nil, ErrAlreadyDecided
	}

	now := time.Now().UTC()
	request.Status = models.LeaveRejected
	request.ReviewerID = &reviewerID
	request.DecidedAt = &now

	if err := s.repo.Leave().UpdateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update leave request: %w", err)
	}

	s.publishEvent(ctx, events.EventLeaveRejected, request)
	s.logger.Info("Leave request rejected", "request_id", requestID, "reviewer_id", reviewerID)

	return request, nil
}

func (s *leaveService) publishEvent(ctx context.Context, eventType string, request *models.LeaveRequest) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, request)); err != nil {
		s.logger.Warn("Failed to publish leave event", "event_type", eventType, "request_id", request.ID, "error", err)
	}
}
