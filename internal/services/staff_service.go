package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/alnoor-edu/school-ops-service/internal/events"
	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

type staffService struct {
	repo            repositories.Repository
	publisher       events.EventPublisher
	logger          *slog.Logger
	validator       *validator.Validator
	superAdminEmail string
}

func NewStaffService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, superAdminEmail string) StaffService {
	return &staffService{
		repo:            repo,
		publisher:       publisher,
		logger:          logger,
		validator:       validator,
		superAdminEmail: strings.ToLower(superAdminEmail),
	}
}

// ===== REGISTRATION =====

// Register creates the directory record and then waits for it to become
// readable before returning, so the caller never races its own signup.
// New accounts start pending; the configured super-admin email is the one
// bootstrap exception and comes up approved with the admin role.
func (s *staffService) Register(ctx context.Context, req *RegisterStaffRequest) (*models.User, error) {
	s.logger.Info("Registering staff account", "email", req.Email)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, err := s.repo.User().GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	user := &models.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: req.DisplayName,
		Nationality: req.Nationality,
		ArabicName:  req.ArabicName,
		Role:        models.RoleStaff,
		Status:      models.StatusPending,
	}
	if email == s.superAdminEmail && s.superAdminEmail != "" {
		user.Role = models.RoleAdmin
		user.Status = models.StatusApproved
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create directory record: %w", err)
	}

	created, err := s.repo.User().WaitForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrDirectoryTimeout) {
			s.logger.Error("Directory record did not become readable", "email", email, "error", err)
			return nil, err
		}
		return nil, fmt.Errorf("failed to confirm directory record: %w", err)
	}

	s.logger.Info("Staff account registered", "user_id", created.ID, "status", created.Status)
	return created, nil
}

func (s *staffService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetVisible serves a direct read of a record through the same visibility
// matrix as the list. Self-reads always pass. A record outside the viewer's
// visibility reads as not found rather than forbidden, and the HR document
// fields are withheld from viewers without management rights.
func (s *staffService) GetVisible(ctx context.Context, userID, viewerID string, viewerRole models.UserRole) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID == userID {
		return user, nil
	}
	if !CanViewRole(viewerRole, user.EffectiveRole()) {
		return nil, ErrNotFound
	}
	if !CanManageStaff(viewerRole) {
		redacted := *user
		redacted.CPRExpiry = nil
		redacted.VisaExpiry = nil
		redacted.IBAN = ""
		return &redacted, nil
	}
	return user, nil
}

// UpdateProfile lets a user edit their own record; HR fields on someone
// else's record require management rights.
func (s *staffService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest, actorID string, actorRole models.UserRole) (*models.User, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if actorID != userID && !CanManageStaff(actorRole) {
		return nil, NewPermissionError(actorID, 0, "staff", "update", "not the record owner and not hr or admin")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Nationality != nil {
		user.Nationality = *req.Nationality
	}
	if req.CPRExpiry != nil {
		user.CPRExpiry = req.CPRExpiry
	}
	if req.VisaExpiry != nil {
		user.VisaExpiry = req.VisaExpiry
	}
	if req.IBAN != nil {
		user.IBAN = *req.IBAN
	}
	if req.ArabicName != nil {
		user.ArabicName = *req.ArabicName
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update directory record: %w", err)
	}

	s.logger.Info("Staff profile updated", "user_id", userID, "actor_id", actorID)
	return user, nil
}

// ===== LISTING =====

// ListVisible applies the role visibility matrix after the directory query.
// The reported total counts visible records only; directory pagination is
// deliberately coarse because the matrix filter runs in memory.
func (s *staffService) ListVisible(ctx context.Context, viewerRole models.UserRole, filters repositories.UserFilters) (*StaffListResponse, error) {
	users, _, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	visible := ResolveVisible(viewerRole, users)
	return &StaffListResponse{
		Users:     visible,
		Total:     int64(len(visible)),
		CanManage: CanManageStaff(viewerRole),
	}, nil
}

// ===== MANAGEMENT ACTIONS =====

func (s *staffService) Approve(ctx context.Context, userID string, actorRole models.UserRole) (*models.User, error) {
	user, err := s.setStatus(ctx, userID, models.StatusApproved, actorRole, "approve")
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewEvent(events.EventStaffApproved, user)); err != nil {
			s.logger.Warn("Failed to publish staff event", "user_id", userID, "error", err)
		}
	}
	return user, nil
}

func (s *staffService) Block(ctx context.Context, userID string, actorRole models.UserRole) (*models.User, error) {
	return s.setStatus(ctx, userID, models.StatusBlocked, actorRole, "block")
}

func (s *staffService) setStatus(ctx context.Context, userID string, status models.UserStatus, actorRole models.UserRole, action string) (*models.User, error) {
	if !CanManageStaff(actorRole) {
		return nil, NewPermissionError(userID, 0, "staff", action, "requires hr or admin role")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Status = status
	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update directory record: %w", err)
	}

	s.logger.Info("Staff status changed", "user_id", userID, "status", status)
	return user, nil
}

func (s *staffService) ChangeRole(ctx context.Context, userID string, req *ChangeRoleRequest, actorRole models.UserRole) (*models.User, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	// Role grants are admin-only; HR manages records but not privileges.
	if actorRole != models.RoleAdmin {
		return nil, NewPermissionError(userID, 0, "staff", "change_role", "requires admin role")
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = models.NormalizeRole(string(req.Role))
	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update directory record: %w", err)
	}

	s.logger.Info("Staff role changed", "user_id", userID, "role", user.Role)
	return user, nil
}
