package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/events"
	"github.com/alnoor-edu/school-ops-service/internal/models"
	"github.com/alnoor-edu/school-ops-service/internal/repositories"
	"github.com/alnoor-edu/school-ops-service/internal/validator"
)

type scheduleService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewScheduleService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ScheduleService {
	return &scheduleService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *scheduleService) Create(ctx context.Context, req *CreateScheduleRequest, creatorID string) (*models.RecurringSchedule, error) {
	s.logger.Info("Creating recurring schedule", "creator_id", creatorID, "title", req.Title, "frequency", req.Frequency)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	if err := validateCadence(req.Frequency, req.Weekdays, req.DayOfMonth); err != nil {
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	schedule := &models.RecurringSchedule{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Frequency:   req.Frequency,
		DayOfMonth:  req.DayOfMonth,
		Priority:    priority,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   creatorID,
		Active:      true,
	}

	if len(req.Weekdays) > 0 {
		days, err := json.Marshal(req.Weekdays)
		if err != nil {
			return nil, fmt.Errorf("failed to encode weekdays: %w", err)
		}
		schedule.Weekdays = days
	}

	next, err := NextOccurrence(schedule, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	schedule.NextDueAt = &next

	if err := s.repo.Schedule().Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.logger.Info("Schedule created successfully", "schedule_id", schedule.ID, "next_due_at", next)
	return schedule, nil
}

func (s *scheduleService) GetByID(ctx context.Context, id uint) (*models.RecurringSchedule, error) {
	schedule, err := s.repo.Schedule().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrScheduleNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) Update(ctx context.Context, id uint, req *UpdateScheduleRequest) (*models.RecurringSchedule, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	schedule, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		schedule.Title = *req.Title
	}
	if req.Description != nil {
		schedule.Description = *req.Description
	}
	if req.Location != nil {
		schedule.Location = *req.Location
	}
	if req.Priority != nil {
		schedule.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			schedule.AssigneeID = nil
		} else {
			schedule.AssigneeID = req.AssigneeID
		}
	}
	if req.Active != nil {
		schedule.Active = *req.Active
		if *req.Active && schedule.NextDueAt == nil {
			next, err := NextOccurrence(schedule, time.Now().UTC())
			if err != nil {
				return nil, err
			}
			schedule.NextDueAt = &next
		}
	}

	if err := s.repo.Schedule().Update(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	return schedule, nil
}

func (s *scheduleService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Schedule().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrScheduleNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("Schedule deleted", "schedule_id", id)
	return nil
}

func (s *scheduleService) List(ctx context.Context, filters repositories.ScheduleFilters) (*ScheduleListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	schedules, total, err := s.repo.Schedule().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	return &ScheduleListResponse{Schedules: schedules, Total: total}, nil
}

// ===== TICKET GENERATION =====

// GenerateDueTickets materializes one ticket per due schedule. A schedule
// that already has a ticket for the day is skipped, so the pass can run any
// number of times without duplicating work.
func (s *scheduleService) GenerateDueTickets(ctx context.Context, asOf time.Time) (int, error) {
	due, err := s.repo.Schedule().ListDue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list due schedules: %w", err)
	}

	created := 0
	for _, schedule := range due {
		exists, err := s.repo.Ticket().ExistsForScheduleOn(ctx, schedule.ID, asOf)
		if err != nil {
			s.logger.Error("Generation existence check failed", "schedule_id", schedule.ID, "error", err)
			continue
		}
		if exists {
			s.logger.Debug("Ticket already generated for schedule today", "schedule_id", schedule.ID)
		} else {
			ticket := ticketFromSchedule(schedule)
			if err := s.repo.Ticket().Create(ctx, ticket); err != nil {
				s.logger.Error("Failed to create generated ticket", "schedule_id", schedule.ID, "error", err)
				continue
			}
			s.publishEvent(ctx, events.EventTicketCreated, ticket)
			created++
		}

		// Advance the schedule even when the ticket already existed, so a
		// crashed pass never leaves the schedule stuck as permanently due.
		now := asOf
		schedule.LastGeneratedAt = &now
		next, err := NextOccurrence(schedule, asOf)
		if err != nil {
			s.logger.Error("Failed to compute next occurrence", "schedule_id", schedule.ID, "error", err)
			continue
		}
		schedule.NextDueAt = &next
		if err := s.repo.Schedule().Update(ctx, schedule); err != nil {
			s.logger.Error("Failed to advance schedule", "schedule_id", schedule.ID, "error", err)
		}
	}

	if created > 0 {
		s.logger.Info("Generated tickets from due schedules", "created", created, "due", len(due))
	}
	return created, nil
}

func ticketFromSchedule(schedule *models.RecurringSchedule) *models.Ticket {
	return &models.Ticket{
		Title:       schedule.Title,
		Description: schedule.Description,
		Location:    schedule.Location,
		Status:      models.TicketOpen,
		Priority:    schedule.Priority,
		ReporterID:  schedule.CreatedBy,
		AssigneeID:  schedule.AssigneeID,
		ScheduleID:  &schedule.ID,
	}
}

func (s *scheduleService) publishEvent(ctx context.Context, eventType string, ticket *models.Ticket) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, ticket)); err != nil {
		s.logger.Warn("Failed to publish ticket event", "event_type", eventType, "ticket_id", ticket.ID, "error", err)
	}
}

// ===== CADENCE COMPUTATION =====

func validateCadence(freq models.ScheduleFrequency, weekdays []time.Weekday, dayOfMonth int) error {
	switch freq {
	case models.FrequencyDaily:
		return nil
	case models.FrequencyWeekly:
		if len(weekdays) == 0 {
			return fmt.Errorf("weekly schedules require at least one weekday")
		}
		return nil
	case models.FrequencyMonthly:
		if dayOfMonth < 1 || dayOfMonth > 28 {
			return fmt.Errorf("monthly schedules require a day of month between 1 and 28")
		}
		return nil
	}
	return fmt.Errorf("unknown frequency %q", freq)
}

// NextOccurrence computes the first date strictly after the given instant on
// which the schedule fires. Results are normalized to midnight UTC; the
// generation pass itself decides the time of day work gets raised.
func NextOccurrence(schedule *models.RecurringSchedule, after time.Time) (time.Time, error) {
	day := time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, time.UTC)

	switch schedule.Frequency {
	case models.FrequencyDaily:
		return day.AddDate(0, 0, 1), nil

	case models.FrequencyWeekly:
		var weekdays []time.Weekday
		if err := json.Unmarshal(schedule.Weekdays, &weekdays); err != nil {
			return time.Time{}, fmt.Errorf("failed to decode schedule weekdays: %w", err)
		}
		if len(weekdays) == 0 {
			return time.Time{}, fmt.Errorf("weekly schedule %d has no weekdays", schedule.ID)
		}
		allowed := make(map[time.Weekday]bool, len(weekdays))
		for _, wd := range weekdays {
			allowed[wd] = true
		}
		for i := 1; i <= 7; i++ {
			candidate := day.AddDate(0, 0, i)
			if allowed[candidate.Weekday()] {
				return candidate, nil
			}
		}
		return time.Time{}, fmt.Errorf("weekly schedule %d has no valid weekday", schedule.ID)

	case models.FrequencyMonthly:
		candidate := time.Date(day.Year(), day.Month(), schedule.DayOfMonth, 0, 0, 0, 0, time.UTC)
		if !candidate.After(day) {
			candidate = time.Date(day.Year(), day.Month()+1, schedule.DayOfMonth, 0, 0, 0, 0, time.UTC)
		}
		return candidate, nil
	}

	return time.Time{}, fmt.Errorf("unknown frequency %q", schedule.Frequency)
}
