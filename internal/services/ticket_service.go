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

type ticketService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTicketService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) TicketService {
	return &ticketService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *ticketService) Create(ctx context.Context, req *CreateTicketRequest, reporterID string) (*models.Ticket, error) {
	s.logger.Info("Creating ticket", "reporter_id", reporterID, "title", req.Title)

	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	ticket := &models.Ticket{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Status:      models.TicketOpen,
		Priority:    priority,
		ReporterID:  reporterID,
	}

	if len(req.PhotoURLs) > 0 {
		urls, err := json.Marshal(req.PhotoURLs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode photo URLs: %w", err)
		}
		ticket.PhotoURLs = urls
	}

	if err := s.repo.Ticket().Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.publishEvent(ctx, events.EventTicketCreated, ticket)
	s.logger.Info("Ticket created successfully", "ticket_id", ticket.ID)

	return ticket, nil
}

func (s *ticketService) GetByID(ctx context.Context, id uint) (*models.Ticket, error) {
	ticket, err := s.repo.Ticket().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTicketNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *ticketService) Update(ctx context.Context, id uint, req *UpdateTicketRequest) (*models.Ticket, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	ticket, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		ticket.Title = *req.Title
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.Location != nil {
		ticket.Location = *req.Location
	}
	if req.Priority != nil {
		// Manual priority edits are refused while escalated; the tag owns
		// the priority until de-escalation restores it.
		if ticket.Escalated {
			return nil, ErrAlreadyEscalated
		}
		ticket.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			ticket.AssigneeID = nil
		} else {
			if _, err := s.repo.User().GetByID(ctx, *req.AssigneeID); err != nil {
				return nil, fmt.Errorf("assignee lookup failed: %w", err)
			}
			ticket.AssigneeID = req.AssigneeID
		}
	}

	if err := s.repo.Ticket().Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	return ticket, nil
}

func (s *ticketService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Ticket().Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTicketNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("Ticket deleted", "ticket_id", id)
	return nil
}

func (s *ticketService) List(ctx context.Context, filters repositories.TicketFilters) (*TicketListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	tickets, total, err := s.repo.Ticket().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	page := filters.Offset/filters.Limit + 1
	return &TicketListResponse{
		Tickets: tickets,
		Total:   total,
		Page:    page,
		Size:    filters.Limit,
	}, nil
}

// ===== LIFECYCLE OPERATIONS =====

func (s *ticketService) UpdateStatus(ctx context.Context, id uint, req *UpdateTicketStatusRequest, actorID string) (*models.Ticket, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	ticket, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ticket.CanTransition(req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ticket.Status, req.Status)
	}

	ticket.Status = req.Status
	if req.Status == models.TicketResolved {
		now := time.Now().UTC()
		ticket.ResolvedAt = &now
	}

	if err := s.repo.Ticket().Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	if req.Status == models.TicketResolved {
		s.publishEvent(ctx, events.EventTicketResolved, ticket)
	}

	s.logger.Info("Ticket status updated", "ticket_id", id, "status", req.Status, "actor_id", actorID)
	return ticket, nil
}

func (s *ticketService) Escalate(ctx context.Context, id uint, actorID string) (*models.Ticket, error) {
	ticket, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ticket.Escalate(); err != nil {
		return nil, ErrAlreadyEscalated
	}

	if err := s.repo.Ticket().Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to escalate ticket: %w", err)
	}

	s.publishEvent(ctx, events.EventTicketEscalated, ticket)
	s.logger.Info("Ticket escalated", "ticket_id", id, "actor_id", actorID, "prior_priority", *ticket.PriorPriority)

	return ticket, nil
}

func (s *ticketService) Deescalate(ctx context.Context, id uint, actorID string) (*models.Ticket, error) {
	ticket, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ticket.Deescalate(); err != nil {
		return nil, ErrNotEscalated
	}

	if err := s.repo.Ticket().Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to de-escalate ticket: %w", err)
	}

	s.logger.Info("Ticket de-escalated", "ticket_id", id, "actor_id", actorID, "restored_priority", ticket.Priority)
	return ticket, nil
}

// publishEvent fires and forgets; a bus outage never fails the write that
// already committed.
func (s *ticketService) publishEvent(ctx context.Context, eventType string, ticket *models.Ticket) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, ticket)); err != nil {
		s.logger.Warn("Failed to publish ticket event", "event_type", eventType, "ticket_id", ticket.ID, "error", err)
	}
}
