package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// Ticket is a maintenance request raised against a campus location.
type Ticket struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"not null;size:200"`
	Description string         `json:"description" gorm:"size:2000"`
	Location    string         `json:"location" gorm:"size:200"`
	Status      TicketStatus   `json:"status" gorm:"not null;size:20;default:'open';index"`
	Priority    TicketPriority `json:"priority" gorm:"not null;size:20;default:'medium'"`

	// Escalation is an explicit two-state tag: when Escalated is set the
	// priority has been forced to urgent and PriorPriority holds the value
	// to restore on de-escalation.
	Escalated     bool            `json:"escalated" gorm:"default:false"`
	PriorPriority *TicketPriority `json:"prior_priority,omitempty" gorm:"size:20"`

	ReporterID string  `json:"reporter_id" gorm:"not null;size:255;index"`
	AssigneeID *string `json:"assignee_id,omitempty" gorm:"size:255;index"`

	// URLs into the external blob store; the service never touches the bytes.
	PhotoURLs datatypes.JSON `json:"photo_urls,omitempty"`

	// Set when the ticket was materialized from a recurring schedule.
	ScheduleID *uint `json:"schedule_id,omitempty" gorm:"index"`

	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// Escalate forces the ticket to urgent, remembering the prior priority.
// A second escalation is rejected rather than overwriting the stored value.
func (t *Ticket) Escalate() error {
	if t.Escalated {
		return fmt.Errorf("ticket %d is already escalated", t.ID)
	}
	prior := t.Priority
	t.PriorPriority = &prior
	t.Priority = PriorityUrgent
	t.Escalated = true
	return nil
}

// Deescalate restores the priority stored at escalation time and clears the tag.
func (t *Ticket) Deescalate() error {
	if !t.Escalated {
		return fmt.Errorf("ticket %d is not escalated", t.ID)
	}
	if t.PriorPriority != nil {
		t.Priority = *t.PriorPriority
	} else {
		t.Priority = PriorityMedium
	}
	t.PriorPriority = nil
	t.Escalated = false
	return nil
}

// CanTransition reports whether a status change is part of the ticket lifecycle.
func (t *Ticket) CanTransition(next TicketStatus) bool {
	switch t.Status {
	case TicketOpen:
		return next == TicketInProgress || next == TicketResolved || next == TicketClosed
	case TicketInProgress:
		return next == TicketResolved || next == TicketOpen
	case TicketResolved:
		return next == TicketClosed || next == TicketOpen
	case TicketClosed:
		return false
	}
	return false
}
