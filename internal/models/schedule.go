package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScheduleFrequency string

const (
	FrequencyDaily   ScheduleFrequency = "daily"
	FrequencyWeekly  ScheduleFrequency = "weekly"
	FrequencyMonthly ScheduleFrequency = "monthly"
)

// RecurringSchedule describes a maintenance task that is materialized into
// tickets on a fixed cadence.
type RecurringSchedule struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	Title       string            `json:"title" gorm:"not null;size:200"`
	Description string            `json:"description" gorm:"size:2000"`
	Location    string            `json:"location" gorm:"size:200"`
	Frequency   ScheduleFrequency `json:"frequency" gorm:"not null;size:20"`

	// Weekdays holds a JSON array of time.Weekday ints, weekly schedules only.
	Weekdays datatypes.JSON `json:"weekdays,omitempty"`

	// DayOfMonth is 1-28, monthly schedules only.
	DayOfMonth int `json:"day_of_month,omitempty"`

	Priority   TicketPriority `json:"priority" gorm:"not null;size:20;default:'medium'"`
	AssigneeID *string        `json:"assignee_id,omitempty" gorm:"size:255"`
	CreatedBy  string         `json:"created_by" gorm:"not null;size:255"`
	Active     bool           `json:"active" gorm:"default:true;index"`

	LastGeneratedAt *time.Time `json:"last_generated_at,omitempty"`
	NextDueAt       *time.Time `json:"next_due_at,omitempty" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (RecurringSchedule) TableName() string {
	return "recurring_schedules"
}
