package models

import (
	"time"

	"gorm.io/gorm"
)

type LeaveType string

const (
	LeaveAnnual LeaveType = "annual"
	LeaveSick   LeaveType = "sick"
	LeaveUnpaid LeaveType = "unpaid"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest is an employee's request to draw against their leave balance.
type LeaveRequest struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	EmployeeID    string      `json:"employee_id" gorm:"not null;size:255;index"`
	Type          LeaveType   `json:"type" gorm:"not null;size:20"`
	StartDate     time.Time   `json:"start_date" gorm:"not null"`
	EndDate       time.Time   `json:"end_date" gorm:"not null"`
	DaysRequested int         `json:"days_requested" gorm:"not null"`
	Reason        string      `json:"reason" gorm:"size:1000"`
	Status        LeaveStatus `json:"status" gorm:"not null;size:20;default:'pending';index"`

	ReviewerID *string    `json:"reviewer_id,omitempty" gorm:"size:255"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// LeaveBalance tracks remaining paid leave days per employee.
type LeaveBalance struct {
	EmployeeID string    `json:"employee_id" gorm:"primaryKey;size:255"`
	Days       int       `json:"days" gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// DeductDays applies an approved request to the balance, clamping at zero so
// an over-balance approval never drives the balance negative.
func (b *LeaveBalance) DeductDays(days int) {
	b.Days -= days
	if b.Days < 0 {
		b.Days = 0
	}
}
