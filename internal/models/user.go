package models

import (
	"time"
)

type UserRole string

const (
	RoleStaff       UserRole = "staff"
	RoleMaintenance UserRole = "maintenance"
	RoleHR          UserRole = "hr"
	RoleAdmin       UserRole = "admin"
)

// NormalizeRole maps an arbitrary role string onto the closed role set,
// defaulting to staff for anything unrecognized or empty.
func NormalizeRole(role string) UserRole {
	switch UserRole(role) {
	case RoleStaff, RoleMaintenance, RoleHR, RoleAdmin:
		return UserRole(role)
	default:
		return RoleStaff
	}
}

type UserStatus string

const (
	StatusPending  UserStatus = "pending"
	StatusApproved UserStatus = "approved"
	StatusBlocked  UserStatus = "blocked"
)

// BahrainiNationality is the literal nationality value that switches the
// residence-permit and Arabic-name compliance rules on and off.
const BahrainiNationality = "Bahraini"

// IBANCountryPrefix is required on banking identifiers for WPS filing.
const IBANCountryPrefix = "BH"

// User is a person in the organization. The record of truth lives in the
// Casdoor directory; HR fields ride along in the Casdoor user properties.
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	Role        UserRole   `json:"role"`
	Status      UserStatus `json:"status"`

	// HR / compliance profile
	Nationality string     `json:"nationality"`
	CPRExpiry   *time.Time `json:"cpr_expiry,omitempty"`
	VisaExpiry  *time.Time `json:"visa_expiry,omitempty"`
	IBAN        string     `json:"iban"`
	ArabicName  string     `json:"arabic_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveRole returns the record's role, defaulting to staff when unset.
func (u *User) EffectiveRole() UserRole {
	if u.Role == "" {
		return RoleStaff
	}
	return u.Role
}

func (u *User) IsApproved() bool {
	return u.Status == StatusApproved
}
