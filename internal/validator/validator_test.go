package validator

import (
	"testing"
)

type ibanPayload struct {
	IBAN string `validate:"omitempty,bh_iban"`
}

type leavePayload struct {
	Days int `validate:"required,leave_days"`
}

type rolePayload struct {
	Role string `validate:"required,console_role"`
}

func TestBahrainIBANRule(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		iban  string
		valid bool
	}{
		{"bahrain iban", "BH67BMAG00001299123456", true},
		{"lowercase prefix accepted", "bh67bmag00001299123456", true},
		{"kuwait iban rejected", "KW81CBKU0000000000001234560101", false},
		{"empty passes omitempty semantics", "", true},
		{"whitespace only passes", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(&ibanPayload{IBAN: tt.iban})
			if (len(errs) == 0) != tt.valid {
				t.Errorf("Validate(%q) errors = %v, want valid=%v", tt.iban, errs, tt.valid)
			}
		})
	}
}

func TestLeaveDaysRule(t *testing.T) {
	v := New()

	tests := []struct {
		days  int
		valid bool
	}{
		{1, true},
		{30, true},
		{60, true},
		{61, false},
		{-5, false},
	}
	for _, tt := range tests {
		errs := v.Validate(&leavePayload{Days: tt.days})
		if (len(errs) == 0) != tt.valid {
			t.Errorf("Validate(days=%d) errors = %v, want valid=%v", tt.days, errs, tt.valid)
		}
	}
}

func TestConsoleRoleRule(t *testing.T) {
	v := New()

	for _, role := range []string{"staff", "maintenance", "hr", "admin"} {
		if errs := v.Validate(&rolePayload{Role: role}); len(errs) != 0 {
			t.Errorf("role %q rejected: %v", role, errs)
		}
	}
	for _, role := range []string{"teacher", "superuser", "STAFF"} {
		if errs := v.Validate(&rolePayload{Role: role}); len(errs) == 0 {
			t.Errorf("role %q accepted, want rejection", role)
		}
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	v := New()

	errs := v.Validate(&rolePayload{})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].Rule != "required" {
		t.Errorf("rule = %s, want required", errs[0].Rule)
	}
	if errs.Error() == "" {
		t.Error("Error() must describe the failure")
	}
}
