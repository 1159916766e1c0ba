package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alnoor-edu/school-ops-service/internal/models"
)

// Validator wraps go-playground struct validation plus the console's
// business rules.
type Validator struct {
	validate *validator.Validate
}

// ValidationError is one failed field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

func New() *Validator {
	v := &Validator{validate: validator.New()}
	v.registerBusinessRules()
	return v
}

// Validate validates a struct against its tags.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	var errs ValidationErrors

	err := v.validate.Struct(s)
	if err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			errs = append(errs, ValidationError{
				Field:   fe.Field(),
				Message: v.getErrorMessage(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
	}

	return errs
}

func (v *Validator) registerBusinessRules() {
	// Bahrain-issued IBANs carry the BH country prefix. Empty passes here;
	// required-ness is a separate tag.
	v.validate.RegisterValidation("bh_iban", func(fl validator.FieldLevel) bool {
		iban := strings.TrimSpace(fl.Field().String())
		if iban == "" {
			return true
		}
		return strings.HasPrefix(strings.ToUpper(iban), models.IBANCountryPrefix)
	})

	// Leave requests span 1-60 days.
	v.validate.RegisterValidation("leave_days", func(fl validator.FieldLevel) bool {
		days := fl.Field().Int()
		return days >= 1 && days <= 60
	})

	v.validate.RegisterValidation("console_role", func(fl validator.FieldLevel) bool {
		switch models.UserRole(fl.Field().String()) {
		case models.RoleStaff, models.RoleMaintenance, models.RoleHR, models.RoleAdmin:
			return true
		}
		return false
	})

	v.validate.RegisterValidation("not_past_date", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		today := time.Now().Truncate(24 * time.Hour)
		return !t.Before(today)
	})
}

func (v *Validator) getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "bh_iban":
		return fmt.Sprintf("must start with the %s country prefix", models.IBANCountryPrefix)
	case "leave_days":
		return "must request between 1 and 60 days"
	case "console_role":
		return "must be a recognized role"
	case "not_past_date":
		return "must not be in the past"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
