package services

import (
	"sort"
	"strings"
	"time"

	"github.com/alnoor-edu/school-ops-service/internal/models"
)

type AlertKind string

const (
	AlertExpired      AlertKind = "expired"
	AlertExpiringSoon AlertKind = "expiring_soon"
	AlertIncomplete   AlertKind = "data_incomplete"
)

type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

var severityRank = map[AlertSeverity]int{
	SeverityCritical: 3,
	SeverityWarning:  2,
	SeverityInfo:     1,
}

// ComplianceAlert is a derived, ephemeral finding. It has no identity beyond
// its content and is recomputed from the directory on every evaluation pass.
type ComplianceAlert struct {
	Kind         AlertKind     `json:"kind"`
	Severity     AlertSeverity `json:"severity"`
	EmployeeName string        `json:"employee_name"`
	Message      string        `json:"message"`
	Detail       string        `json:"detail"`
}

// Warning windows. Identity-card renewals have more lead time than LMRA
// permit renewals, hence the asymmetry.
const (
	cprWarningMonths  = 3
	visaWarningMonths = 1
)

// ComputeAlerts scans every record and returns findings sorted by severity
// descending; ties keep the record scan order (stable). Records are checked
// independently and a record can produce several alerts at once. Missing or
// malformed fields skip the single check, never abort the pass.
func ComputeAlerts(records []*models.User, asOf time.Time) []ComplianceAlert {
	alerts := make([]ComplianceAlert, 0)

	for _, record := range records {
		if record == nil {
			continue
		}
		alerts = append(alerts, checkCPRExpiry(record, asOf)...)
		alerts = append(alerts, checkVisaExpiry(record, asOf)...)
		alerts = append(alerts, checkIBAN(record)...)
		alerts = append(alerts, checkArabicName(record)...)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank[alerts[i].Severity] > severityRank[alerts[j].Severity]
	})

	return alerts
}

// checkCPRExpiry flags expired or soon-expiring identity cards. A record
// with no expiry on file is silently skipped: absence is not itself an alert.
func checkCPRExpiry(record *models.User, asOf time.Time) []ComplianceAlert {
	if record.CPRExpiry == nil {
		return nil
	}

	expiry := *record.CPRExpiry
	switch {
	case expiry.Before(asOf):
		return []ComplianceAlert{{
			Kind:         AlertExpired,
			Severity:     SeverityCritical,
			EmployeeName: record.DisplayName,
			Message:      "CPR expired",
			Detail:       "CPR expired on " + expiry.Format("2006-01-02"),
		}}
	case expiry.Before(asOf.AddDate(0, cprWarningMonths, 0)):
		return []ComplianceAlert{{
			Kind:         AlertExpiringSoon,
			Severity:     SeverityWarning,
			EmployeeName: record.DisplayName,
			Message:      "CPR expiring soon",
			Detail:       "CPR expires on " + expiry.Format("2006-01-02"),
		}}
	}

	return nil
}

// checkVisaExpiry applies only to foreign nationals; Bahraini staff are not
// subject to LMRA residence permits.
func checkVisaExpiry(record *models.User, asOf time.Time) []ComplianceAlert {
	if record.Nationality == models.BahrainiNationality {
		return nil
	}
	if record.VisaExpiry == nil {
		return nil
	}

	expiry := *record.VisaExpiry
	switch {
	case expiry.Before(asOf):
		return []ComplianceAlert{{
			Kind:         AlertExpired,
			Severity:     SeverityCritical,
			EmployeeName: record.DisplayName,
			Message:      "Residence permit expired",
			Detail:       "Residence permit expired on " + expiry.Format("2006-01-02"),
		}}
	case expiry.Before(asOf.AddDate(0, visaWarningMonths, 0)):
		return []ComplianceAlert{{
			Kind:         AlertExpiringSoon,
			Severity:     SeverityWarning,
			EmployeeName: record.DisplayName,
			Message:      "Residence permit expiring soon",
			Detail:       "Residence permit expires on " + expiry.Format("2006-01-02"),
		}}
	}

	return nil
}

// checkIBAN flags a missing or foreign-prefixed banking identifier; WPS
// filings require a Bahrain-issued IBAN.
func checkIBAN(record *models.User) []ComplianceAlert {
	iban := strings.TrimSpace(record.IBAN)
	if iban != "" && strings.HasPrefix(strings.ToUpper(iban), models.IBANCountryPrefix) {
		return nil
	}

	detail := "no IBAN on file"
	if iban != "" {
		detail = "IBAN does not carry the " + models.IBANCountryPrefix + " prefix"
	}

	return []ComplianceAlert{{
		Kind:         AlertIncomplete,
		Severity:     SeverityInfo,
		EmployeeName: record.DisplayName,
		Message:      "Banking details incomplete",
		Detail:       detail,
	}}
}

// checkArabicName applies only to nationals; government filings require the
// Arabic name for Bahraini staff.
func checkArabicName(record *models.User) []ComplianceAlert {
	if record.Nationality != models.BahrainiNationality {
		return nil
	}
	if strings.TrimSpace(record.ArabicName) != "" {
		return nil
	}

	return []ComplianceAlert{{
		Kind:         AlertIncomplete,
		Severity:     SeverityInfo,
		EmployeeName: record.DisplayName,
		Message:      "Arabic name missing",
		Detail:       "Arabic name is required for GOSI and payroll filings",
	}}
}

// CountBySeverity tallies an alert list for the notification badge.
func CountBySeverity(alerts []ComplianceAlert) map[AlertSeverity]int {
	counts := make(map[AlertSeverity]int, 3)
	for _, alert := range alerts {
		counts[alert.Severity]++
	}
	return counts
}
