// Package escalation routes discharge issues to the department queues that
// can resolve them and derives the patient-facing notifications.
package escalation

import (
	"time"

	"clearpath/internal/domain"
)

// Priority orders escalation alerts for department queues.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// priorityRank orders priorities for highest-priority selection; lower is hotter.
func priorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	default:
		return 3
	}
}

// PriorityFromSeverity maps issue severity onto alert priority.
func PriorityFromSeverity(s domain.Severity) Priority {
	switch s {
	case domain.SeverityCritical:
		return PriorityUrgent
	case domain.SeverityHigh:
		return PriorityHigh
	case domain.SeverityLow:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Alert is one department-routed notification derived from an issue.
type Alert struct {
	AlertID         string         `json:"alert_id"`
	PatientID       string         `json:"patient_id"`
	Department      string         `json:"department"`
	Priority        Priority       `json:"priority"`
	IssueCode       string         `json:"issue_code"`
	Title           string         `json:"issue_title"`
	Message         string         `json:"message"`
	SuggestedAction string         `json:"suggested_action"`
	Evidence        []string       `json:"evidence"`
	Data            map[string]any `json:"data,omitempty"`
	CreatedAt       time.Time      `json:"escalated_at"`
	Status          string         `json:"status"`
}

// DepartmentBatch groups one run's alerts for a single department.
type DepartmentBatch struct {
	Department      string    `json:"department"`
	PatientID       string    `json:"patient_id"`
	Alerts          []Alert   `json:"alerts"`
	TotalAlerts     int       `json:"total_alerts"`
	HighestPriority Priority  `json:"highest_priority"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Notification is the patient-facing rendering of an urgent/high alert.
type Notification struct {
	Priority       Priority `json:"priority"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	ActionRequired string   `json:"action_required"`
	Department     string   `json:"department"`
}

// NotificationBatch collects one run's patient notifications.
type NotificationBatch struct {
	PatientID          string         `json:"patient_id"`
	Notifications      []Notification `json:"notifications"`
	TotalNotifications int            `json:"total_notifications"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// Summary aggregates a run's escalation activity.
type Summary struct {
	PatientID            string           `json:"patient_id"`
	Outcome              domain.Outcome   `json:"final_decision"`
	TotalAlerts          int              `json:"total_alerts"`
	AlertsByPriority     map[Priority]int `json:"alerts_by_priority"`
	DepartmentsInvolved  []string         `json:"departments_involved"`
	DepartmentAlertCount map[string]int   `json:"department_summary"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

// Bundle is everything one run escalated. Empty (no batches, no artifacts)
// when the run produced no issues.
type Bundle struct {
	Departments   []DepartmentBatch  `json:"departments"`
	Notifications *NotificationBatch `json:"notifications,omitempty"`
	Summary       *Summary           `json:"summary,omitempty"`
	Artifacts     []string           `json:"artifacts"`
}

// Empty reports whether the bundle carries no escalations at all.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.Departments) == 0
}

// AlertCount returns the number of alerts routed to a department in this bundle.
func (b *Bundle) AlertCount(department string) int {
	if b == nil {
		return 0
	}
	for _, batch := range b.Departments {
		if batch.Department == department {
			return batch.TotalAlerts
		}
	}
	return 0
}
