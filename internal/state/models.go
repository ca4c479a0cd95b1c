package state

import (
	"time"

	"clearpath/internal/domain"
)

// Status is the persisted lifecycle state of a patient's latest decision.
type Status string

const (
	StatusApproved              Status = "approved"
	StatusHold                  Status = "hold"
	StatusPendingAutoResolution Status = "pending_auto_resolution"
)

// StatusFromOutcome maps a decision outcome to its persisted status.
func StatusFromOutcome(outcome domain.Outcome) Status {
	switch outcome {
	case domain.OutcomeApprove:
		return StatusApproved
	case domain.OutcomeHold:
		return StatusHold
	default:
		return StatusPendingAutoResolution
	}
}

// PersistedState is the durable current-state record for one patient.
// ExpiresAt is set only for approved states; its absence means the state
// never lapses automatically.
type PersistedState struct {
	PatientID     string          `json:"patient_id"`
	Status        Status          `json:"status"`
	Decision      domain.Decision `json:"decision"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
	Version       int             `json:"version"`
}

// AuditEntry is one append-only audit record for a verification run.
// Entries are never edited or removed.
type AuditEntry struct {
	ID                   string         `json:"id"`
	Timestamp            time.Time      `json:"timestamp"`
	PatientID            string         `json:"patient_id"`
	Outcome              domain.Outcome `json:"outcome"`
	IssueCount           int            `json:"issue_count"`
	CriticalIssues       []domain.Issue `json:"critical_issues"`
	RecommendedNextSteps []string       `json:"recommended_next_steps"`
}
