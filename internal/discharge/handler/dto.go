package handler

import (
	"time"

	"clearpath/internal/discharge"
	"clearpath/internal/domain"
	"clearpath/internal/escalation"
	"clearpath/internal/state"
)

// VerifyRequest is the body of POST /discharge/verify.
type VerifyRequest struct {
	PatientID string `json:"patientId"`
}

// AlertsCount breaks the run's issues down by severity.
type AlertsCount struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// EscalationCounts reports alerts routed per destination queue.
type EscalationCounts struct {
	Lab       int `json:"lab"`
	Pharmacy  int `json:"pharmacy"`
	Billing   int `json:"billing"`
	Transport int `json:"transport"`
	Insurance int `json:"insurance"`
	General   int `json:"general"`
}

// VerifyDetails carries the decision breakdown.
type VerifyDetails struct {
	ApprovedBy               []string            `json:"approvedBy"`
	BlockedBy                []string            `json:"blockedBy"`
	SuggestedAutoResolutions []domain.Resolution `json:"suggestedAutoResolutions"`
}

// VerifyResponse is the body of a successful POST /discharge/verify.
type VerifyResponse struct {
	PatientID   string           `json:"patientId"`
	Status      string           `json:"status"`
	Approved    bool             `json:"approved"`
	Timestamp   time.Time        `json:"timestamp"`
	Summary     domain.Summary   `json:"summary"`
	AlertsCount AlertsCount      `json:"alertsCount"`
	Escalations EscalationCounts `json:"escalations"`
	Details     VerifyDetails    `json:"details"`
}

// StateResponse is the body of GET /discharge/{patientID}/state.
type StateResponse struct {
	PatientID string                `json:"patientId"`
	State     *state.PersistedState `json:"state"`
	Expired   bool                  `json:"expired"`
}

// FromRunResult projects an internal run result onto the API response shape.
func FromRunResult(result *discharge.RunResult) VerifyResponse {
	decision := result.Decision

	var counts AlertsCount
	counts.Total = len(decision.Issues)
	for _, issue := range decision.Issues {
		switch issue.Severity {
		case domain.SeverityCritical:
			counts.Critical++
		case domain.SeverityHigh:
			counts.High++
		case domain.SeverityMedium:
			counts.Medium++
		case domain.SeverityLow:
			counts.Low++
		}
	}

	return VerifyResponse{
		PatientID: decision.PatientID,
		Status:    string(decision.Outcome),
		Approved:  decision.Approved,
		Timestamp: decision.Timestamp,
		Summary:   decision.Summary,
		AlertsCount: counts,
		Escalations: EscalationCounts{
			Lab:       result.Bundle.AlertCount(escalation.DeptLab),
			Pharmacy:  result.Bundle.AlertCount(escalation.DeptPharmacy),
			Billing:   result.Bundle.AlertCount(escalation.DeptBilling),
			Transport: result.Bundle.AlertCount(escalation.DeptTransport),
			Insurance: result.Bundle.AlertCount(escalation.DeptInsurance),
			General:   result.Bundle.AlertCount(escalation.DeptGeneral),
		},
		Details: VerifyDetails{
			ApprovedBy:               decision.ClearedBy,
			BlockedBy:                decision.BlockedBy,
			SuggestedAutoResolutions: decision.SuggestedResolutions,
		},
	}
}
