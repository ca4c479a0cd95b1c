package domain

import "time"

// Outcome enumerates the possible discharge decisions.
type Outcome string

const (
	OutcomeApprove               Outcome = "APPROVE"
	OutcomeHold                  Outcome = "HOLD"
	OutcomePendingAutoResolution Outcome = "PENDING_AUTO_RESOLUTION"
)

// Summary carries the two narrative renderings of a decision.
type Summary struct {
	PlainText    string `json:"plain_text"`
	ClinicalText string `json:"for_medical_record"`
}

// ResolutionDetail points a suggested resolution back at the issue it resolves.
type ResolutionDetail struct {
	SourceCheck string         `json:"source_check"`
	Code        string         `json:"code"`
	Severity    Severity       `json:"severity"`
	Data        map[string]any `json:"data,omitempty"`
}

// Resolution is one suggested remediation step for a medium/low issue.
type Resolution struct {
	Action string           `json:"action"`
	Detail ResolutionDetail `json:"detail"`
}

// Decision is the authoritative result of one verification run. Created exactly
// once per run and never mutated afterwards. ClearedBy and BlockedBy are
// independently derived: a check that cleared but raised a high-severity issue
// appears in both.
type Decision struct {
	PatientID            string       `json:"patient_id"`
	Outcome              Outcome      `json:"outcome"`
	Approved             bool         `json:"approved"`
	ClearedBy            []string     `json:"cleared_by"`
	BlockedBy            []string     `json:"blocked_by"`
	Issues               []Issue      `json:"issues"`
	SuggestedResolutions []Resolution `json:"suggested_resolutions"`
	Summary              Summary      `json:"summary"`
	Timestamp            time.Time    `json:"timestamp"`
}
