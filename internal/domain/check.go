package domain

// Severity grades a finding raised by a discharge check.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the four known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Blocking reports whether a finding of this severity blocks discharge on its own.
func (s Severity) Blocking() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Issue is a structured finding raised by a check. Immutable once created;
// Evidence entries are opaque locator strings (e.g. "file#json.path") that the
// engine forwards without interpreting.
type Issue struct {
	Code            string         `json:"code"`
	Title           string         `json:"title"`
	Severity        Severity       `json:"severity"`
	Message         string         `json:"message"`
	SuggestedAction string         `json:"suggested_action"`
	Evidence        []string       `json:"evidence"`
	Data            map[string]any `json:"data,omitempty"`
	SourceCheck     string         `json:"source_check,omitempty"`
}

// CheckResult is the normalized output of one check for one run.
type CheckResult struct {
	CheckName  string         `json:"check_name"`
	Cleared    bool           `json:"cleared"`
	Confidence float64        `json:"confidence"`
	Issues     []Issue        `json:"issues"`
	ElapsedMS  float64        `json:"elapsed_ms"`
	RawDetail  map[string]any `json:"raw_detail,omitempty"`
}
