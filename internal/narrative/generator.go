// Package narrative renders discharge decisions as human-readable summaries,
// one wording for the patient and family and one for the medical record.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"clearpath/internal/domain"
)

// Generator produces the two summary texts for a decision. Implementations
// may call out to an external text-generation service; the orchestrator falls
// back to the deterministic TemplateGenerator when they fail.
type Generator interface {
	Generate(ctx context.Context, patientID string, results []domain.CheckResult, outcome domain.Outcome, issues []domain.Issue) (domain.Summary, error)
}

// TemplateGenerator is the fixed deterministic fallback. It never fails.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(_ context.Context, _ string, results []domain.CheckResult, outcome domain.Outcome, issues []domain.Issue) (domain.Summary, error) {
	switch outcome {
	case domain.OutcomeApprove:
		return domain.Summary{
			PlainText:    "Patient discharge has been approved. All verification checks passed successfully. Please proceed with discharge procedures.",
			ClinicalText: fmt.Sprintf("Discharge approved. All checks (%s) cleared. No blocking issues identified.", checkNames(results)),
		}, nil
	case domain.OutcomeHold:
		headline := issueHeadline(issues)
		return domain.Summary{
			PlainText:    fmt.Sprintf("Discharge is on hold due to pending issues: %s. Please contact hospital staff for details.", headline),
			ClinicalText: fmt.Sprintf("Discharge HOLD. Critical/high severity issues identified: %s. Resolution required before discharge.", headline),
		}, nil
	default:
		return domain.Summary{
			PlainText:    "Discharge is pending minor issue resolution. Hospital staff is working to resolve these items.",
			ClinicalText: fmt.Sprintf("Discharge pending auto-resolution. %d medium/low severity issues identified. Staff action required.", len(issues)),
		}, nil
	}
}

func checkNames(results []domain.CheckResult) string {
	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.CheckName)
	}
	return strings.Join(names, ", ")
}

// issueHeadline summarizes up to the first three issues as "Check: Title".
func issueHeadline(issues []domain.Issue) string {
	parts := make([]string, 0, 3)
	for _, issue := range issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.SourceCheck, issue.Title))
		if len(parts) == 3 {
			break
		}
	}
	return strings.Join(parts, ", ")
}
