package discharge

import "clearpath/internal/domain"

// Evaluate applies the ordered decision rules to the aggregated issues and
// per-check cleared flags. This is pure domain logic - no I/O, no side
// effects - and is order-independent over the issue list.
//
// Rule priority (first match wins):
//  1. Any critical issue -> HOLD
//  2. Any high severity issue -> HOLD
//  3. Every check cleared -> APPROVE
//  4. Otherwise (only medium/low issues remain) -> PENDING_AUTO_RESOLUTION
//
// Severity dominates the cleared flags: one critical finding holds the
// discharge even when every check nominally cleared. That asymmetry is the
// safety property of the whole system and must not be reordered.
func Evaluate(issues []domain.Issue, results []domain.CheckResult) (domain.Outcome, bool) {
	// Rules 1 and 2: any blocking severity holds the discharge.
	for _, severity := range []domain.Severity{domain.SeverityCritical, domain.SeverityHigh} {
		for _, issue := range issues {
			if issue.Severity == severity {
				return domain.OutcomeHold, false
			}
		}
	}

	// Rule 3: unanimous clearance approves.
	allCleared := true
	for _, result := range results {
		if !result.Cleared {
			allCleared = false
			break
		}
	}
	if allCleared {
		return domain.OutcomeApprove, true
	}

	// Rule 4: minor issues only, awaiting staff resolution.
	return domain.OutcomePendingAutoResolution, false
}

// BuildResolutions derives the suggested resolution list. Every medium/low
// issue contributes one suggestion; APPROVE decisions carry none.
func BuildResolutions(issues []domain.Issue, outcome domain.Outcome) []domain.Resolution {
	if outcome == domain.OutcomeApprove {
		return []domain.Resolution{}
	}

	resolutions := make([]domain.Resolution, 0, len(issues))
	for _, issue := range issues {
		if issue.Severity != domain.SeverityMedium && issue.Severity != domain.SeverityLow {
			continue
		}
		resolutions = append(resolutions, domain.Resolution{
			Action: issue.SuggestedAction,
			Detail: domain.ResolutionDetail{
				SourceCheck: issue.SourceCheck,
				Code:        issue.Code,
				Severity:    issue.Severity,
				Data:        issue.Data,
			},
		})
	}
	return resolutions
}
