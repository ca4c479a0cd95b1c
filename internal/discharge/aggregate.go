package discharge

import "clearpath/internal/domain"

// Aggregate flattens per-check results into one issue list and derives which
// checks cleared and which block. Results must already be in provider
// declaration order; the issue list preserves that order without sorting.
//
// ClearedBy and BlockedBy are independent: a check that cleared but raised a
// high or critical issue appears in both. Severity, not the cleared flag, is
// what blocks discharge.
func Aggregate(results []domain.CheckResult) (issues []domain.Issue, clearedBy, blockedBy []string) {
	// Empty, not nil: the persisted record and API responses serialize these
	// as [] even on an all-clear run.
	issues = []domain.Issue{}
	clearedBy = []string{}
	blockedBy = []string{}

	for _, result := range results {
		if result.Cleared {
			clearedBy = append(clearedBy, result.CheckName)
		}

		blocking := false
		for _, issue := range result.Issues {
			stamped := issue
			stamped.SourceCheck = result.CheckName
			issues = append(issues, stamped)
			if issue.Severity.Blocking() {
				blocking = true
			}
		}
		if blocking {
			blockedBy = append(blockedBy, result.CheckName)
		}
	}
	return issues, clearedBy, blockedBy
}
