package discharge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearpath/internal/domain"
)

func TestAggregate(t *testing.T) {
	results := []domain.CheckResult{
		{CheckName: "Insurance", Cleared: true},
		{
			CheckName: "Pharmacy",
			Cleared:   true,
			Issues: []domain.Issue{
				{Code: "PHARM_PAYMENT_PENDING", Severity: domain.SeverityMedium},
			},
		},
		{
			CheckName: "Lab",
			Cleared:   false,
			Issues: []domain.Issue{
				{Code: "LAB_PENDING", Severity: domain.SeverityHigh},
				{Code: "LAB_CRITICAL_VALUE", Severity: domain.SeverityCritical},
			},
		},
	}

	issues, clearedBy, blockedBy := Aggregate(results)

	t.Run("issues keep declaration order and get stamped", func(t *testing.T) {
		assert.Len(t, issues, 3)
		assert.Equal(t, "PHARM_PAYMENT_PENDING", issues[0].Code)
		assert.Equal(t, "Pharmacy", issues[0].SourceCheck)
		assert.Equal(t, "LAB_PENDING", issues[1].Code)
		assert.Equal(t, "LAB_CRITICAL_VALUE", issues[2].Code)
		assert.Equal(t, "Lab", issues[2].SourceCheck)
	})

	t.Run("clearedBy lists every cleared check", func(t *testing.T) {
		assert.Equal(t, []string{"Insurance", "Pharmacy"}, clearedBy)
	})

	t.Run("blockedBy lists checks with blocking issues", func(t *testing.T) {
		assert.Equal(t, []string{"Lab"}, blockedBy)
	})

	t.Run("all-clear run yields empty slices that serialize as arrays", func(t *testing.T) {
		allClear := []domain.CheckResult{
			{CheckName: "Insurance", Cleared: true},
			{CheckName: "Lab", Cleared: true},
		}
		issues, clearedBy, blockedBy := Aggregate(allClear)
		assert.NotNil(t, issues)
		assert.Empty(t, issues)
		assert.Equal(t, []string{"Insurance", "Lab"}, clearedBy)
		assert.NotNil(t, blockedBy)
		assert.Empty(t, blockedBy)

		outcome, approved := Evaluate(issues, allClear)
		decision := domain.Decision{
			PatientID:            "P00157",
			Outcome:              outcome,
			Approved:             approved,
			ClearedBy:            clearedBy,
			BlockedBy:            blockedBy,
			Issues:               issues,
			SuggestedResolutions: BuildResolutions(issues, outcome),
		}
		payload, err := json.Marshal(decision)
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"issues":[]`)
		assert.Contains(t, string(payload), `"blocked_by":[]`)
		assert.Contains(t, string(payload), `"suggested_resolutions":[]`)
	})

	t.Run("cleared check with a blocking issue appears in both sets", func(t *testing.T) {
		both := []domain.CheckResult{{
			CheckName: "Insurance",
			Cleared:   true,
			Issues: []domain.Issue{
				{Code: "INS_PREAUTH_MISSING", Severity: domain.SeverityHigh},
			},
		}}
		_, clearedBy, blockedBy := Aggregate(both)
		assert.Equal(t, []string{"Insurance"}, clearedBy)
		assert.Equal(t, []string{"Insurance"}, blockedBy)
	})
}
