package checks

import (
	"context"
	"errors"
	"fmt"

	"clearpath/internal/domain"
)

// InsuranceCheck verifies policy status and pre-authorization against the
// insurer records dataset.
type InsuranceCheck struct {
	data *DataSource
}

func NewInsuranceCheck(data *DataSource) *InsuranceCheck {
	return &InsuranceCheck{data: data}
}

func (c *InsuranceCheck) Name() string { return CheckInsurance }

type insurerRecord struct {
	PatientID     string `json:"patient_id"`
	PolicyDetails struct {
		PolicyStatus string `json:"policy_status"`
		ValidUntil   string `json:"valid_until"`
	} `json:"policy_details"`
	PreAuthorizationRecords []struct {
		RequestID string `json:"request_id"`
		Status    string `json:"status"`
	} `json:"pre_authorization_records"`
}

func (c *InsuranceCheck) Verify(ctx context.Context, patientID string) (*domain.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProviderError(ErrorTimeout, CheckInsurance, "verification cancelled", err)
	}

	var records []insurerRecord
	if err := c.data.Load(FileInsurerRecords, &records); err != nil {
		if errors.Is(err, ErrDatasetMissing) {
			return c.Fallback(patientID), nil
		}
		return nil, NewProviderError(ErrorDataUnavailable, CheckInsurance, "loading insurer records", err)
	}

	var record *insurerRecord
	for i := range records {
		if records[i].PatientID == patientID {
			record = &records[i]
			break
		}
	}
	if record == nil {
		return c.Fallback(patientID), nil
	}

	var issues []domain.Issue
	cleared := true

	if record.PolicyDetails.PolicyStatus != "active" {
		issues = append(issues, domain.Issue{
			Code:            "INS_POLICY_EXPIRED",
			Title:           "Policy Not Active",
			Severity:        domain.SeverityCritical,
			Message:         fmt.Sprintf("Insurance policy status: %s", record.PolicyDetails.PolicyStatus),
			SuggestedAction: "Contact insurance provider to reactivate policy",
			Evidence:        []string{Evidence(FileInsurerRecords, "policy_details.policy_status")},
			Data:            map[string]any{"policy_status": record.PolicyDetails.PolicyStatus},
		})
		cleared = false
	}

	if len(record.PreAuthorizationRecords) == 0 || record.PreAuthorizationRecords[0].Status != "approved" {
		issues = append(issues, domain.Issue{
			Code:            "INS_PREAUTH_MISSING",
			Title:           "Pre-Authorization Missing",
			Severity:        domain.SeverityHigh,
			Message:         "No approved pre-authorization found for this admission",
			SuggestedAction: "Submit pre-authorization request to insurance",
			Evidence:        []string{Evidence(FileInsurerRecords, "pre_authorization_records")},
		})
		cleared = false
	}

	return &domain.CheckResult{
		CheckName:  CheckInsurance,
		Cleared:    cleared,
		Confidence: 0.7,
		Issues:     issues,
	}, nil
}

// Fallback reports insurance as unverifiable and routes staff to manual review.
func (c *InsuranceCheck) Fallback(patientID string) *domain.CheckResult {
	return &domain.CheckResult{
		CheckName:  CheckInsurance,
		Cleared:    false,
		Confidence: 0.7,
		Issues: []domain.Issue{{
			Code:            "INS_DATA_MISSING",
			Title:           "Insurance Records Missing",
			Severity:        domain.SeverityHigh,
			Message:         "Unable to verify insurance - insurer records not available",
			SuggestedAction: "Contact insurance desk to verify policy manually",
			Evidence:        []string{FileInsurerRecords},
		}},
		RawDetail: map[string]any{"fallback": true},
	}
}
