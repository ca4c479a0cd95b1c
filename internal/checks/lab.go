package checks

import (
	"context"
	"errors"
	"fmt"

	"clearpath/internal/domain"
)

// LabCheck confirms all required tests completed and flags critical values.
type LabCheck struct {
	data *DataSource
}

func NewLabCheck(data *DataSource) *LabCheck {
	return &LabCheck{data: data}
}

func (c *LabCheck) Name() string { return CheckLab }

type labRecord struct {
	PatientID     string      `json:"patient_id"`
	RequiredTests []string    `json:"required_tests"`
	Results       []labResult `json:"results"`
}

type labResult struct {
	TestID     string `json:"test_id"`
	TestName   string `json:"test_name"`
	Status     string `json:"status"`
	Components []struct {
		Name           string  `json:"name"`
		Value          float64 `json:"value"`
		Units          string  `json:"units"`
		ReferenceRange string  `json:"reference_range"`
		Flag           string  `json:"flag"`
	} `json:"components"`
}

func (c *LabCheck) Verify(ctx context.Context, patientID string) (*domain.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProviderError(ErrorTimeout, CheckLab, "verification cancelled", err)
	}

	var records []labRecord
	if err := c.data.Load(FileLabResults, &records); err != nil {
		if errors.Is(err, ErrDatasetMissing) {
			return c.Fallback(patientID), nil
		}
		return nil, NewProviderError(ErrorDataUnavailable, CheckLab, "loading lab results", err)
	}

	var record *labRecord
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

	for _, required := range record.RequiredTests {
		result := findResult(record.Results, required)
		switch {
		case result == nil:
			issues = append(issues, domain.Issue{
				Code:            "LAB_PENDING",
				Title:           fmt.Sprintf("Missing Test: %s", required),
				Severity:        domain.SeverityHigh,
				Message:         fmt.Sprintf("Required test '%s' not found in results", required),
				SuggestedAction: "Complete the required test before discharge",
				Evidence:        []string{Evidence(FileLabResults, "required_tests")},
			})
			cleared = false
		case result.Status == "pending":
			issues = append(issues, domain.Issue{
				Code:            "LAB_PENDING",
				Title:           fmt.Sprintf("Pending Test: %s", required),
				Severity:        domain.SeverityHigh,
				Message:         fmt.Sprintf("Test '%s' is still pending", required),
				SuggestedAction: "Wait for test completion or expedite processing",
				Evidence:        []string{Evidence(FileLabResults, "results["+result.TestID+"]")},
				Data:            map[string]any{"test_id": result.TestID},
			})
			cleared = false
		default:
			for _, component := range result.Components {
				if component.Flag != "critical" {
					continue
				}
				issues = append(issues, domain.Issue{
					Code:            "LAB_CRITICAL_VALUE",
					Title:           fmt.Sprintf("Critical Value: %s", component.Name),
					Severity:        domain.SeverityCritical,
					Message:         fmt.Sprintf("%s = %g %s (Reference: %s)", component.Name, component.Value, component.Units, component.ReferenceRange),
					SuggestedAction: "Consult physician before discharge - critical lab value requires review",
					Evidence:        []string{Evidence(FileLabResults, "results["+result.TestID+"].components")},
					Data: map[string]any{
						"test":      required,
						"component": component.Name,
						"value":     component.Value,
					},
				})
				cleared = false
			}
		}
	}

	return &domain.CheckResult{
		CheckName:  CheckLab,
		Cleared:    cleared,
		Confidence: 0.8,
		Issues:     issues,
	}, nil
}

func findResult(results []labResult, testName string) *labResult {
	for i := range results {
		if results[i].TestName == testName {
			return &results[i]
		}
	}
	return nil
}

// Fallback blocks: labs that cannot be verified are never assumed clear.
func (c *LabCheck) Fallback(patientID string) *domain.CheckResult {
	return &domain.CheckResult{
		CheckName:  CheckLab,
		Cleared:    false,
		Confidence: 0.8,
		Issues: []domain.Issue{{
			Code:            "LAB_DATA_MISSING",
			Title:           "Lab Results Not Available",
			Severity:        domain.SeverityHigh,
			Message:         "Unable to verify lab tests - results database not available",
			SuggestedAction: "Retrieve lab results from laboratory system",
			Evidence:        []string{FileLabResults},
		}},
		RawDetail: map[string]any{"fallback": true},
	}
}
