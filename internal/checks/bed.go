package checks

import (
	"context"
	"errors"
	"fmt"

	"clearpath/internal/domain"
)

// BedCheck verifies final invoicing, outstanding payment, and bed turnover
// scheduling against the billing snapshot.
type BedCheck struct {
	data *DataSource
}

func NewBedCheck(data *DataSource) *BedCheck {
	return &BedCheck{data: data}
}

func (c *BedCheck) Name() string { return CheckBed }

type billingRecord struct {
	PatientID     string `json:"patient_id"`
	InvoiceStatus struct {
		InvoiceGenerated bool   `json:"invoice_generated"`
		Status           string `json:"status"`
	} `json:"invoice_status"`
	Payments struct {
		RequiredBeforeDischarge float64 `json:"required_before_discharge"`
	} `json:"payments"`
	DepositAnalysis struct {
		RefundDue float64 `json:"refund_due"`
	} `json:"deposit_analysis"`
	HousekeepingScheduled bool `json:"housekeeping_scheduled"`
}

func (c *BedCheck) Verify(ctx context.Context, patientID string) (*domain.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProviderError(ErrorTimeout, CheckBed, "verification cancelled", err)
	}

	var records []billingRecord
	if err := c.data.Load(FileBilling, &records); err != nil {
		if errors.Is(err, ErrDatasetMissing) {
			return c.Fallback(patientID), nil
		}
		return nil, NewProviderError(ErrorDataUnavailable, CheckBed, "loading billing snapshot", err)
	}

	var record *billingRecord
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

	if !record.InvoiceStatus.InvoiceGenerated {
		status := record.InvoiceStatus.Status
		if status == "" {
			status = "pending"
		}
		issues = append(issues, domain.Issue{
			Code:            "BED_INVOICE_PENDING",
			Title:           "Final Invoice Not Generated",
			Severity:        domain.SeverityHigh,
			Message:         fmt.Sprintf("Invoice status: %s", status),
			SuggestedAction: "Generate final invoice via Billing UI before discharge",
			Evidence:        []string{Evidence(FileBilling, "invoice_status.invoice_generated")},
			Data:            map[string]any{"status": status},
		})
		cleared = false
	}

	switch {
	case record.Payments.RequiredBeforeDischarge > 0:
		amount := record.Payments.RequiredBeforeDischarge
		issues = append(issues, domain.Issue{
			Code:            "BED_DEPOSIT_SHORTFALL",
			Title:           "Payment Required Before Discharge",
			Severity:        domain.SeverityHigh,
			Message:         fmt.Sprintf("Patient needs to pay %.2f before discharge", amount),
			SuggestedAction: fmt.Sprintf("Collect %.2f from patient/family", amount),
			Evidence:        []string{Evidence(FileBilling, "payments.required_before_discharge")},
			Data:            map[string]any{"amount": amount},
		})
		cleared = false
	case record.DepositAnalysis.RefundDue > 0:
		issues = append(issues, domain.Issue{
			Code:            "BED_REFUND_DUE",
			Title:           "Deposit Refund Due",
			Severity:        domain.SeverityLow,
			Message:         fmt.Sprintf("Refund of %.2f due to patient", record.DepositAnalysis.RefundDue),
			SuggestedAction: "Process refund after final invoice generation",
			Evidence:        []string{Evidence(FileBilling, "deposit_analysis.refund_due")},
			Data:            map[string]any{"refund_amount": record.DepositAnalysis.RefundDue},
		})
	}

	if !record.HousekeepingScheduled {
		issues = append(issues, domain.Issue{
			Code:            "BED_CLEANUP_DELAY",
			Title:           "Housekeeping Not Scheduled",
			Severity:        domain.SeverityMedium,
			Message:         "Bed cleaning schedule not found",
			SuggestedAction: "Schedule terminal cleaning for bed turnover",
			Evidence:        []string{Evidence(FileBilling, "housekeeping_scheduled")},
		})
	}

	return &domain.CheckResult{
		CheckName:  CheckBed,
		Cleared:    cleared,
		Confidence: 0.75,
		Issues:     issues,
	}, nil
}

// Fallback blocks on missing billing data; an unverified invoice cannot clear.
func (c *BedCheck) Fallback(patientID string) *domain.CheckResult {
	return &domain.CheckResult{
		CheckName:  CheckBed,
		Cleared:    false,
		Confidence: 0.75,
		Issues: []domain.Issue{{
			Code:            "BED_INVOICE_PENDING",
			Title:           "Billing Data Missing",
			Severity:        domain.SeverityHigh,
			Message:         "Unable to verify billing status - billing snapshot not available",
			SuggestedAction: "Generate final invoice through billing system",
			Evidence:        []string{FileBilling},
		}},
		RawDetail: map[string]any{"fallback": true},
	}
}
