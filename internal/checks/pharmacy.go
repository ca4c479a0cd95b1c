package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clearpath/internal/domain"
)

// PharmacyCheck verifies medication orders are dispensed, discharge medication
// is paid for, and no active medication conflicts with a recorded allergy.
type PharmacyCheck struct {
	data *DataSource
}

func NewPharmacyCheck(data *DataSource) *PharmacyCheck {
	return &PharmacyCheck{data: data}
}

func (c *PharmacyCheck) Name() string { return CheckPharmacy }

type pharmacyRecord struct {
	PatientID    string `json:"patient_id"`
	ActiveOrders []struct {
		OrderID        string `json:"order_id"`
		MedicationName string `json:"medication_name"`
		Status         string `json:"status"`
	} `json:"active_orders"`
	TotalDischargeMedicationCost float64 `json:"total_discharge_medication_cost"`
}

type interactionRules struct {
	AllergyContraindications []struct {
		Allergy              string   `json:"allergy"`
		ContraindicatedDrugs []string `json:"contraindicated_drugs"`
	} `json:"allergy_contraindications"`
}

func (c *PharmacyCheck) Verify(ctx context.Context, patientID string) (*domain.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProviderError(ErrorTimeout, CheckPharmacy, "verification cancelled", err)
	}

	var issues []domain.Issue
	cleared := true

	var inventory []pharmacyRecord
	err := c.data.Load(FilePharmacy, &inventory)
	if err != nil && !errors.Is(err, ErrDatasetMissing) {
		return nil, NewProviderError(ErrorDataUnavailable, CheckPharmacy, "loading pharmacy inventory", err)
	}
	if err == nil {
		for i := range inventory {
			record := &inventory[i]
			if record.PatientID != patientID {
				continue
			}
			for _, order := range record.ActiveOrders {
				if order.Status != "pending" {
					continue
				}
				issues = append(issues, domain.Issue{
					Code:            "PHARM_ORDER_PENDING",
					Title:           "Pending Medication Order",
					Severity:        domain.SeverityHigh,
					Message:         fmt.Sprintf("Medication '%s' order is pending dispense", order.MedicationName),
					SuggestedAction: "Dispense medication before discharge",
					Evidence:        []string{Evidence(FilePharmacy, "active_orders["+order.OrderID+"]")},
					Data:            map[string]any{"order_id": order.OrderID, "medication": order.MedicationName},
				})
				cleared = false
			}
			if record.TotalDischargeMedicationCost > 0 {
				issues = append(issues, domain.Issue{
					Code:            "PHARM_PAYMENT_PENDING",
					Title:           "Discharge Medication Payment Required",
					Severity:        domain.SeverityMedium,
					Message:         fmt.Sprintf("Patient needs to pay %.2f for discharge medications", record.TotalDischargeMedicationCost),
					SuggestedAction: fmt.Sprintf("Collect %.2f from patient/family before discharge", record.TotalDischargeMedicationCost),
					Evidence:        []string{Evidence(FilePharmacy, "total_discharge_medication_cost")},
					Data:            map[string]any{"amount": record.TotalDischargeMedicationCost},
				})
				// Payment pending alone does not withdraw clearance.
			}
		}
	}

	if conflicts := c.allergyConflicts(patientID); len(conflicts) > 0 {
		issues = append(issues, conflicts...)
		cleared = false
	}

	return &domain.CheckResult{
		CheckName:  CheckPharmacy,
		Cleared:    cleared,
		Confidence: 0.75,
		Issues:     issues,
	}, nil
}

func (c *PharmacyCheck) allergyConflicts(patientID string) []domain.Issue {
	patient, err := c.data.Patient(patientID)
	if err != nil {
		return nil
	}
	var rules interactionRules
	if err := c.data.Load(FileDrugInteractions, &rules); err != nil {
		return nil
	}

	var issues []domain.Issue
	for _, contra := range rules.AllergyContraindications {
		if !matchesAllergy(patient.Allergies, contra.Allergy) {
			continue
		}
		for _, med := range patient.ActiveMedications {
			for _, drug := range contra.ContraindicatedDrugs {
				if strings.Contains(strings.ToLower(med), strings.ToLower(drug)) {
					issues = append(issues, domain.Issue{
						Code:            "PHARM_ALLERGY_CONFLICT",
						Title:           "Allergy-Medication Conflict",
						Severity:        domain.SeverityCritical,
						Message:         fmt.Sprintf("Patient has '%s' recorded but is on %s which may be contraindicated", contra.Allergy, med),
						SuggestedAction: "Consult physician for alternative medication",
						Evidence:        []string{Evidence(FilePatients, "active_medications")},
						Data:            map[string]any{"medication": med, "allergy": contra.Allergy},
					})
				}
			}
		}
	}
	return issues
}

func matchesAllergy(allergies []string, contraAllergy string) bool {
	needle := strings.ToLower(contraAllergy)
	for _, a := range allergies {
		if strings.Contains(strings.ToLower(a), needle) || strings.Contains(needle, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// Fallback mirrors the check's behavior with no pharmacy data on file: nothing
// to dispense and no known conflicts, so the check clears.
func (c *PharmacyCheck) Fallback(patientID string) *domain.CheckResult {
	return &domain.CheckResult{
		CheckName:  CheckPharmacy,
		Cleared:    true,
		Confidence: 0.75,
		RawDetail:  map[string]any{"fallback": true},
	}
}
