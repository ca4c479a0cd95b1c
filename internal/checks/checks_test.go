package checks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearpath/internal/domain"
)

// writeDataset drops one JSON dataset file into the test data directory.
func writeDataset(t *testing.T, dir, name string, v any) {
	t.Helper()
	raw, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), raw, 0o644))
}

func patientFixture(t *testing.T, dir string, patient map[string]any) {
	t.Helper()
	writeDataset(t, dir, FilePatients, []map[string]any{patient})
}

func issueCodes(result *domain.CheckResult) []string {
	codes := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

func TestDataSource(t *testing.T) {
	t.Run("missing file reports ErrDatasetMissing", func(t *testing.T) {
		data := NewDataSource(t.TempDir())
		var out []PatientRecord
		assert.ErrorIs(t, data.Load(FilePatients, &out), ErrDatasetMissing)
	})

	t.Run("missing patient reports ErrDatasetMissing", func(t *testing.T) {
		dir := t.TempDir()
		patientFixture(t, dir, map[string]any{"patient_id": "P00157"})
		data := NewDataSource(dir)
		_, err := data.Patient("P00231")
		assert.ErrorIs(t, err, ErrDatasetMissing)
	})

	t.Run("evidence locator format", func(t *testing.T) {
		assert.Equal(t, "lab_results.json#results[LAB-1]", Evidence("lab_results.json", "results[LAB-1]"))
		assert.Equal(t, "lab_results.json", Evidence("lab_results.json", ""))
	})
}

func TestInsuranceCheck(t *testing.T) {
	ctx := context.Background()

	insurer := func(status, preauth string) []map[string]any {
		rec := map[string]any{
			"patient_id": "P00231",
			"policy_details": map[string]any{
				"policy_status": status,
				"valid_until":   "2027-03-31",
			},
		}
		if preauth != "" {
			rec["pre_authorization_records"] = []map[string]any{
				{"request_id": "PA-1", "status": preauth},
			}
		}
		return []map[string]any{rec}
	}

	t.Run("active policy with approved preauth clears", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileInsurerRecords, insurer("active", "approved"))
		result, err := NewInsuranceCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		assert.Empty(t, result.Issues)
	})

	t.Run("inactive policy raises critical", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileInsurerRecords, insurer("expired", "approved"))
		result, err := NewInsuranceCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "INS_POLICY_EXPIRED", result.Issues[0].Code)
		assert.Equal(t, domain.SeverityCritical, result.Issues[0].Severity)
	})

	t.Run("missing preauth raises high", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileInsurerRecords, insurer("active", ""))
		result, err := NewInsuranceCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Contains(t, issueCodes(result), "INS_PREAUTH_MISSING")
	})

	t.Run("missing dataset falls back blocked", func(t *testing.T) {
		result, err := NewInsuranceCheck(NewDataSource(t.TempDir())).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"INS_DATA_MISSING"}, issueCodes(result))
	})
}

func TestPharmacyCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order blocks", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FilePharmacy, []map[string]any{{
			"patient_id": "P00231",
			"active_orders": []map[string]any{
				{"order_id": "RX-1", "medication_name": "Ondansetron", "status": "pending"},
			},
		}})
		result, err := NewPharmacyCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"PHARM_ORDER_PENDING"}, issueCodes(result))
	})

	t.Run("outstanding payment warns but stays cleared", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FilePharmacy, []map[string]any{{
			"patient_id":                      "P00231",
			"total_discharge_medication_cost": 184.5,
		}})
		result, err := NewPharmacyCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "PHARM_PAYMENT_PENDING", result.Issues[0].Code)
		assert.Equal(t, domain.SeverityMedium, result.Issues[0].Severity)
	})

	t.Run("allergy conflict raises critical", func(t *testing.T) {
		dir := t.TempDir()
		patientFixture(t, dir, map[string]any{
			"patient_id":         "P00231",
			"allergies":          []string{"Penicillin"},
			"active_medications": []string{"Amoxicillin 500mg"},
		})
		writeDataset(t, dir, FileDrugInteractions, map[string]any{
			"allergy_contraindications": []map[string]any{
				{"allergy": "Penicillin", "contraindicated_drugs": []string{"Amoxicillin"}},
			},
		})
		result, err := NewPharmacyCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"PHARM_ALLERGY_CONFLICT"}, issueCodes(result))
		assert.Equal(t, domain.SeverityCritical, result.Issues[0].Severity)
	})

	t.Run("no data clears", func(t *testing.T) {
		result, err := NewPharmacyCheck(NewDataSource(t.TempDir())).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		assert.Empty(t, result.Issues)
	})
}

func TestTransportCheck(t *testing.T) {
	ctx := context.Background()

	roster := func(available bool, eta int) map[string]any {
		return map[string]any{
			"providers": []map[string]any{{
				"name": "CityMed Ambulance",
				"current_availability": map[string]any{
					"basic_ambulance": map[string]any{"available": available, "eta_minutes": eta, "cost": 120.0},
				},
			}},
		}
	}

	t.Run("not required when diagnosis and billing are unremarkable", func(t *testing.T) {
		dir := t.TempDir()
		patientFixture(t, dir, map[string]any{"patient_id": "P00231", "diagnosis": "appendicitis"})
		result, err := NewTransportCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		assert.Empty(t, result.Issues)
		assert.Equal(t, false, result.RawDetail["transport_required"])
	})

	t.Run("cancer diagnosis recommends best option", func(t *testing.T) {
		dir := t.TempDir()
		patientFixture(t, dir, map[string]any{"patient_id": "P00231", "diagnosis": "colorectal cancer"})
		writeDataset(t, dir, FileTransport, roster(true, 45))
		result, err := NewTransportCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "TRANSPORT_REQUIRED", result.Issues[0].Code)
		assert.Equal(t, domain.SeverityMedium, result.Issues[0].Severity)
		assert.Equal(t, 45, result.Issues[0].Data["eta"])
	})

	t.Run("dialysis billing item also requires transport", func(t *testing.T) {
		dir := t.TempDir()
		patientFixture(t, dir, map[string]any{
			"patient_id":    "P00231",
			"diagnosis":     "renal failure",
			"billing_items": []string{"Dialysis session x2"},
		})
		writeDataset(t, dir, FileTransport, roster(true, 45))
		result, err := NewTransportCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.Contains(t, issueCodes(result), "TRANSPORT_REQUIRED")
	})

	t.Run("no provider inside the window blocks", func(t *testing.T) {
		dir := t.TempDir()
		patientFixture(t, dir, map[string]any{"patient_id": "P00231", "diagnosis": "cancer"})
		writeDataset(t, dir, FileTransport, roster(true, 180))
		result, err := NewTransportCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"TRANSPORT_UNAVAILABLE"}, issueCodes(result))
	})

	t.Run("unavailable vehicles are skipped", func(t *testing.T) {
		dir := t.TempDir()
		patientFixture(t, dir, map[string]any{"patient_id": "P00231", "diagnosis": "cancer"})
		writeDataset(t, dir, FileTransport, roster(false, 45))
		result, err := NewTransportCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.Equal(t, []string{"TRANSPORT_UNAVAILABLE"}, issueCodes(result))
	})

	t.Run("missing patient record clears via fallback", func(t *testing.T) {
		result, err := NewTransportCheck(NewDataSource(t.TempDir())).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
	})
}

func TestBedCheck(t *testing.T) {
	ctx := context.Background()

	billing := func(mutate func(map[string]any)) []map[string]any {
		rec := map[string]any{
			"patient_id": "P00231",
			"invoice_status": map[string]any{
				"invoice_generated": true,
				"status":            "finalized",
			},
			"payments":               map[string]any{"required_before_discharge": 0},
			"deposit_analysis":       map[string]any{"refund_due": 0},
			"housekeeping_scheduled": true,
		}
		if mutate != nil {
			mutate(rec)
		}
		return []map[string]any{rec}
	}

	t.Run("settled record clears", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileBilling, billing(nil))
		result, err := NewBedCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		assert.Empty(t, result.Issues)
	})

	t.Run("ungenerated invoice blocks", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileBilling, billing(func(rec map[string]any) {
			rec["invoice_status"] = map[string]any{"invoice_generated": false, "status": "draft"}
		}))
		result, err := NewBedCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"BED_INVOICE_PENDING"}, issueCodes(result))
	})

	t.Run("outstanding payment blocks", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileBilling, billing(func(rec map[string]any) {
			rec["payments"] = map[string]any{"required_before_discharge": 530.0}
		}))
		result, err := NewBedCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"BED_DEPOSIT_SHORTFALL"}, issueCodes(result))
	})

	t.Run("refund due stays cleared", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileBilling, billing(func(rec map[string]any) {
			rec["deposit_analysis"] = map[string]any{"refund_due": 250.0}
		}))
		result, err := NewBedCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "BED_REFUND_DUE", result.Issues[0].Code)
		assert.Equal(t, domain.SeverityLow, result.Issues[0].Severity)
	})

	t.Run("unscheduled housekeeping warns but stays cleared", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileBilling, billing(func(rec map[string]any) {
			rec["housekeeping_scheduled"] = false
		}))
		result, err := NewBedCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		assert.Equal(t, []string{"BED_CLEANUP_DELAY"}, issueCodes(result))
	})

	t.Run("missing snapshot falls back blocked", func(t *testing.T) {
		result, err := NewBedCheck(NewDataSource(t.TempDir())).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"BED_INVOICE_PENDING"}, issueCodes(result))
	})
}

func TestLabCheck(t *testing.T) {
	ctx := context.Background()

	labs := func(results []map[string]any) []map[string]any {
		return []map[string]any{{
			"patient_id":     "P00231",
			"required_tests": []string{"Complete Blood Count"},
			"results":        results,
		}}
	}

	t.Run("completed normal results clear", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileLabResults, labs([]map[string]any{{
			"test_id":   "LAB-1",
			"test_name": "Complete Blood Count",
			"status":    "completed",
			"components": []map[string]any{
				{"name": "Hemoglobin", "value": 14.8, "units": "g/dL", "reference_range": "13.5-17.5", "flag": "normal"},
			},
		}}))
		result, err := NewLabCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.True(t, result.Cleared)
		assert.Empty(t, result.Issues)
	})

	t.Run("absent required test blocks", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileLabResults, labs(nil))
		result, err := NewLabCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"LAB_PENDING"}, issueCodes(result))
	})

	t.Run("pending test blocks", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileLabResults, labs([]map[string]any{{
			"test_id":   "LAB-1",
			"test_name": "Complete Blood Count",
			"status":    "pending",
		}}))
		result, err := NewLabCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"LAB_PENDING"}, issueCodes(result))
	})

	t.Run("critical component flag raises critical", func(t *testing.T) {
		dir := t.TempDir()
		writeDataset(t, dir, FileLabResults, labs([]map[string]any{{
			"test_id":   "LAB-1",
			"test_name": "Complete Blood Count",
			"status":    "completed",
			"components": []map[string]any{
				{"name": "Potassium", "value": 6.8, "units": "mmol/L", "reference_range": "3.5-5.0", "flag": "critical"},
			},
		}}))
		result, err := NewLabCheck(NewDataSource(dir)).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "LAB_CRITICAL_VALUE", result.Issues[0].Code)
		assert.Equal(t, domain.SeverityCritical, result.Issues[0].Severity)
	})

	t.Run("missing dataset falls back blocked", func(t *testing.T) {
		result, err := NewLabCheck(NewDataSource(t.TempDir())).Verify(ctx, "P00231")
		require.NoError(t, err)
		assert.False(t, result.Cleared)
		assert.Equal(t, []string{"LAB_DATA_MISSING"}, issueCodes(result))
	})
}
