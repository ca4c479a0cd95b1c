package checks

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Reference dataset file names under the data directory.
const (
	FilePatients         = "patient_data.json"
	FileInsurerRecords   = "insurer_records.json"
	FilePharmacy         = "pharmacy_inventory.json"
	FileDrugInteractions = "drug_interaction_rules.json"
	FileTransport        = "transport_providers.json"
	FileBilling          = "billing_snapshot.json"
	FileLabResults       = "lab_results.json"
)

// ErrDatasetMissing is returned when a reference dataset file does not exist.
var ErrDatasetMissing = errors.New("reference dataset missing")

// DataSource reads the JSON reference datasets the checks verify against.
// A missing file is reported as ErrDatasetMissing so each provider can raise
// its own data-missing issue instead of failing the run.
type DataSource struct {
	dir string
}

func NewDataSource(dir string) *DataSource {
	return &DataSource{dir: dir}
}

// Load decodes one dataset file into out.
func (d *DataSource) Load(name string, out any) error {
	raw, err := os.ReadFile(filepath.Join(d.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDatasetMissing, name)
		}
		return fmt.Errorf("read dataset %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode dataset %s: %w", name, err)
	}
	return nil
}

// PatientRecord is the slice of the patient chart the checks consult.
type PatientRecord struct {
	PatientID         string   `json:"patient_id"`
	Age               int      `json:"age"`
	Diagnosis         string   `json:"diagnosis"`
	Allergies         []string `json:"allergies"`
	ActiveMedications []string `json:"active_medications"`
	BillingItems      []string `json:"billing_items"`
}

// Patient finds one patient's record in patient_data.json.
// Returns ErrDatasetMissing when the file or the record is absent.
func (d *DataSource) Patient(patientID string) (*PatientRecord, error) {
	var patients []PatientRecord
	if err := d.Load(FilePatients, &patients); err != nil {
		return nil, err
	}
	for i := range patients {
		if patients[i].PatientID == patientID {
			return &patients[i], nil
		}
	}
	return nil, fmt.Errorf("%w: patient %s not in %s", ErrDatasetMissing, patientID, FilePatients)
}

// Evidence formats an evidence locator string ("file#json.path"). The engine
// forwards these opaquely; only portal consumers resolve them.
func Evidence(file, jsonPath string) string {
	if jsonPath == "" {
		return file
	}
	return file + "#" + jsonPath
}
