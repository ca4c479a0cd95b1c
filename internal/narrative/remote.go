package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clearpath/internal/domain"
)

const remoteTimeout = 30 * time.Second

// RemoteGenerator calls an external summary-generation service. Any failure
// is returned to the caller, which degrades to the template generator; the
// run itself never fails on narrative errors.
type RemoteGenerator struct {
	url    string
	client *http.Client
}

func NewRemoteGenerator(url string) *RemoteGenerator {
	return &RemoteGenerator{
		url:    url,
		client: &http.Client{Timeout: remoteTimeout},
	}
}

type remoteRequest struct {
	PatientID string               `json:"patient_id"`
	Outcome   domain.Outcome       `json:"outcome"`
	Results   []domain.CheckResult `json:"check_results"`
	Issues    []domain.Issue       `json:"issues"`
}

type remoteResponse struct {
	PlainText    string `json:"plain_text"`
	ClinicalText string `json:"for_medical_record"`
}

func (g *RemoteGenerator) Generate(ctx context.Context, patientID string, results []domain.CheckResult, outcome domain.Outcome, issues []domain.Issue) (domain.Summary, error) {
	payload, err := json.Marshal(remoteRequest{
		PatientID: patientID,
		Outcome:   outcome,
		Results:   results,
		Issues:    issues,
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("encode narrative request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("build narrative request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("call narrative service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Summary{}, fmt.Errorf("narrative service returned %d", resp.StatusCode)
	}

	var decoded remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Summary{}, fmt.Errorf("decode narrative response: %w", err)
	}
	if decoded.PlainText == "" || decoded.ClinicalText == "" {
		return domain.Summary{}, fmt.Errorf("narrative service returned incomplete summary")
	}
	return domain.Summary{
		PlainText:    decoded.PlainText,
		ClinicalText: decoded.ClinicalText,
	}, nil
}
