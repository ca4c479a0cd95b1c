// Package checks contains the domain check providers consulted before a
// patient discharge. Every provider answers the same question - "do you have
// any objection to this discharge?" - against its own reference data.
package checks

import (
	"context"

	"clearpath/internal/domain"
)

// Provider is the universal interface all discharge checks implement.
// Verify may fail or time out; Fallback must always return a usable
// conservative result so one failing check never sinks the whole run.
type Provider interface {
	// Name returns the check name as it appears in decisions ("Lab", "Pharmacy", ...).
	Name() string

	// Verify performs the check for a patient.
	Verify(ctx context.Context, patientID string) (*domain.CheckResult, error)

	// Fallback returns the provider's declared deterministic substitute result,
	// used when Verify fails, times out, or returns malformed output.
	Fallback(patientID string) *domain.CheckResult
}

// Canonical check names, in declaration order. The aggregated issue list of a
// run follows this order regardless of completion timing.
const (
	CheckInsurance = "Insurance"
	CheckPharmacy  = "Pharmacy"
	CheckTransport = "Ambulance"
	CheckBed       = "Bed Management"
	CheckLab       = "Lab"
)
