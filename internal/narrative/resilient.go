package narrative

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"clearpath/internal/domain"
	"clearpath/pkg/circuit"
)

// ErrCircuitOpen is returned when the remote generator is skipped because its
// breaker is open. The orchestrator treats it like any narrative failure.
var ErrCircuitOpen = errors.New("narrative circuit open")

// probeInterval is how many skipped calls pass between probes of an open
// circuit.
const probeInterval = 10

// ResilientGenerator guards a remote generator with a circuit breaker. While
// the breaker is open most calls fail fast so the orchestrator drops straight
// to the template fallback instead of waiting out the remote timeout; every
// probeInterval-th call still probes the remote so the breaker can close again.
type ResilientGenerator struct {
	primary Generator
	breaker *circuit.Breaker
	logger  *slog.Logger
	skipped atomic.Int64
}

func NewResilientGenerator(primary Generator, breaker *circuit.Breaker, logger *slog.Logger) *ResilientGenerator {
	return &ResilientGenerator{primary: primary, breaker: breaker, logger: logger}
}

func (g *ResilientGenerator) Generate(ctx context.Context, patientID string, results []domain.CheckResult, outcome domain.Outcome, issues []domain.Issue) (domain.Summary, error) {
	if g.breaker.IsOpen() && g.skipped.Add(1)%probeInterval != 0 {
		return domain.Summary{}, ErrCircuitOpen
	}

	summary, err := g.primary.Generate(ctx, patientID, results, outcome, issues)
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "narrative circuit opened",
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return domain.Summary{}, err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "narrative circuit closed", "breaker", g.breaker.Name())
	}
	return summary, nil
}
