// Package discharge implements the verification engine: it runs the domain
// checks, aggregates their findings, applies the decision rules, and hands the
// result to persistence and escalation.
package discharge

import (
	"context"
	"log/slog"
	"time"

	"clearpath/internal/checks"
	"clearpath/internal/discharge/metrics"
	"clearpath/internal/domain"
	"clearpath/internal/escalation"
	"clearpath/internal/narrative"
	"clearpath/internal/state"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks StateStore,Escalator

// StateStore is the persistence surface the orchestrator depends on.
type StateStore interface {
	LockPatient(patientID string) func()
	Save(ctx context.Context, patientID string, decision domain.Decision) (*state.PersistedState, error)
	AppendAudit(ctx context.Context, patientID string, entry state.AuditEntry) error
}

// Escalator routes a run's issues to department queues.
type Escalator interface {
	Route(ctx context.Context, patientID string, issues []domain.Issue, outcome domain.Outcome) (*escalation.Bundle, error)
}

// RunResult is everything one verification run produced.
type RunResult struct {
	Decision  domain.Decision
	State     *state.PersistedState
	Bundle    *escalation.Bundle
	Artifacts []string
}

// Service is the orchestrator and the sole entry point for verification runs.
// All transient structures of a run (check results, decision, bundle) are
// owned by that run and never mutated once handed to the next component.
type Service struct {
	providers []checks.Provider
	runner    *Runner
	generator narrative.Generator
	fallback  *narrative.TemplateGenerator
	store     StateStore
	escalator Escalator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	providers []checks.Provider,
	runner *Runner,
	generator narrative.Generator,
	store StateStore,
	escalator Escalator,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		providers: providers,
		runner:    runner,
		generator: generator,
		fallback:  narrative.NewTemplateGenerator(),
		store:     store,
		escalator: escalator,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// WithClock injects a time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Run executes the full verification pipeline for one patient. Check and
// narrative failures degrade to fallbacks inside their components; only
// persistence failures surface as run errors.
func (s *Service) Run(ctx context.Context, patientID string) (*RunResult, error) {
	start := time.Now()
	s.logger.InfoContext(ctx, "discharge verification started",
		"patient_id", patientID,
		"checks", len(s.providers),
	)

	results := s.runner.Run(ctx, patientID, s.providers)
	issues, clearedBy, blockedBy := Aggregate(results)
	outcome, approved := Evaluate(issues, results)
	summary := s.generateSummary(ctx, patientID, results, outcome, issues)

	decision := domain.Decision{
		PatientID:            patientID,
		Outcome:              outcome,
		Approved:             approved,
		ClearedBy:            clearedBy,
		BlockedBy:            blockedBy,
		Issues:               issues,
		SuggestedResolutions: BuildResolutions(issues, outcome),
		Summary:              summary,
		Timestamp:            s.now(),
	}

	runResult, err := s.persist(ctx, patientID, decision)
	if err != nil {
		s.logger.ErrorContext(ctx, "discharge verification failed",
			"patient_id", patientID,
			"error", err,
		)
		return nil, err
	}

	s.metrics.IncrementOutcome(string(outcome))
	s.metrics.ObserveRunLatency(time.Since(start))
	if runResult.Bundle.Summary != nil {
		for department, count := range runResult.Bundle.Summary.DepartmentAlertCount {
			s.metrics.IncrementEscalations(department, count)
		}
	}

	s.logger.InfoContext(ctx, "discharge verification complete",
		"patient_id", patientID,
		"outcome", outcome,
		"approved", approved,
		"issues", len(issues),
		"blocked_by", blockedBy,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return runResult, nil
}

// persist runs the durable steps of a run under the per-patient lock so two
// concurrent runs for the same patient cannot interleave their writes.
func (s *Service) persist(ctx context.Context, patientID string, decision domain.Decision) (*RunResult, error) {
	unlock := s.store.LockPatient(patientID)
	defer unlock()

	persisted, err := s.store.Save(ctx, patientID, decision)
	if err != nil {
		return nil, err
	}
	artifacts := []string{state.NamespaceState + "/" + patientID}

	if err := s.store.AppendAudit(ctx, patientID, buildAuditEntry(decision)); err != nil {
		return nil, err
	}
	artifacts = append(artifacts, state.NamespaceAudit+"/"+patientID)

	bundle, err := s.escalator.Route(ctx, patientID, decision.Issues, decision.Outcome)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, bundle.Artifacts...)

	return &RunResult{
		Decision:  decision,
		State:     persisted,
		Bundle:    bundle,
		Artifacts: artifacts,
	}, nil
}

// generateSummary asks the configured generator for the narrative and falls
// back to the deterministic templates when it fails. Narrative errors are
// absorbed here and never fail the run.
func (s *Service) generateSummary(ctx context.Context, patientID string, results []domain.CheckResult, outcome domain.Outcome, issues []domain.Issue) domain.Summary {
	if s.generator != nil {
		summary, err := s.generator.Generate(ctx, patientID, results, outcome, issues)
		if err == nil {
			return summary
		}
		s.logger.WarnContext(ctx, "narrative generation failed, using template fallback",
			"patient_id", patientID,
			"error", err,
		)
	}
	summary, _ := s.fallback.Generate(ctx, patientID, results, outcome, issues)
	return summary
}

func buildAuditEntry(decision domain.Decision) state.AuditEntry {
	critical := make([]domain.Issue, 0)
	for _, issue := range decision.Issues {
		if issue.Severity == domain.SeverityCritical {
			critical = append(critical, issue)
		}
	}
	steps := make([]string, 0, len(decision.SuggestedResolutions))
	for _, resolution := range decision.SuggestedResolutions {
		steps = append(steps, resolution.Action)
	}
	return state.AuditEntry{
		Timestamp:            decision.Timestamp,
		PatientID:            decision.PatientID,
		Outcome:              decision.Outcome,
		IssueCount:           len(decision.Issues),
		CriticalIssues:       critical,
		RecommendedNextSteps: steps,
	}
}
