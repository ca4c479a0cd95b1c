package discharge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"clearpath/internal/checks"
	"clearpath/internal/discharge/metrics"
	"clearpath/internal/domain"
)

// DefaultCheckTimeout bounds one provider's verification.
const DefaultCheckTimeout = 30 * time.Second

// Runner fans the check providers out concurrently and collects their results
// back into declaration order. Provider failures never abort a run: a throwing,
// panicking, timed-out, or malformed provider is replaced by its own declared
// fallback result, and every result carries the measured elapsed time.
type Runner struct {
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRunner(timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Runner {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Runner{timeout: timeout, logger: logger, metrics: m}
}

// Run executes all providers and returns one result per provider, indexed by
// declaration order regardless of completion order.
func (r *Runner) Run(ctx context.Context, patientID string, providers []checks.Provider) []domain.CheckResult {
	results := make([]domain.CheckResult, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range providers {
		g.Go(func() error {
			results[i] = r.runOne(gctx, patientID, provider)
			return nil
		})
	}
	// Goroutines only write their own slot and never return errors, so Wait
	// is purely a join.
	_ = g.Wait()

	return results
}

func (r *Runner) runOne(ctx context.Context, patientID string, provider checks.Provider) domain.CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := verifySafely(checkCtx, patientID, provider)
	elapsed := time.Since(start)

	r.metrics.ObserveCheckLatency(provider.Name(), elapsed)

	if err == nil {
		err = validateResult(provider.Name(), result)
	}
	if err != nil {
		category := string(checks.Category(err))
		r.logger.WarnContext(ctx, "check failed, substituting fallback",
			"check", provider.Name(),
			"patient_id", patientID,
			"category", category,
			"error", err,
		)
		r.metrics.IncrementFallback(provider.Name(), category)
		result = provider.Fallback(patientID)
	}

	stamped := *result
	stamped.ElapsedMS = float64(elapsed.Microseconds()) / 1000
	return stamped
}

// verifySafely invokes the provider, converting panics and timeouts into
// ordinary provider errors.
func verifySafely(ctx context.Context, patientID string, provider checks.Provider) (result *domain.CheckResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = checks.NewProviderError(checks.ErrorInternal, provider.Name(),
				fmt.Sprintf("panic during verification: %v", rec), nil)
		}
	}()

	result, err = provider.Verify(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, checks.NewProviderError(checks.ErrorTimeout, provider.Name(), "verification timed out", ctxErr)
	}
	return result, nil
}

// validateResult enforces the CheckResult contract. Violations are treated
// exactly like provider failures and trigger the fallback path.
func validateResult(checkName string, result *domain.CheckResult) error {
	if result == nil {
		return checks.NewProviderError(checks.ErrorBadData, checkName, "nil result", nil)
	}
	if result.CheckName != checkName {
		return checks.NewProviderError(checks.ErrorBadData, checkName,
			fmt.Sprintf("result claims check name %q", result.CheckName), nil)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return checks.NewProviderError(checks.ErrorBadData, checkName,
			fmt.Sprintf("confidence %v outside [0,1]", result.Confidence), nil)
	}
	for _, issue := range result.Issues {
		if issue.Code == "" {
			return checks.NewProviderError(checks.ErrorBadData, checkName, "issue with empty code", nil)
		}
		if !issue.Severity.Valid() {
			return checks.NewProviderError(checks.ErrorBadData, checkName,
				fmt.Sprintf("issue %s has unknown severity %q", issue.Code, issue.Severity), nil)
		}
	}
	return nil
}
