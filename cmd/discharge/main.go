// Command discharge runs a verification from the terminal and prints the
// decision and escalation report.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"clearpath/internal/app"
	"clearpath/internal/discharge"
	"clearpath/internal/domain"
	"clearpath/internal/platform/config"
	"clearpath/internal/platform/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.FromEnv()
	log := logger.New()

	if len(args) == 0 || args[0] != "run" {
		fmt.Fprintln(os.Stderr, "usage: discharge run [patientId]")
		return 2
	}
	patientID := cfg.DefaultPatient
	if len(args) > 1 {
		patientID = args[1]
	}

	ctx := context.Background()
	engine, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		return 1
	}
	defer engine.Close()

	result, err := engine.Service.Run(ctx, patientID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verification failed: %v\n", err)
		return 1
	}

	printReport(os.Stdout, result)

	artifact := fmt.Sprintf("final_decision_%s.json", patientID)
	if err := writeDecision(artifact, result.Decision); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", artifact, err)
		return 1
	}
	fmt.Printf("\nFull decision written to %s\n", artifact)

	if result.Decision.Approved {
		return 0
	}
	return 1
}

func writeDecision(path string, decision domain.Decision) error {
	encoded, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

// severityOrder fixes the report grouping, most urgent first.
var severityOrder = []domain.Severity{
	domain.SeverityCritical,
	domain.SeverityHigh,
	domain.SeverityMedium,
	domain.SeverityLow,
}

func printReport(w *os.File, result *discharge.RunResult) {
	decision := result.Decision

	fmt.Fprintln(w, strings.Repeat("=", 64))
	fmt.Fprintf(w, "DISCHARGE VERIFICATION REPORT: %s\n", decision.PatientID)
	fmt.Fprintln(w, strings.Repeat("=", 64))
	fmt.Fprintf(w, "Outcome:   %s\n", decision.Outcome)
	fmt.Fprintf(w, "Approved:  %v\n", decision.Approved)
	fmt.Fprintf(w, "Cleared:   %s\n", joinOrDash(decision.ClearedBy))
	fmt.Fprintf(w, "Blocked:   %s\n", joinOrDash(decision.BlockedBy))

	fmt.Fprintf(w, "\nSummary\n  %s\n", decision.Summary.PlainText)

	if len(decision.Issues) > 0 {
		fmt.Fprintf(w, "\nIssues (%d)\n", len(decision.Issues))
		for _, severity := range severityOrder {
			for _, issue := range decision.Issues {
				if issue.Severity != severity {
					continue
				}
				fmt.Fprintf(w, "  [%s] %s - %s (%s)\n", strings.ToUpper(string(issue.Severity)), issue.Code, issue.Title, issue.SourceCheck)
				if issue.SuggestedAction != "" {
					fmt.Fprintf(w, "      action: %s\n", issue.SuggestedAction)
				}
			}
		}
	}

	if len(decision.SuggestedResolutions) > 0 {
		fmt.Fprintf(w, "\nSuggested auto-resolutions (%d)\n", len(decision.SuggestedResolutions))
		for _, resolution := range decision.SuggestedResolutions {
			fmt.Fprintf(w, "  - %s [%s]\n", resolution.Action, resolution.Detail.Code)
		}
	}

	if !result.Bundle.Empty() {
		fmt.Fprintln(w, "\nEscalations")
		for _, batch := range result.Bundle.Departments {
			fmt.Fprintf(w, "  %s: %d alert(s), highest priority %s\n", batch.Department, batch.TotalAlerts, batch.HighestPriority)
			for _, alert := range batch.Alerts {
				fmt.Fprintf(w, "    %s  %s\n", alert.AlertID, alert.Title)
			}
		}
	}
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
