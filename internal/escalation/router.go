package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clearpath/internal/domain"
	"clearpath/internal/state"
)

// Department names as consumed by the respective portals.
const (
	DeptLab       = "Lab Portal"
	DeptPharmacy  = "Pharmacy Portal"
	DeptBilling   = "Billing Portal"
	DeptTransport = "Transport Services"
	DeptInsurance = "Insurance Desk"
	DeptGeneral   = "General Operations"
)

// departmentRoutes maps issue-code prefixes to departments. Checked in this
// fixed order; the first matching prefix wins.
var departmentRoutes = []struct {
	prefix     string
	department string
}{
	{"LAB_", DeptLab},
	{"PHARM_", DeptPharmacy},
	{"BED_", DeptBilling},
	{"BILLING_", DeptBilling},
	{"TRANSPORT_", DeptTransport},
	{"INS_", DeptInsurance},
}

// DepartmentForCode maps an issue code onto the department that handles it.
func DepartmentForCode(code string) string {
	for _, route := range departmentRoutes {
		if strings.HasPrefix(code, route.prefix) {
			return route.department
		}
	}
	return DeptGeneral
}

// Router turns a run's issues into department alert batches, patient
// notifications, and a summary record, persisting each through the same
// durable-write mechanism as the state store.
type Router struct {
	kv     state.KV
	logger *slog.Logger
	now    func() time.Time
}

func NewRouter(kv state.KV, logger *slog.Logger) *Router {
	return &Router{kv: kv, logger: logger, now: time.Now}
}

// WithClock injects a time source for tests.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// Route builds and persists the escalation bundle for one run. An empty issue
// list is a no-op: empty bundle, nothing written.
func (r *Router) Route(ctx context.Context, patientID string, issues []domain.Issue, outcome domain.Outcome) (*Bundle, error) {
	if len(issues) == 0 {
		return &Bundle{}, nil
	}

	now := r.now()
	namespace := "escalations/patient_" + patientID

	// One counter for the whole run, shared across departments, so alert IDs
	// stay globally unique within the run.
	seq := 0
	batchIndex := make(map[string]int)
	var departments []DepartmentBatch
	var notifications []Notification

	for _, issue := range issues {
		seq++
		department := DepartmentForCode(issue.Code)
		alert := Alert{
			AlertID:         fmt.Sprintf("ALERT-%s-%s-%03d", patientID, departmentAbbrev(department), seq),
			PatientID:       patientID,
			Department:      department,
			Priority:        PriorityFromSeverity(issue.Severity),
			IssueCode:       issue.Code,
			Title:           issue.Title,
			Message:         issue.Message,
			SuggestedAction: issue.SuggestedAction,
			Evidence:        issue.Evidence,
			Data:            issue.Data,
			CreatedAt:       now,
			Status:          "pending",
		}

		idx, ok := batchIndex[department]
		if !ok {
			departments = append(departments, DepartmentBatch{
				Department:      department,
				PatientID:       patientID,
				HighestPriority: alert.Priority,
				GeneratedAt:     now,
			})
			idx = len(departments) - 1
			batchIndex[department] = idx
		}
		batch := &departments[idx]
		batch.Alerts = append(batch.Alerts, alert)
		batch.TotalAlerts++
		if priorityRank(alert.Priority) < priorityRank(batch.HighestPriority) {
			batch.HighestPriority = alert.Priority
		}

		if alert.Priority == PriorityUrgent || alert.Priority == PriorityHigh {
			notifications = append(notifications, Notification{
				Priority:       alert.Priority,
				Title:          alert.Title,
				Message:        patientMessage(alert),
				ActionRequired: alert.SuggestedAction,
				Department:     department,
			})
		}
	}

	bundle := &Bundle{Departments: departments}

	for _, batch := range departments {
		key := departmentKey(batch.Department)
		if err := r.kv.Put(ctx, namespace, key, batch); err != nil {
			return nil, &state.PersistenceError{Op: "write department alerts", Err: err}
		}
		bundle.Artifacts = append(bundle.Artifacts, namespace+"/"+key)
	}

	if len(notifications) > 0 {
		bundle.Notifications = &NotificationBatch{
			PatientID:          patientID,
			Notifications:      notifications,
			TotalNotifications: len(notifications),
			GeneratedAt:        now,
		}
		if err := r.kv.Put(ctx, namespace, "patient_notifications", bundle.Notifications); err != nil {
			return nil, &state.PersistenceError{Op: "write patient notifications", Err: err}
		}
		bundle.Artifacts = append(bundle.Artifacts, namespace+"/patient_notifications")
	}

	bundle.Summary = r.buildSummary(patientID, outcome, departments, now)
	summaryKey := "escalation_summary_" + patientID
	if err := r.kv.Put(ctx, namespace, summaryKey, bundle.Summary); err != nil {
		return nil, &state.PersistenceError{Op: "write escalation summary", Err: err}
	}
	bundle.Artifacts = append(bundle.Artifacts, namespace+"/"+summaryKey)

	r.logger.InfoContext(ctx, "escalations routed",
		"patient_id", patientID,
		"alerts", bundle.Summary.TotalAlerts,
		"departments", len(departments),
		"notifications", len(notifications),
	)
	return bundle, nil
}

func (r *Router) buildSummary(patientID string, outcome domain.Outcome, departments []DepartmentBatch, now time.Time) *Summary {
	summary := &Summary{
		PatientID: patientID,
		Outcome:   outcome,
		AlertsByPriority: map[Priority]int{
			PriorityUrgent: 0,
			PriorityHigh:   0,
			PriorityNormal: 0,
			PriorityLow:    0,
		},
		DepartmentAlertCount: make(map[string]int),
		GeneratedAt:          now,
	}
	for _, batch := range departments {
		summary.DepartmentsInvolved = append(summary.DepartmentsInvolved, batch.Department)
		summary.DepartmentAlertCount[batch.Department] = batch.TotalAlerts
		for _, alert := range batch.Alerts {
			summary.AlertsByPriority[alert.Priority]++
			summary.TotalAlerts++
		}
	}
	return summary
}

// departmentAbbrev derives the alert-ID department tag: spaces and the word
// "Portal" stripped, uppercased, first three characters ("Lab Portal" -> "LAB").
func departmentAbbrev(department string) string {
	stripped := strings.ReplaceAll(department, " ", "")
	stripped = strings.ReplaceAll(stripped, "Portal", "")
	stripped = strings.ToUpper(stripped)
	if len(stripped) > 3 {
		stripped = stripped[:3]
	}
	return stripped
}

func departmentKey(department string) string {
	return strings.ReplaceAll(strings.ToLower(department), " ", "_")
}

// patientMessage rewrites a technical alert into the department-flavored,
// non-technical wording shown to patients. Unknown departments echo the raw
// message.
func patientMessage(alert Alert) string {
	switch {
	case strings.Contains(alert.Department, "Lab"):
		return fmt.Sprintf("Your %s needs attention. Please contact the lab.", strings.ToLower(alert.Title))
	case strings.Contains(alert.Department, "Billing"):
		return fmt.Sprintf("There is a billing matter that needs your attention: %s", alert.Message)
	case strings.Contains(alert.Department, "Pharmacy"):
		return fmt.Sprintf("Your medication %s requires action.", strings.ToLower(alert.Title))
	case strings.Contains(alert.Department, "Insurance"):
		return fmt.Sprintf("Please contact the insurance desk regarding: %s", alert.Title)
	default:
		return alert.Message
	}
}
