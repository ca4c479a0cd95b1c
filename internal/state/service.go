package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clearpath/internal/domain"
)

// Namespaces under which the store keeps its records.
const (
	NamespaceState = "state"
	NamespaceAudit = "audit"
)

// DefaultApprovalWindow is how long an APPROVE decision stays valid.
const DefaultApprovalWindow = 6 * time.Hour

// Store persists decision state and the audit trail. Writes for one patient
// are serialized through a per-patient mutex; the store is safe for
// concurrent use across patients.
type Store struct {
	kv             KV
	approvalWindow time.Duration
	logger         *slog.Logger
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithApprovalWindow overrides the default 6h approval validity window.
func WithApprovalWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.approvalWindow = d
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(kv KV, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:             kv,
		approvalWindow: DefaultApprovalWindow,
		logger:         logger,
		now:            time.Now,
		locks:          make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LockPatient acquires the per-patient write lock and returns its release
// function. The orchestrator holds it across the save/audit/escalation writes
// of one run so concurrent runs for the same patient cannot interleave.
func (s *Store) LockPatient(patientID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[patientID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[patientID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Save writes the patient's current state record (last-write-wins). ExpiresAt
// is set only for approved decisions, as createdAt + approvalWindow.
func (s *Store) Save(ctx context.Context, patientID string, decision domain.Decision) (*PersistedState, error) {
	now := s.now()
	record := &PersistedState{
		PatientID:     patientID,
		Status:        StatusFromOutcome(decision.Outcome),
		Decision:      decision,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Version:       1,
	}
	if record.Status == StatusApproved {
		expiresAt := now.Add(s.approvalWindow)
		record.ExpiresAt = &expiresAt
	}

	if err := s.kv.Put(ctx, NamespaceState, patientID, record); err != nil {
		return nil, &PersistenceError{Op: "save state", Err: err}
	}
	s.logger.InfoContext(ctx, "discharge state saved",
		"patient_id", patientID,
		"status", record.Status,
		"expires_at", record.ExpiresAt,
	)
	return record, nil
}

// AppendAudit appends one run's audit entry to the patient's trail.
func (s *Store) AppendAudit(ctx context.Context, patientID string, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	if err := s.kv.Append(ctx, NamespaceAudit, patientID, entry); err != nil {
		return &PersistenceError{Op: "append audit", Err: err}
	}
	return nil
}

// Load returns the patient's current state, or ErrNotFound.
func (s *Store) Load(ctx context.Context, patientID string) (*PersistedState, error) {
	var record PersistedState
	if err := s.kv.Get(ctx, NamespaceState, patientID, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// AuditLog returns the patient's full audit trail in append order.
func (s *Store) AuditLog(ctx context.Context, patientID string) ([]AuditEntry, error) {
	var entries []AuditEntry
	if err := s.kv.GetLog(ctx, NamespaceAudit, patientID, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// IsExpired reports whether the patient's approval has lapsed. Absent state,
// absent expiry, or an unreadable record all count as not expired.
func (s *Store) IsExpired(ctx context.Context, patientID string) bool {
	record, err := s.Load(ctx, patientID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "expiry check could not load state",
				"patient_id", patientID,
				"error", err,
			)
		}
		return false
	}
	if record.ExpiresAt == nil {
		return false
	}
	return s.now().After(*record.ExpiresAt)
}
