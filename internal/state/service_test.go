package state

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearpath/internal/domain"
)

func testStore(opts ...Option) *Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(NewInMemoryKV(), logger, opts...)
}

func decisionWith(outcome domain.Outcome) domain.Decision {
	return domain.Decision{
		PatientID: "P00231",
		Outcome:   outcome,
		Approved:  outcome == domain.OutcomeApprove,
		Timestamp: time.Now(),
	}
}

func TestSaveSetsExpiryOnlyWhenApproved(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	store := testStore(WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	t.Run("approved gets createdAt plus window", func(t *testing.T) {
		record, err := store.Save(ctx, "P00231", decisionWith(domain.OutcomeApprove))
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, record.Status)
		require.NotNil(t, record.ExpiresAt)
		assert.Equal(t, fixed.Add(6*time.Hour), *record.ExpiresAt)
	})

	t.Run("hold carries no expiry", func(t *testing.T) {
		record, err := store.Save(ctx, "P00232", decisionWith(domain.OutcomeHold))
		require.NoError(t, err)
		assert.Equal(t, StatusHold, record.Status)
		assert.Nil(t, record.ExpiresAt)
	})

	t.Run("pending carries no expiry", func(t *testing.T) {
		record, err := store.Save(ctx, "P00233", decisionWith(domain.OutcomePendingAutoResolution))
		require.NoError(t, err)
		assert.Equal(t, StatusPendingAutoResolution, record.Status)
		assert.Nil(t, record.ExpiresAt)
	})
}

func TestSaveHonorsConfiguredWindow(t *testing.T) {
	fixed := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	store := testStore(
		WithClock(func() time.Time { return fixed }),
		WithApprovalWindow(30*time.Minute),
	)

	record, err := store.Save(context.Background(), "P00231", decisionWith(domain.OutcomeApprove))
	require.NoError(t, err)
	require.NotNil(t, record.ExpiresAt)
	assert.Equal(t, fixed.Add(30*time.Minute), *record.ExpiresAt)
}

func TestSaveIsLastWriteWins(t *testing.T) {
	store := testStore()
	ctx := context.Background()

	_, err := store.Save(ctx, "P00231", decisionWith(domain.OutcomeHold))
	require.NoError(t, err)
	_, err = store.Save(ctx, "P00231", decisionWith(domain.OutcomeApprove))
	require.NoError(t, err)

	loaded, err := store.Load(ctx, "P00231")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, loaded.Status)
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	clock := &now
	store := testStore(WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	t.Run("false when no state exists", func(t *testing.T) {
		assert.False(t, store.IsExpired(ctx, "P99999"))
	})

	t.Run("false when state has no expiry", func(t *testing.T) {
		_, err := store.Save(ctx, "P00232", decisionWith(domain.OutcomeHold))
		require.NoError(t, err)
		assert.False(t, store.IsExpired(ctx, "P00232"))
	})

	t.Run("false inside the window, true after it", func(t *testing.T) {
		_, err := store.Save(ctx, "P00231", decisionWith(domain.OutcomeApprove))
		require.NoError(t, err)

		assert.False(t, store.IsExpired(ctx, "P00231"))

		later := now.Add(6*time.Hour + time.Minute)
		clock = &later
		assert.True(t, store.IsExpired(ctx, "P00231"))
	})
}

func TestAppendAuditPreservesOrder(t *testing.T) {
	store := testStore()
	ctx := context.Background()

	for _, outcome := range []domain.Outcome{domain.OutcomeHold, domain.OutcomePendingAutoResolution, domain.OutcomeApprove} {
		err := store.AppendAudit(ctx, "P00231", AuditEntry{PatientID: "P00231", Outcome: outcome})
		require.NoError(t, err)
	}

	entries, err := store.AuditLog(ctx, "P00231")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.OutcomeHold, entries[0].Outcome)
	assert.Equal(t, domain.OutcomePendingAutoResolution, entries[1].Outcome)
	assert.Equal(t, domain.OutcomeApprove, entries[2].Outcome)
	for _, entry := range entries {
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.Timestamp.IsZero())
	}
}

func TestLockPatientSerializesWriters(t *testing.T) {
	store := testStore()

	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.LockPatient("P00231")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive, "only one writer may hold the patient lock")
}

func TestLockPatientIndependentAcrossPatients(t *testing.T) {
	store := testStore()

	unlockA := store.LockPatient("P00231")
	done := make(chan struct{})
	go func() {
		unlockB := store.LockPatient("P00157")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another patient must not block")
	}
	unlockA()
}
