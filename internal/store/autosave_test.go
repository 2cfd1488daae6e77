package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"kopdes/internal/core"

	"github.com/shopspring/decimal"
)

type saveRecorder struct {
	mu    sync.Mutex
	calls []map[int]core.ProjectRecord
	fail  bool
}

func (r *saveRecorder) save(_ context.Context, snap map[int]core.ProjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("disk full")
	}
	r.calls = append(r.calls, snap)
	return nil
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestAutoSaverCollapsesBurst(t *testing.T) {
	s := New()
	rec := &saveRecorder{}
	saver := NewAutoSaver(s, rec.save, 30*time.Millisecond, discardLogger())
	s.OnChange(saver.Notify)

	for i := 1; i <= 5; i++ {
		s.SetBudget(1, decimal.NewFromInt(int64(i)))
	}

	waitFor(t, func() bool { return rec.count() == 1 })
	// Give stale timers a chance to misfire.
	time.Sleep(60 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("saves = %d, want 1", rec.count())
	}

	rec.mu.Lock()
	got := rec.calls[0][1].Budget
	rec.mu.Unlock()
	if !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("persisted budget = %s, want final value 5", got)
	}
}

func TestAutoSaverRetriesAfterFailure(t *testing.T) {
	s := New()
	rec := &saveRecorder{fail: true}
	saver := NewAutoSaver(s, rec.save, 10*time.Millisecond, discardLogger())
	s.OnChange(saver.Notify)

	s.SetBudget(1, decimal.NewFromInt(100))
	time.Sleep(50 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatal("failed save must not be recorded")
	}

	rec.mu.Lock()
	rec.fail = false
	rec.mu.Unlock()

	// Next mutation retries implicitly.
	s.SetBudget(1, decimal.NewFromInt(200))
	waitFor(t, func() bool { return rec.count() == 1 })
}

func TestAutoSaverFlush(t *testing.T) {
	s := New()
	rec := &saveRecorder{}
	saver := NewAutoSaver(s, rec.save, time.Hour, discardLogger())
	s.OnChange(saver.Notify)

	s.SetBudget(1, decimal.NewFromInt(42))
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("saves = %d, want 1", rec.count())
	}

	// Nothing new: flush is a no-op.
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("saves = %d, want still 1", rec.count())
	}
}
