package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kopdes/internal/core"
)

// DefaultSaveDebounce collapses a burst of edits into one snapshot write.
const DefaultSaveDebounce = time.Second

// SaveFunc persists a full snapshot.
type SaveFunc func(ctx context.Context, snapshot map[int]core.ProjectRecord) error

// AutoSaver schedules a debounced snapshot write after every mutation. Each
// mutation reschedules the timer with its version; only the timer holding
// the latest version writes, so a stale task can never overwrite newer
// state. Save failures are logged and implicitly retried on the next
// mutation.
type AutoSaver struct {
	store  *Store
	save   SaveFunc
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending uint64

	// saveMu serializes the actual writes so a debounce flush and a
	// shutdown Flush cannot interleave.
	saveMu    sync.Mutex
	lastSaved uint64
}

func NewAutoSaver(store *Store, save SaveFunc, delay time.Duration, logger *slog.Logger) *AutoSaver {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	return &AutoSaver{store: store, save: save, delay: delay, logger: logger}
}

// Notify records a settled mutation and (re)schedules the debounced write.
// Wire it as the Store's change hook.
func (a *AutoSaver) Notify(locationID int, version uint64) {
	a.mu.Lock()
	a.pending = version
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() { a.flush(version) })
	a.mu.Unlock()
}

func (a *AutoSaver) flush(version uint64) {
	a.mu.Lock()
	stale := version != a.pending
	a.mu.Unlock()
	if stale {
		return
	}
	a.write(context.Background(), version)
}

// Flush cancels any scheduled write and persists the current state if it is
// newer than the last successful save. Called on shutdown.
func (a *AutoSaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	version := a.pending
	a.mu.Unlock()
	return a.write(ctx, version)
}

func (a *AutoSaver) write(ctx context.Context, version uint64) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if version <= a.lastSaved {
		return nil
	}
	snapshot := a.store.Snapshot()
	if err := a.save(ctx, snapshot); err != nil {
		a.logger.ErrorContext(ctx, "snapshot save failed", "version", version, "error", err)
		return err
	}
	a.lastSaved = version
	a.logger.DebugContext(ctx, "snapshot saved", "version", version, "locations", len(snapshot))
	return nil
}
