// Package history records observed process state changes into a Store.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/procsim/internal/store"
	"github.com/me/procsim/pkg/model"
)

// Source provides consistent snapshots. *manager.Manager satisfies it.
type Source interface {
	Snapshot() model.Snapshot
}

// Recorder diffs successive snapshots and appends one entry per process
// whose state changed. Signals are coalesced upstream, so a process that
// passes through a state between two observations is recorded only with the
// states actually seen.
type Recorder struct {
	src    Source
	store  store.Store
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	last map[string]model.ProcessState
}

// NewRecorder creates a Recorder reading from src and writing to st.
func NewRecorder(src Source, st store.Store, logger *slog.Logger) *Recorder {
	return &Recorder{
		src:    src,
		store:  st,
		logger: logger.With("component", "history"),
		now:    func() time.Time { return time.Now().UTC() },
		last:   make(map[string]model.ProcessState),
	}
}

// Observe takes one snapshot and records every state change since the
// previous observation. It returns the number of entries written.
func (r *Recorder) Observe(ctx context.Context) (int, error) {
	snap := r.src.Snapshot()
	at := r.now()

	r.mu.Lock()
	var entries []model.HistoryEntry
	for _, p := range snap.Processes {
		prev, seen := r.last[p.ID]
		if seen && prev == p.State {
			continue
		}
		entries = append(entries, model.HistoryEntry{
			ProcessID:     p.ID,
			Name:          p.Name,
			FromState:     prev,
			ToState:       p.State,
			RemainingTime: p.RemainingTime,
			ObservedAt:    at,
		})
		r.last[p.ID] = p.State
	}
	r.mu.Unlock()

	if err := r.store.AppendHistory(ctx, entries); err != nil {
		return 0, fmt.Errorf("append history: %w", err)
	}
	return len(entries), nil
}

// Run observes once per signal until ctx is cancelled or signals is closed.
func (r *Recorder) Run(ctx context.Context, signals <-chan struct{}) {
	r.logger.Debug("history recorder started")
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			n, err := r.Observe(ctx)
			if err != nil {
				r.logger.Error("record history", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Debug("history recorded", "entries", n)
			}
		}
	}
}
