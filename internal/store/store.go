package store

import (
	"context"

	"github.com/me/procsim/pkg/model"
)

// Store persists the observed state-change history of simulated processes.
// It is a display log for hosts; the scheduler never reads from it.
type Store interface {
	// AppendHistory inserts entries in order and fills in their Seq.
	AppendHistory(ctx context.Context, entries []model.HistoryEntry) error

	// ListHistory returns matching entries in ascending Seq order.
	ListHistory(ctx context.Context, q HistoryQuery) ([]model.HistoryEntry, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// HistoryQuery filters ListHistory.
type HistoryQuery struct {
	ProcessID string // Optional process filter
	AfterSeq  int64  // Only entries with Seq > AfterSeq
	Limit     int    // Most recent N matching entries; <= 0 means 100
}

// Clamp enforces limits (max 1000, default 100).
func (q *HistoryQuery) Clamp() {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}
	if q.AfterSeq < 0 {
		q.AfterSeq = 0
	}
}
