package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/me/procsim/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (the default for the server).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma wal: %w", err)
		}
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// AppendHistory inserts entries in a single transaction.
func (s *SQLiteStore) AppendHistory(ctx context.Context, entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "insert", "table", "process_history", "rows", len(entries))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO process_history (process_id, name, from_state, to_state, remaining_time, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		res, err := stmt.ExecContext(ctx,
			e.ProcessID, e.Name, string(e.FromState), string(e.ToState), e.RemainingTime,
			e.ObservedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert history for %s: %w", e.ProcessID, err)
		}
		if e.Seq, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	}
	return tx.Commit()
}

// ListHistory returns the most recent matching entries, oldest first.
func (s *SQLiteStore) ListHistory(ctx context.Context, q HistoryQuery) ([]model.HistoryEntry, error) {
	q.Clamp()
	s.logger.Debug("sql", "op", "select", "table", "process_history", "process_id", q.ProcessID)

	var where []string
	var args []any
	where = append(where, "seq > ?")
	args = append(args, q.AfterSeq)
	if q.ProcessID != "" {
		where = append(where, "process_id = ?")
		args = append(args, q.ProcessID)
	}
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, process_id, name, from_state, to_state, remaining_time, observed_at
		 FROM process_history WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY seq DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var from, to, observedAt string
		if err := rows.Scan(&e.Seq, &e.ProcessID, &e.Name, &from, &to, &e.RemainingTime, &observedAt); err != nil {
			return nil, err
		}
		e.FromState = model.ProcessState(from)
		e.ToState = model.ProcessState(to)
		if e.ObservedAt, err = time.Parse(time.RFC3339Nano, observedAt); err != nil {
			return nil, fmt.Errorf("parse observed_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}
