package benchmark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var historySchema = []string{
	`CREATE TABLE IF NOT EXISTS benchmark_runs (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		started_at  INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		score       INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS benchmark_runs_kind ON benchmark_runs(kind, score)`,
}

// History stores benchmark results in a SQLite database.
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the database at path. ":memory:" gives a
// private in-memory store.
func OpenHistory(ctx context.Context, path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening benchmark history: %w", err)
	}
	// SQLite serialises writers; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	for _, stmt := range historySchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating benchmark history schema: %w", err)
		}
	}
	return &History{db: db}, nil
}

// Record stores res.
func (h *History) Record(ctx context.Context, res Result) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO benchmark_runs (id, kind, started_at, duration_ms, score) VALUES (?, ?, ?, ?, ?)`,
		res.ID, string(res.Kind), res.Started.UnixMilli(), res.Duration.Milliseconds(), res.Score)
	if err != nil {
		return fmt.Errorf("recording benchmark %s: %w", res.ID, err)
	}
	return nil
}

// Recent returns up to n results, newest first.
func (h *History) Recent(ctx context.Context, n int) ([]Result, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, kind, started_at, duration_ms, score FROM benchmark_runs ORDER BY started_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying benchmark history: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Best returns the highest scoring result of kind. ok is false when kind
// has never completed.
func (h *History) Best(ctx context.Context, kind Kind) (res Result, ok bool, err error) {
	row := h.db.QueryRowContext(ctx,
		`SELECT id, kind, started_at, duration_ms, score FROM benchmark_runs WHERE kind = ? ORDER BY score DESC, started_at LIMIT 1`,
		string(kind))
	res, err = scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	return res, true, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(s scanner) (Result, error) {
	var (
		res        Result
		kind       string
		startedMs  int64
		durationMs int64
	)
	if err := s.Scan(&res.ID, &kind, &startedMs, &durationMs, &res.Score); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("scanning benchmark result: %w", err)
	}
	res.Kind = Kind(kind)
	res.Started = time.UnixMilli(startedMs)
	res.Duration = time.Duration(durationMs) * time.Millisecond
	return res, nil
}
