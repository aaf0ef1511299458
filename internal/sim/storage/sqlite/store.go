// Package sqlite provides a SQLite-backed batch result store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okuden/duelsim/internal/platform/storage/sqlitemigrate"
	"github.com/okuden/duelsim/internal/sim"
	"github.com/okuden/duelsim/internal/sim/storage"
	"github.com/okuden/duelsim/internal/sim/storage/sqlite/migrations"
)

// Store persists batch results in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite batch store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveBatch stores a batch record and its matchup stats in one
// transaction.
func (s *Store) SaveBatch(ctx context.Context, record storage.BatchRecord, stats map[string]*sim.MatchupStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("batch id is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, seed, runs, cancelled, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		record.ID,
		record.Seed,
		record.Runs,
		boolToInt(record.Cancelled),
		createdAt.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("save batch: %w", err)
	}

	for name, matchup := range stats {
		wins, err := json.Marshal(counts(matchup.Wins))
		if err != nil {
			return fmt.Errorf("encode wins for %q: %w", name, err)
		}
		errCounts, err := json.Marshal(counts(matchup.Errors))
		if err != nil {
			return fmt.Errorf("encode errors for %q: %w", name, err)
		}
		wounds, err := json.Marshal(counts(matchup.Wounds))
		if err != nil {
			return fmt.Errorf("encode wounds for %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO matchup_metrics (
			   batch_id, name, runs, completed, draws, timeouts,
			   rounds_sum, rounds_min, rounds_max, wins, errors, wounds
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID,
			name,
			matchup.Runs,
			matchup.Completed,
			matchup.Draws,
			matchup.Timeouts,
			matchup.RoundsSum,
			matchup.RoundsMin,
			matchup.RoundsMax,
			string(wins),
			string(errCounts),
			string(wounds),
		); err != nil {
			return fmt.Errorf("save matchup %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save batch: %w", err)
	}
	return nil
}

// GetBatch returns a stored batch and its matchup stats.
func (s *Store) GetBatch(ctx context.Context, id string) (storage.BatchRecord, map[string]*sim.MatchupStats, error) {
	if err := ctx.Err(); err != nil {
		return storage.BatchRecord{}, nil, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.BatchRecord{}, nil, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, seed, runs, cancelled, created_at FROM batches WHERE id = ?`, id)

	var record storage.BatchRecord
	var cancelled int
	var createdAt int64
	if err := row.Scan(&record.ID, &record.Seed, &record.Runs, &cancelled, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.BatchRecord{}, nil, storage.ErrNotFound
		}
		return storage.BatchRecord{}, nil, fmt.Errorf("get batch: %w", err)
	}
	record.Cancelled = cancelled != 0
	record.CreatedAt = time.UnixMilli(createdAt).UTC()

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, runs, completed, draws, timeouts,
		        rounds_sum, rounds_min, rounds_max, wins, errors, wounds
		   FROM matchup_metrics
		  WHERE batch_id = ?
		  ORDER BY name ASC`, id)
	if err != nil {
		return storage.BatchRecord{}, nil, fmt.Errorf("get batch metrics: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*sim.MatchupStats)
	for rows.Next() {
		var name string
		var matchup sim.MatchupStats
		var wins, errCounts, wounds string
		if err := rows.Scan(
			&name,
			&matchup.Runs,
			&matchup.Completed,
			&matchup.Draws,
			&matchup.Timeouts,
			&matchup.RoundsSum,
			&matchup.RoundsMin,
			&matchup.RoundsMax,
			&wins,
			&errCounts,
			&wounds,
		); err != nil {
			return storage.BatchRecord{}, nil, fmt.Errorf("get batch metrics: %w", err)
		}
		if matchup.Wins, err = decodeCounts(wins); err != nil {
			return storage.BatchRecord{}, nil, fmt.Errorf("decode wins for %q: %w", name, err)
		}
		if matchup.Errors, err = decodeCounts(errCounts); err != nil {
			return storage.BatchRecord{}, nil, fmt.Errorf("decode errors for %q: %w", name, err)
		}
		if matchup.Wounds, err = decodeCounts(wounds); err != nil {
			return storage.BatchRecord{}, nil, fmt.Errorf("decode wounds for %q: %w", name, err)
		}
		stats[name] = &matchup
	}
	if err := rows.Err(); err != nil {
		return storage.BatchRecord{}, nil, fmt.Errorf("get batch metrics: %w", err)
	}
	return record, stats, nil
}

// ListBatches returns the most recent batch records, newest first.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]storage.BatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, seed, runs, cancelled, created_at
		   FROM batches
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var records []storage.BatchRecord
	for rows.Next() {
		var record storage.BatchRecord
		var cancelled int
		var createdAt int64
		if err := rows.Scan(&record.ID, &record.Seed, &record.Runs, &cancelled, &createdAt); err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
		record.Cancelled = cancelled != 0
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return records, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// counts normalizes a nil map to empty so the stored JSON is always an
// object.
func counts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func decodeCounts(data string) (map[string]int, error) {
	var m map[string]int
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed")
}

var _ storage.BatchStore = (*Store)(nil)
