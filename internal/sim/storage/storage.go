// Package storage defines the persistence contract for batch results.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/okuden/duelsim/internal/sim"
)

// ErrNotFound indicates a batch id with no stored record.
var ErrNotFound = errors.New("batch not found")

// ErrAlreadyExists indicates a batch id that was already stored.
var ErrAlreadyExists = errors.New("batch already exists")

// BatchRecord is the stored summary of one simulation batch.
type BatchRecord struct {
	ID        string
	Seed      int64
	Runs      int
	Cancelled bool
	CreatedAt time.Time
}

// BatchStore persists batch summaries with their per-matchup stats.
type BatchStore interface {
	// SaveBatch stores a batch record and its matchup stats atomically.
	// A reused batch id returns ErrAlreadyExists.
	SaveBatch(ctx context.Context, record BatchRecord, stats map[string]*sim.MatchupStats) error
	// GetBatch returns a stored batch and its matchup stats.
	GetBatch(ctx context.Context, id string) (BatchRecord, map[string]*sim.MatchupStats, error)
	// ListBatches returns the most recent batch records, newest first.
	ListBatches(ctx context.Context, limit int) ([]BatchRecord, error)
	// Close releases the underlying handle.
	Close() error
}
