// Package simulate parses simulate command flags and runs a batch.
package simulate

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/okuden/duelsim/internal/loader"
	entrypoint "github.com/okuden/duelsim/internal/platform/cmd"
	"github.com/okuden/duelsim/internal/sim"
	"github.com/okuden/duelsim/internal/sim/storage"
	storesqlite "github.com/okuden/duelsim/internal/sim/storage/sqlite"
)

// Config holds simulate command configuration.
type Config struct {
	BatchPath string `env:"DUELSIM_SIMULATE_BATCH"`
	Runs      int    `env:"DUELSIM_SIMULATE_RUNS"`
	Seed      int64  `env:"DUELSIM_SIMULATE_SEED"`
	Workers   int    `env:"DUELSIM_SIMULATE_WORKERS"`
	DBPath    string `env:"DUELSIM_SIMULATE_DB_PATH"`
	BatchID   string `env:"DUELSIM_SIMULATE_BATCH_ID"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.BatchPath, "batch", cfg.BatchPath, "Path to the YAML batch definition")
	fs.IntVar(&cfg.Runs, "runs", cfg.Runs, "Override the batch run count")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Override the batch base seed")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Override the batch worker count")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite path to persist results (optional)")
	fs.StringVar(&cfg.BatchID, "batch-id", cfg.BatchID, "Identifier for the persisted batch record")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the batch, simulates it, prints the report, and persists
// the aggregate when a database path is configured.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.CommandSimulate, func(ctx context.Context) error {
		if cfg.BatchPath == "" {
			return fmt.Errorf("batch definition path is required (-batch)")
		}
		batch, err := loader.LoadBatch(cfg.BatchPath)
		if err != nil {
			return err
		}
		if cfg.Runs > 0 {
			batch.Runs = cfg.Runs
		}
		if cfg.Seed != 0 {
			batch.Seed = cfg.Seed
		}
		if cfg.Workers > 0 {
			batch.Workers = cfg.Workers
		}

		log.Printf("running %d matchups x %d runs (seed %d)",
			len(batch.Matchups), batch.Runs, batch.Seed)
		started := time.Now()
		aggregate, err := sim.RunBatch(ctx, batch)
		if err != nil {
			return err
		}
		log.Printf("batch finished in %s", time.Since(started).Round(time.Millisecond))
		if aggregate.Cancelled {
			log.Print("batch cancelled; reporting partial results")
		}

		if err := WriteReport(os.Stdout, aggregate); err != nil {
			return err
		}
		if cfg.DBPath == "" {
			return nil
		}
		return persist(ctx, cfg, batch, aggregate)
	})
}

// persist stores the aggregate in the configured SQLite database.
func persist(ctx context.Context, cfg Config, batch sim.Batch, aggregate sim.Aggregate) error {
	store, err := storesqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	id := cfg.BatchID
	if id == "" {
		id = fmt.Sprintf("batch-%s-%d", time.Now().UTC().Format("20060102T150405"), batch.Seed)
	}
	record := storage.BatchRecord{
		ID:        id,
		Seed:      batch.Seed,
		Runs:      batch.Runs,
		Cancelled: aggregate.Cancelled,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.SaveBatch(ctx, record, aggregate.Stats); err != nil {
		return fmt.Errorf("persist batch %q: %w", id, err)
	}
	log.Printf("persisted batch %q to %s", id, cfg.DBPath)
	return nil
}
