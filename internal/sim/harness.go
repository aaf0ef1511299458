// Package sim runs batches of seeded combats in parallel and folds the
// outcomes into order-independent aggregate statistics.
package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/okuden/duelsim/internal/combat/engine"
	"github.com/okuden/duelsim/internal/random"
)

const tracerName = "duelsim/sim"

// ErrInvalidBatch indicates a batch definition that cannot run.
var ErrInvalidBatch = errors.New("invalid batch")

// Matchup names one fighter lineup and the rules it fights under.
type Matchup struct {
	Name     string           `yaml:"name"`
	Fighters []engine.Fighter `yaml:"fighters"`
	Rules    engine.Config    `yaml:"rules,omitempty"`
}

// Batch describes a simulation campaign: every matchup is run Runs
// times. Each run gets fresh combatants and a private RNG seeded from
// the batch seed and the run's coordinates, so results do not depend on
// worker count or scheduling.
type Batch struct {
	Matchups []Matchup `yaml:"matchups"`
	Runs     int       `yaml:"runs"`
	Seed     int64     `yaml:"seed"`
	// Workers bounds the parallel workers; zero means GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`
}

// Validate checks the batch shape. Fighter validation happens per run
// inside the engine, where failures become recorded error runs.
func (b Batch) Validate() error {
	if len(b.Matchups) == 0 {
		return fmt.Errorf("%w: no matchups", ErrInvalidBatch)
	}
	seen := make(map[string]bool, len(b.Matchups))
	for i, matchup := range b.Matchups {
		if matchup.Name == "" {
			return fmt.Errorf("%w: matchup %d has no name", ErrInvalidBatch, i)
		}
		if seen[matchup.Name] {
			return fmt.Errorf("%w: duplicate matchup name %q", ErrInvalidBatch, matchup.Name)
		}
		seen[matchup.Name] = true
	}
	if b.Runs < 1 {
		return fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidBatch, b.Runs)
	}
	if b.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidBatch, b.Workers)
	}
	return nil
}

type job struct {
	matchup int
	run     int
}

// RunBatch executes the batch across a worker pool. Errored runs are
// recorded in the aggregate by error code, never returned. Cancellation
// is cooperative at combat boundaries: a cancelled context yields the
// partial aggregate with Cancelled set, not an error.
func RunBatch(ctx context.Context, batch Batch) (Aggregate, error) {
	if err := batch.Validate(); err != nil {
		return Aggregate{}, err
	}

	workers := batch.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if total := len(batch.Matchups) * batch.Runs; workers > total {
		workers = total
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "sim.run_batch",
		trace.WithAttributes(
			attribute.Int("sim.matchups", len(batch.Matchups)),
			attribute.Int("sim.runs", batch.Runs),
			attribute.Int("sim.workers", workers),
		))
	defer span.End()

	jobs := make(chan job)
	partials := make([]Aggregate, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for mi := range batch.Matchups {
			for ri := 0; ri < batch.Runs; ri++ {
				select {
				case jobs <- job{matchup: mi, run: ri}:
				case <-gctx.Done():
					return nil
				}
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		partials[w] = NewAggregate()
		partial := &partials[w]
		g.Go(func() error {
			for j := range jobs {
				if gctx.Err() != nil {
					return nil
				}
				matchup := batch.Matchups[j.matchup]
				seed := random.DeriveSeed(batch.Seed, int64(j.matchup), int64(j.run))
				result, err := runOne(matchup, seed)
				partial.matchup(matchup.Name).record(result, err)
			}
			return nil
		})
	}
	// Workers report failed runs through the aggregate, not as errors.
	_ = g.Wait()

	aggregate := NewAggregate()
	for _, partial := range partials {
		aggregate.Merge(partial)
	}
	if ctx.Err() != nil {
		aggregate.Cancelled = true
	}
	span.SetAttributes(attribute.Bool("sim.cancelled", aggregate.Cancelled))
	return aggregate, nil
}

// runOne plays a single seeded combat for a matchup.
func runOne(matchup Matchup, seed int64) (engine.Result, error) {
	eng, err := engine.New(engine.Setup{
		Fighters: matchup.Fighters,
		Rules:    matchup.Rules,
		Seed:     seed,
	})
	if err != nil {
		return engine.Result{}, err
	}
	return eng.Run()
}
