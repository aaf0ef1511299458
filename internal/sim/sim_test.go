package sim

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/okuden/duelsim/internal/combat/domain"
	"github.com/okuden/duelsim/internal/combat/engine"
	"github.com/okuden/duelsim/internal/combat/policy"
)

func duelist(id, side string, fire int) engine.Fighter {
	return engine.Fighter{
		Definition: domain.Definition{
			ID:   id,
			Side: side,
			Rings: domain.Rings{
				Air: 2, Earth: 2, Fire: fire, Water: 2, Void: 2,
			},
			Attack: 2,
			Parry:  1,
			Armor:  1,
		},
		Policy: policy.Config{Name: policy.NameThreshold},
	}
}

func testBatch(runs, workers int) Batch {
	return Batch{
		Seed:    1234,
		Runs:    runs,
		Workers: workers,
		Matchups: []Matchup{
			{Name: "even", Fighters: []engine.Fighter{duelist("a", "crane", 3), duelist("b", "lion", 3)}},
			{Name: "lopsided", Fighters: []engine.Fighter{duelist("c", "crane", 5), duelist("d", "lion", 2)}},
		},
	}
}

func TestBatchValidate(t *testing.T) {
	tcs := []struct {
		name   string
		mutate func(*Batch)
	}{
		{"no matchups", func(b *Batch) { b.Matchups = nil }},
		{"unnamed matchup", func(b *Batch) { b.Matchups[0].Name = "" }},
		{"duplicate name", func(b *Batch) { b.Matchups[1].Name = b.Matchups[0].Name }},
		{"zero runs", func(b *Batch) { b.Runs = 0 }},
		{"negative workers", func(b *Batch) { b.Workers = -1 }},
	}
	for _, tc := range tcs {
		batch := testBatch(10, 1)
		tc.mutate(&batch)
		if err := batch.Validate(); !errors.Is(err, ErrInvalidBatch) {
			t.Fatalf("%s: Validate() = %v, want ErrInvalidBatch", tc.name, err)
		}
	}
}

func TestRunBatchDeterministicAcrossWorkerCounts(t *testing.T) {
	ctx := context.Background()

	serial, err := RunBatch(ctx, testBatch(20, 1))
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := RunBatch(ctx, testBatch(20, 4))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(serial, parallel) {
		t.Fatalf("aggregates differ:\n serial = %+v\nparallel = %+v", serial, parallel)
	}
	for name, stats := range serial.Stats {
		if stats.Runs != 20 {
			t.Fatalf("matchup %q runs = %d, want 20", name, stats.Runs)
		}
		if stats.Completed != 20 || len(stats.Errors) != 0 {
			t.Fatalf("matchup %q has errored runs: %+v", name, stats)
		}
	}
}

func TestRunBatchCountsVerdicts(t *testing.T) {
	aggregate, err := RunBatch(context.Background(), testBatch(30, 0))
	if err != nil {
		t.Fatal(err)
	}

	for name, stats := range aggregate.Stats {
		total := stats.Draws + stats.Timeouts
		for _, wins := range stats.Wins {
			total += wins
		}
		if total != stats.Completed {
			t.Fatalf("matchup %q verdicts %d != completed %d", name, total, stats.Completed)
		}
		if stats.RoundsMin < 1 || stats.RoundsMin > stats.RoundsMax {
			t.Fatalf("matchup %q round bounds = [%d, %d]", name, stats.RoundsMin, stats.RoundsMax)
		}
		mean := stats.MeanRounds()
		if mean < float64(stats.RoundsMin) || mean > float64(stats.RoundsMax) {
			t.Fatalf("matchup %q mean rounds %f outside bounds", name, mean)
		}
	}
}

func TestRunBatchRecordsErroredRuns(t *testing.T) {
	batch := Batch{
		Seed: 1,
		Runs: 5,
		Matchups: []Matchup{
			{
				Name: "broken",
				Fighters: []engine.Fighter{
					duelist("a", "crane", 3),
					duelist("b", "crane", 3), // same side, engine rejects
				},
			},
		},
	}

	aggregate, err := RunBatch(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}

	stats := aggregate.Stats["broken"]
	if stats == nil || stats.Runs != 5 || stats.Completed != 0 {
		t.Fatalf("stats = %+v, want 5 errored runs", stats)
	}
	if got := stats.Errors["COMBAT_INSUFFICIENT_SIDES"]; got != 5 {
		t.Fatalf("error count = %d, want 5 (errors: %+v)", got, stats.Errors)
	}
}

func TestRunBatchCancelledReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	aggregate, err := RunBatch(ctx, testBatch(1000, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !aggregate.Cancelled {
		t.Fatal("aggregate not flagged cancelled")
	}
	for name, stats := range aggregate.Stats {
		if stats.Runs > 1000 {
			t.Fatalf("matchup %q recorded %d runs past the batch size", name, stats.Runs)
		}
	}
}

func TestMatchupStatsMergeIsOrderIndependent(t *testing.T) {
	a := &MatchupStats{
		Runs: 4, Completed: 3, Draws: 1, Timeouts: 1,
		Wins:   map[string]int{"crane": 1},
		Errors: map[string]int{"COMBAT_INTEGRITY": 1},
		Wounds: map[string]int{"dead": 1, "healthy": 2},
		RoundsSum: 12, RoundsMin: 2, RoundsMax: 7,
	}
	b := &MatchupStats{
		Runs: 2, Completed: 2,
		Wins:   map[string]int{"crane": 1, "lion": 1},
		Wounds: map[string]int{"dead": 2},
		RoundsSum: 9, RoundsMin: 4, RoundsMax: 5,
	}

	ab := &MatchupStats{}
	ab.Merge(a)
	ab.Merge(b)
	ba := &MatchupStats{}
	ba.Merge(b)
	ba.Merge(a)

	if !reflect.DeepEqual(ab, ba) {
		t.Fatalf("merge order matters:\n ab = %+v\n ba = %+v", ab, ba)
	}
	if ab.Runs != 6 || ab.Completed != 5 {
		t.Fatalf("merged counts = %+v", ab)
	}
	if ab.RoundsMin != 2 || ab.RoundsMax != 7 || ab.RoundsSum != 21 {
		t.Fatalf("merged rounds = %+v", ab)
	}
	if ab.Wins["crane"] != 2 || ab.Wins["lion"] != 1 {
		t.Fatalf("merged wins = %+v", ab.Wins)
	}
}

func TestMatchupStatsMergeEmpty(t *testing.T) {
	a := &MatchupStats{Runs: 1, Completed: 1, RoundsSum: 3, RoundsMin: 3, RoundsMax: 3}
	a.Merge(&MatchupStats{})
	a.Merge(nil)
	if a.RoundsMin != 3 || a.RoundsMax != 3 || a.Runs != 1 {
		t.Fatalf("merge with empty changed stats: %+v", a)
	}
}

func TestWinRate(t *testing.T) {
	s := &MatchupStats{Completed: 8, Wins: map[string]int{"crane": 6}}
	if got := s.WinRate("crane"); got != 0.75 {
		t.Fatalf("WinRate(crane) = %f, want 0.75", got)
	}
	if got := s.WinRate("lion"); got != 0 {
		t.Fatalf("WinRate(lion) = %f, want 0", got)
	}
	if got := (&MatchupStats{}).WinRate("crane"); got != 0 {
		t.Fatalf("zero-value WinRate = %f, want 0", got)
	}
}

func TestAggregateMerge(t *testing.T) {
	a := NewAggregate()
	a.matchup("even").record(engine.Result{Verdict: engine.VerdictDraw, Rounds: 3,
		Wounds: map[string]domain.WoundLevel{"a": domain.WoundDying}}, nil)

	b := NewAggregate()
	b.Cancelled = true
	b.matchup("even").record(engine.Result{Verdict: engine.VerdictWin, Winner: "crane", Rounds: 5,
		Wounds: map[string]domain.WoundLevel{"a": domain.WoundHealthy}}, nil)
	b.matchup("other").record(engine.Result{}, errors.New("boom"))

	a.Merge(b)
	if !a.Cancelled {
		t.Fatal("cancelled flag lost in merge")
	}
	even := a.Stats["even"]
	if even.Runs != 2 || even.Draws != 1 || even.Wins["crane"] != 1 {
		t.Fatalf("even stats = %+v", even)
	}
	if even.RoundsMin != 3 || even.RoundsMax != 5 {
		t.Fatalf("even rounds = %+v", even)
	}
	other := a.Stats["other"]
	if other.Runs != 1 || other.Errors["UNKNOWN"] != 1 {
		t.Fatalf("other stats = %+v", other)
	}
}
