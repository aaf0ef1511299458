package sim

import (
	"github.com/okuden/duelsim/internal/combat/engine"
	perrors "github.com/okuden/duelsim/internal/platform/errors"
)

// MatchupStats accumulates outcomes for one matchup across runs. The
// zero value is ready to use, and Merge folds two accumulations into
// one regardless of the order runs were recorded in.
type MatchupStats struct {
	Runs     int `json:"runs"`
	Draws    int `json:"draws"`
	Timeouts int `json:"timeouts"`
	// Completed counts runs that reached a verdict; errored runs are
	// excluded from the round statistics.
	Completed int `json:"completed"`

	// Wins counts wins by side.
	Wins map[string]int `json:"wins"`
	// Errors counts errored runs by machine error code.
	Errors map[string]int `json:"errors"`
	// Wounds counts final wound levels by level name across all
	// combatants of completed runs.
	Wounds map[string]int `json:"wounds"`

	RoundsSum int `json:"rounds_sum"`
	RoundsMin int `json:"rounds_min"`
	RoundsMax int `json:"rounds_max"`
}

// record folds one run outcome into the stats.
func (s *MatchupStats) record(result engine.Result, err error) {
	s.Runs++
	if err != nil {
		if s.Errors == nil {
			s.Errors = make(map[string]int)
		}
		s.Errors[string(perrors.CodeOf(err))]++
		return
	}

	s.Completed++
	s.RoundsSum += result.Rounds
	if s.Completed == 1 || result.Rounds < s.RoundsMin {
		s.RoundsMin = result.Rounds
	}
	if result.Rounds > s.RoundsMax {
		s.RoundsMax = result.Rounds
	}

	switch result.Verdict {
	case engine.VerdictWin:
		if s.Wins == nil {
			s.Wins = make(map[string]int)
		}
		s.Wins[result.Winner]++
	case engine.VerdictDraw:
		s.Draws++
	case engine.VerdictTimeout:
		s.Timeouts++
	}

	if s.Wounds == nil {
		s.Wounds = make(map[string]int)
	}
	for _, level := range result.Wounds {
		s.Wounds[level.String()]++
	}
}

// Merge folds other into s. The fold is commutative and associative, so
// partial stats from parallel workers combine into the same totals in
// any order.
func (s *MatchupStats) Merge(other *MatchupStats) {
	if other == nil {
		return
	}
	s.Runs += other.Runs
	s.Draws += other.Draws
	s.Timeouts += other.Timeouts
	s.RoundsSum += other.RoundsSum

	if other.Completed > 0 {
		if s.Completed == 0 || other.RoundsMin < s.RoundsMin {
			s.RoundsMin = other.RoundsMin
		}
		if other.RoundsMax > s.RoundsMax {
			s.RoundsMax = other.RoundsMax
		}
	}
	s.Completed += other.Completed

	s.Wins = mergeCounts(s.Wins, other.Wins)
	s.Errors = mergeCounts(s.Errors, other.Errors)
	s.Wounds = mergeCounts(s.Wounds, other.Wounds)
}

// WinRate returns the fraction of completed runs won by side.
func (s *MatchupStats) WinRate(side string) float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.Wins[side]) / float64(s.Completed)
}

// MeanRounds returns the average round count of completed runs.
func (s *MatchupStats) MeanRounds() float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.RoundsSum) / float64(s.Completed)
}

func mergeCounts(dst, src map[string]int) map[string]int {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]int, len(src))
	}
	for key, count := range src {
		dst[key] += count
	}
	return dst
}

// Aggregate is the batch-wide result: per-matchup stats plus whether
// the batch was cut short by cancellation.
type Aggregate struct {
	Stats     map[string]*MatchupStats `json:"stats"`
	Cancelled bool                     `json:"cancelled"`
}

// NewAggregate returns an empty aggregate ready for merging.
func NewAggregate() Aggregate {
	return Aggregate{Stats: make(map[string]*MatchupStats)}
}

// matchup returns the stats bucket for a matchup name, creating it on
// first use.
func (a *Aggregate) matchup(name string) *MatchupStats {
	if a.Stats == nil {
		a.Stats = make(map[string]*MatchupStats)
	}
	stats, ok := a.Stats[name]
	if !ok {
		stats = &MatchupStats{}
		a.Stats[name] = stats
	}
	return stats
}

// Merge folds other into a; order-independent like MatchupStats.Merge.
func (a *Aggregate) Merge(other Aggregate) {
	for name, stats := range other.Stats {
		a.matchup(name).Merge(stats)
	}
	a.Cancelled = a.Cancelled || other.Cancelled
}
