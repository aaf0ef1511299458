package simulate

import (
	"fmt"
	"io"
	"sort"

	"github.com/okuden/duelsim/internal/sim"
)

// WriteReport renders the aggregate as a plain-text report, matchups
// and keys in sorted order so output is stable across runs.
func WriteReport(w io.Writer, aggregate sim.Aggregate) error {
	names := make([]string, 0, len(aggregate.Stats))
	for name := range aggregate.Stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		stats := aggregate.Stats[name]
		if _, err := fmt.Fprintf(w, "%s: %d runs, %d completed\n", name, stats.Runs, stats.Completed); err != nil {
			return err
		}
		for _, side := range sortedKeys(stats.Wins) {
			if _, err := fmt.Fprintf(w, "  %s wins: %d (%.1f%%)\n",
				side, stats.Wins[side], 100*stats.WinRate(side)); err != nil {
				return err
			}
		}
		if stats.Draws > 0 {
			if _, err := fmt.Fprintf(w, "  draws: %d\n", stats.Draws); err != nil {
				return err
			}
		}
		if stats.Timeouts > 0 {
			if _, err := fmt.Fprintf(w, "  timeouts: %d\n", stats.Timeouts); err != nil {
				return err
			}
		}
		if stats.Completed > 0 {
			if _, err := fmt.Fprintf(w, "  rounds: mean %.1f, min %d, max %d\n",
				stats.MeanRounds(), stats.RoundsMin, stats.RoundsMax); err != nil {
				return err
			}
		}
		for _, level := range sortedKeys(stats.Wounds) {
			if _, err := fmt.Fprintf(w, "  wounds %s: %d\n", level, stats.Wounds[level]); err != nil {
				return err
			}
		}
		for _, code := range sortedKeys(stats.Errors) {
			if _, err := fmt.Fprintf(w, "  errors %s: %d\n", code, stats.Errors[code]); err != nil {
				return err
			}
		}
	}
	if aggregate.Cancelled {
		if _, err := fmt.Fprintln(w, "(cancelled before completion)"); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
