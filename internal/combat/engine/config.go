package engine

import (
	"fmt"

	"github.com/okuden/duelsim/internal/combat/domain"
	perrors "github.com/okuden/duelsim/internal/platform/errors"
)

// Default rule values.
const (
	// DefaultMaxRounds bounds a combat; exceeding it is a timeout
	// verdict, not an error.
	DefaultMaxRounds = 50
)

// defaultWoundTable maps damage to wound-level increments: damage at or
// above threshold i advances the level by i+1.
var defaultWoundTable = []int{1, 10, 20, 30}

// Config holds the tunable combat rules.
type Config struct {
	// WoundTable is the ascending damage thresholds for wound-level
	// increments.
	WoundTable []int `yaml:"wound_table,omitempty"`
	// TieBreak names the ring that breaks initiative ties before the
	// combatant-ID fallback.
	TieBreak domain.Ring `yaml:"tie_break,omitempty"`
	// MaxRounds is the round limit before a timeout verdict.
	MaxRounds int `yaml:"max_rounds,omitempty"`
}

// DefaultConfig returns the standard rules.
func DefaultConfig() Config {
	return Config{
		WoundTable: defaultWoundTable,
		TieBreak:   domain.RingWater,
		MaxRounds:  DefaultMaxRounds,
	}
}

// withDefaults fills zero-value fields so a partial config from a rules
// file behaves like the standard rules.
func (c Config) withDefaults() Config {
	if c.WoundTable == nil {
		c.WoundTable = defaultWoundTable
	}
	if c.TieBreak == "" {
		c.TieBreak = domain.RingWater
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = DefaultMaxRounds
	}
	return c
}

// Validate checks the rule invariants.
func (c Config) Validate() error {
	if len(c.WoundTable) == 0 {
		return perrors.New(perrors.CodeCombatInvalidConfig, "wound table is empty")
	}
	prev := 0
	for i, threshold := range c.WoundTable {
		if threshold <= prev {
			return perrors.New(perrors.CodeCombatInvalidConfig,
				fmt.Sprintf("wound table must be strictly increasing and positive, got %d at index %d", threshold, i))
		}
		prev = threshold
	}
	if !domain.ValidRing(c.TieBreak) {
		return perrors.New(perrors.CodeCombatInvalidConfig,
			fmt.Sprintf("unknown tie-break ring %q", c.TieBreak))
	}
	if c.MaxRounds < 1 {
		return perrors.New(perrors.CodeCombatInvalidConfig,
			fmt.Sprintf("max rounds must be positive, got %d", c.MaxRounds))
	}
	return nil
}

// WoundDelta converts a damage total to wound-level increments: one
// level per table threshold the damage reaches.
func (c Config) WoundDelta(damage int) int {
	delta := 0
	for _, threshold := range c.WoundTable {
		if damage < threshold {
			break
		}
		delta++
	}
	return delta
}
