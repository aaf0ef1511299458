package engine

import (
	"errors"
	"testing"

	"github.com/okuden/duelsim/internal/combat/domain"
	perrors "github.com/okuden/duelsim/internal/platform/errors"
)

func TestConfigValidate(t *testing.T) {
	tcs := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"empty wound table", Config{WoundTable: nil, TieBreak: domain.RingWater, MaxRounds: 10}, false},
		{"non-increasing table", Config{WoundTable: []int{1, 10, 10}, TieBreak: domain.RingWater, MaxRounds: 10}, false},
		{"zero threshold", Config{WoundTable: []int{0, 10}, TieBreak: domain.RingWater, MaxRounds: 10}, false},
		{"bad ring", Config{WoundTable: []int{1}, TieBreak: "luck", MaxRounds: 10}, false},
		{"zero rounds", Config{WoundTable: []int{1}, TieBreak: domain.RingAir, MaxRounds: 0}, false},
	}

	for _, tc := range tcs {
		err := tc.cfg.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: Validate() = %v, want nil", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: Validate() = nil, want error", tc.name)
			}
			if perrors.CodeOf(err) != perrors.CodeCombatInvalidConfig {
				t.Fatalf("%s: code = %q, want %q", tc.name, perrors.CodeOf(err), perrors.CodeCombatInvalidConfig)
			}
		}
	}
}

func TestWoundDelta(t *testing.T) {
	cfg := DefaultConfig()

	tcs := []struct {
		damage int
		want   int
	}{
		{0, 0},
		{1, 1},
		{9, 1},
		{10, 2},
		{19, 2},
		{20, 3},
		{30, 4},
		{99, 4},
	}
	for _, tc := range tcs {
		if got := cfg.WoundDelta(tc.damage); got != tc.want {
			t.Fatalf("WoundDelta(%d) = %d, want %d", tc.damage, got, tc.want)
		}
	}
}

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	cfg := Config{}.withDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() after withDefaults = %v", err)
	}
	if cfg.MaxRounds != DefaultMaxRounds || cfg.TieBreak != domain.RingWater {
		t.Fatalf("withDefaults() = %+v", cfg)
	}
}

func TestDefaultConfigMatchesSentinel(t *testing.T) {
	if !errors.Is(Config{WoundTable: []int{2, 1}, TieBreak: domain.RingAir, MaxRounds: 1}.Validate(),
		perrors.New(perrors.CodeCombatInvalidConfig, "")) {
		t.Fatal("invalid config error does not match by code")
	}
}
