package dice

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

// maxSource is a rand.Source whose every draw makes Intn(10) return 9,
// so each die shows its maximum face and explodes forever. Intn takes
// bits 32..62 of Int63 for small n, hence the shift.
type maxSource struct{}

func (maxSource) Int63() int64    { return 9 << 32 }
func (maxSource) Seed(seed int64) {}

// TestRollRejectsInvalidPools ensures validation happens before rolling.
func TestRollRejectsInvalidPools(t *testing.T) {
	tcs := []Pool{
		{Roll: -1, Keep: 1},
		{Roll: 5, Keep: 0},
		{Roll: 5, Keep: -2},
		{Roll: 2, Keep: 3},
		{Roll: 0, Keep: 1},
	}

	for _, tc := range tcs {
		if _, err := Roll(rand.New(rand.NewSource(1)), tc); !errors.Is(err, ErrInvalidPool) {
			t.Fatalf("Roll(%+v) error = %v, want %v", tc, err, ErrInvalidPool)
		}
	}
}

// TestRollKeepWithinPool ensures valid rolls keep exactly Keep dice.
func TestRollKeepWithinPool(t *testing.T) {
	for keep := 1; keep <= 6; keep++ {
		result, err := Roll(rand.New(rand.NewSource(7)), Pool{Roll: 6, Keep: keep})
		if err != nil {
			t.Fatalf("Roll returned error: %v", err)
		}
		kept := 0
		for _, d := range result.Dice {
			if d.Kept {
				kept++
			}
		}
		if kept != keep {
			t.Fatalf("kept %d dice, want %d", kept, keep)
		}
	}
}

// TestRollIsDeterministic ensures identical seeds produce identical results.
func TestRollIsDeterministic(t *testing.T) {
	pool := Pool{Roll: 7, Keep: 3, Explode: true}

	first, err := Roll(rand.New(rand.NewSource(42)), pool)
	if err != nil {
		t.Fatalf("first Roll returned error: %v", err)
	}
	second, err := Roll(rand.New(rand.NewSource(42)), pool)
	if err != nil {
		t.Fatalf("second Roll returned error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rolls differ:\n first = %+v\nsecond = %+v", first, second)
	}
}

// TestSelectKeptSumsHighestFaces covers the fixed-face keep scenario:
// pool 5 keep 2 with faces [3,3,1,1,1] keeps 3+3 = 6.
func TestSelectKeptSumsHighestFaces(t *testing.T) {
	dice := []Die{{Face: 3}, {Face: 3}, {Face: 1}, {Face: 1}, {Face: 1}}

	total := selectKept(dice, 2, 0)
	if total != 6 {
		t.Fatalf("kept sum = %d, want 6", total)
	}
	if !dice[0].Kept || !dice[1].Kept {
		t.Fatalf("expected the first two dice kept, got %+v", dice)
	}
	for i := 2; i < len(dice); i++ {
		if dice[i].Kept {
			t.Fatalf("die %d kept, want unkept", i)
		}
	}
}

// TestSelectKeptBreaksTiesByRollOrder ensures equal faces are kept
// earliest first.
func TestSelectKeptBreaksTiesByRollOrder(t *testing.T) {
	dice := []Die{{Face: 5}, {Face: 8}, {Face: 5}, {Face: 5}}

	total := selectKept(dice, 2, 0)
	if total != 13 {
		t.Fatalf("kept sum = %d, want 13", total)
	}
	if !dice[1].Kept || !dice[0].Kept {
		t.Fatalf("expected dice 1 and 0 kept, got %+v", dice)
	}
	if dice[2].Kept || dice[3].Kept {
		t.Fatalf("later tied dice kept, got %+v", dice)
	}
}

// TestNormalizeOverflow covers the overflow conversion rules.
func TestNormalizeOverflow(t *testing.T) {
	tcs := []struct {
		in        Pool
		wantPool  Pool
		wantBonus int
	}{
		{in: Pool{Roll: 12, Keep: 4}, wantPool: Pool{Roll: 10, Keep: 6}, wantBonus: 0},
		{in: Pool{Roll: 10, Keep: 12}, wantPool: Pool{Roll: 10, Keep: 10}, wantBonus: 4},
		{in: Pool{Roll: 14, Keep: 9}, wantPool: Pool{Roll: 10, Keep: 10}, wantBonus: 6},
		{in: Pool{Roll: 8, Keep: 4}, wantPool: Pool{Roll: 8, Keep: 4}, wantBonus: 0},
	}

	for _, tc := range tcs {
		pool, bonus := Normalize(tc.in)
		if pool != tc.wantPool || bonus != tc.wantBonus {
			t.Fatalf("Normalize(%+v) = %+v, %d; want %+v, %d", tc.in, pool, bonus, tc.wantPool, tc.wantBonus)
		}
	}
}

// TestRollFlagsExplosionCap ensures a runaway explosion chain truncates
// the die and flags the result instead of looping forever.
func TestRollFlagsExplosionCap(t *testing.T) {
	rng := rand.New(maxSource{})

	result, err := Roll(rng, Pool{Roll: 1, Keep: 1, Explode: true})
	if err != nil {
		t.Fatalf("Roll returned error: %v", err)
	}
	if !result.CapExceeded {
		t.Fatalf("expected CapExceeded, got %+v", result)
	}
	if !result.Dice[0].Exploded {
		t.Fatalf("expected die marked exploded, got %+v", result.Dice[0])
	}
	want := Sides * ExplosionCap
	if result.Total != want {
		t.Fatalf("truncated total = %d, want %d", result.Total, want)
	}
}

// TestRollWithoutExplosionNeverExplodes ensures non-exploding rolls keep
// maximum faces as-is.
func TestRollWithoutExplosionNeverExplodes(t *testing.T) {
	rng := rand.New(maxSource{})

	result, err := Roll(rng, Pool{Roll: 3, Keep: 2})
	if err != nil {
		t.Fatalf("Roll returned error: %v", err)
	}
	if result.CapExceeded {
		t.Fatalf("unexpected CapExceeded: %+v", result)
	}
	for _, d := range result.Dice {
		if d.Exploded {
			t.Fatalf("die exploded on non-exploding roll: %+v", d)
		}
		if d.Face != Sides {
			t.Fatalf("face = %d, want %d", d.Face, Sides)
		}
	}
	if result.Total != 2*Sides {
		t.Fatalf("total = %d, want %d", result.Total, 2*Sides)
	}
}
