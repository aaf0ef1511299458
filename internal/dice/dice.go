// Package dice implements the roll-and-keep dice mechanic.
//
// Every roll in the system is "roll X, keep Y": roll X ten-sided dice,
// keep the Y highest, and sum them. Dice showing a 10 may explode: the
// die is rerolled and the new face added, chaining until a non-10
// appears or the chain hits ExplosionCap.
package dice

import (
	"errors"
	"math/rand"
	"sort"
)

// Sides is the face count of every die in the system.
const Sides = 10

// ExplosionCap bounds the reroll chain of a single exploding die. A die
// that hits the cap stops adding faces and the roll result is flagged.
const ExplosionCap = 20

// OverflowCap is the maximum rolled or kept dice in a single pool.
// Larger pools are converted by the overflow rules in Normalize.
const OverflowCap = 10

// ErrInvalidPool indicates a malformed roll-and-keep request. This is
// always a caller or configuration bug and is never recovered here.
var ErrInvalidPool = errors.New("keep must be between 1 and the pool size")

// Pool describes a roll-and-keep dice request.
type Pool struct {
	Roll    int  // number of dice rolled
	Keep    int  // number of highest dice kept
	Explode bool // whether dice showing the maximum face are rerolled and added
}

// Add returns the pool grown by extra rolled and kept dice.
func (p Pool) Add(roll, keep int) Pool {
	p.Roll += roll
	p.Keep += keep
	return p
}

// Validate checks the pool invariants: a non-negative size and
// 1 <= keep <= size.
func (p Pool) Validate() error {
	if p.Roll < 0 || p.Keep < 1 || p.Keep > p.Roll {
		return ErrInvalidPool
	}
	return nil
}

// Die captures the final state of a single rolled die.
type Die struct {
	Face     int  `json:"face"`     // value after any explosions
	Kept     bool `json:"kept"`     // whether the die was in the kept set
	Exploded bool `json:"exploded"` // whether the die exploded at least once
}

// Result captures a full roll-and-keep outcome.
type Result struct {
	Pool          Pool  `json:"pool"`           // the normalized pool that was rolled
	Dice          []Die `json:"dice"`           // every die, in original roll order
	OverflowBonus int   `json:"overflow_bonus"` // flat bonus from kept-dice overflow
	Total         int   `json:"total"`          // kept faces plus overflow bonus
	CapExceeded   bool  `json:"cap_exceeded"`   // an explosion chain hit ExplosionCap
}

// Normalize applies the overflow rules to an oversized pool: rolled dice
// above OverflowCap become extra kept dice, and kept dice above
// OverflowCap become a flat +2 bonus per extra die. Pools within the cap
// are returned unchanged with a zero bonus.
func Normalize(pool Pool) (Pool, int) {
	bonus := 0
	if pool.Roll > OverflowCap {
		pool.Keep += pool.Roll - OverflowCap
		pool.Roll = OverflowCap
	}
	if pool.Keep > OverflowCap {
		bonus = 2 * (pool.Keep - OverflowCap)
		pool.Keep = OverflowCap
	}
	return pool, bonus
}

// Roll rolls the pool against rng and keeps the highest dice.
//
// Roll is deterministic with respect to rng: two calls with identical
// generator state and identical pools produce identical Results. Ties
// between equal faces are broken by original roll order, earliest die
// first. The pool is validated before any die is drawn.
func Roll(rng *rand.Rand, pool Pool) (Result, error) {
	if err := pool.Validate(); err != nil {
		return Result{}, err
	}

	norm, bonus := Normalize(pool)
	dice := make([]Die, norm.Roll)
	capExceeded := false
	for i := range dice {
		face, exploded, capped := rollDie(rng, norm.Explode)
		dice[i] = Die{Face: face, Exploded: exploded}
		if capped {
			capExceeded = true
		}
	}

	total := selectKept(dice, norm.Keep, bonus)

	return Result{
		Pool:          norm,
		Dice:          dice,
		OverflowBonus: bonus,
		Total:         total,
		CapExceeded:   capExceeded,
	}, nil
}

// selectKept marks the keep highest dice as kept and returns their sum
// plus bonus. Equal faces are kept in original roll order.
func selectKept(dice []Die, keep, bonus int) int {
	order := make([]int, len(dice))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dice[order[a]].Face > dice[order[b]].Face
	})

	total := bonus
	for _, idx := range order[:keep] {
		dice[idx].Kept = true
		total += dice[idx].Face
	}
	return total
}

// rollDie rolls one d10, exploding maximum faces when explode is set.
// Returns the final face total, whether the die exploded, and whether
// the explosion chain hit ExplosionCap.
func rollDie(rng *rand.Rand, explode bool) (total int, exploded, capped bool) {
	face := rng.Intn(Sides) + 1
	total = face
	chain := 0
	for explode && face == Sides {
		exploded = true
		chain++
		if chain >= ExplosionCap {
			capped = true
			break
		}
		face = rng.Intn(Sides) + 1
		total += face
	}
	return total, exploded, capped
}
