// Package random provides seed generation and derivation helpers.
//
// It uses crypto/rand for high-entropy base seeds and a splitmix64 mix
// for deriving deterministic per-run seeds in batch simulations.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// DeriveSeed deterministically derives a child seed from a base seed and
// a sequence of coordinates (e.g. matchup index, run index). Equal
// inputs always produce equal outputs; distinct coordinates produce
// well-spread outputs via splitmix64 steps.
func DeriveSeed(base int64, coords ...int64) int64 {
	state := uint64(base)
	for _, coord := range coords {
		state += uint64(coord)*0x9e3779b97f4a7c15 + 0x9e3779b97f4a7c15
		state = mix64(state)
	}
	return int64(mix64(state))
}

// mix64 is the splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
