package domain

import "fmt"

// Ring identifies one of the five elemental stats.
type Ring string

const (
	RingAir   Ring = "air"
	RingEarth Ring = "earth"
	RingFire  Ring = "fire"
	RingWater Ring = "water"
	RingVoid  Ring = "void"
)

// MinRing and MaxRing bound valid ring values.
const (
	MinRing = 1
	MaxRing = 9
)

// Rings holds the five elemental stat values for a combatant.
type Rings struct {
	Air   int `yaml:"air"`
	Earth int `yaml:"earth"`
	Fire  int `yaml:"fire"`
	Water int `yaml:"water"`
	Void  int `yaml:"void"`
}

// Get returns the value of the named ring, or zero for an unknown name.
func (r Rings) Get(ring Ring) int {
	switch ring {
	case RingAir:
		return r.Air
	case RingEarth:
		return r.Earth
	case RingFire:
		return r.Fire
	case RingWater:
		return r.Water
	case RingVoid:
		return r.Void
	default:
		return 0
	}
}

// Min returns the lowest ring value. Void points derive from it.
func (r Rings) Min() int {
	lowest := r.Air
	for _, value := range []int{r.Earth, r.Fire, r.Water, r.Void} {
		if value < lowest {
			lowest = value
		}
	}
	return lowest
}

// Validate checks that every ring is within the valid range.
func (r Rings) Validate() error {
	for _, ring := range []struct {
		name  Ring
		value int
	}{
		{RingAir, r.Air},
		{RingEarth, r.Earth},
		{RingFire, r.Fire},
		{RingWater, r.Water},
		{RingVoid, r.Void},
	} {
		if ring.value < MinRing || ring.value > MaxRing {
			return fmt.Errorf("%w: %s is %d", ErrInvalidRing, ring.name, ring.value)
		}
	}
	return nil
}

// ValidRing reports whether name is one of the five rings.
func ValidRing(name Ring) bool {
	switch name {
	case RingAir, RingEarth, RingFire, RingWater, RingVoid:
		return true
	default:
		return false
	}
}
