// Package domain holds the combat value types: combatants, wounds,
// abilities, and declarable actions. Construction validates invariants;
// all mutation goes through methods that preserve them.
package domain

import (
	"errors"
	"fmt"

	"github.com/okuden/duelsim/internal/dice"
)

var (
	// ErrEmptyID indicates a combatant definition without an id.
	ErrEmptyID = errors.New("combatant id is required")
	// ErrEmptySide indicates a combatant definition without a side.
	ErrEmptySide = errors.New("combatant side is required")
	// ErrInvalidRing indicates a ring value outside the valid range.
	ErrInvalidRing = errors.New("ring value out of range")
	// ErrInvalidSkill indicates a negative skill rating.
	ErrInvalidSkill = errors.New("skill rating must be non-negative")
	// ErrInvalidArmor indicates a negative armor reduction.
	ErrInvalidArmor = errors.New("armor reduction must be non-negative")
	// ErrInvalidAbility indicates a malformed special ability.
	ErrInvalidAbility = errors.New("invalid ability")
	// ErrDuplicateAbility indicates two abilities sharing an id.
	ErrDuplicateAbility = errors.New("duplicate ability id")
	// ErrUnknownAbility indicates a reference to an ability the
	// combatant does not have.
	ErrUnknownAbility = errors.New("unknown ability")
	// ErrInsufficientVoid indicates an ability cost exceeding the
	// available void points.
	ErrInsufficientVoid = errors.New("insufficient void points")
	// ErrWoundRegression indicates an attempt to lower a wound level
	// outside an explicit heal.
	ErrWoundRegression = errors.New("wound level may not decrease")
)

// Definition describes a combatant before combat. It is the well-typed
// in-memory representation an external loader produces.
type Definition struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Side      string    `yaml:"side"`
	Rings     Rings     `yaml:"rings"`
	Attack    int       `yaml:"attack"`
	Parry     int       `yaml:"parry"`
	Armor     int       `yaml:"armor"`
	ExtraVoid int       `yaml:"extra_void"`
	Abilities []Ability `yaml:"abilities"`
}

// Validate checks definition invariants without building a combatant.
func (d Definition) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if d.Side == "" {
		return fmt.Errorf("%w: combatant %q", ErrEmptySide, d.ID)
	}
	if err := d.Rings.Validate(); err != nil {
		return fmt.Errorf("combatant %q: %w", d.ID, err)
	}
	if d.Attack < 0 || d.Parry < 0 {
		return fmt.Errorf("%w: combatant %q", ErrInvalidSkill, d.ID)
	}
	if d.Armor < 0 {
		return fmt.Errorf("%w: combatant %q", ErrInvalidArmor, d.ID)
	}
	if d.ExtraVoid < 0 {
		return fmt.Errorf("combatant %q: extra void must be non-negative", d.ID)
	}
	seen := make(map[string]bool, len(d.Abilities))
	for _, ability := range d.Abilities {
		if err := ability.Validate(); err != nil {
			return fmt.Errorf("combatant %q: %w", d.ID, err)
		}
		if seen[ability.ID] {
			return fmt.Errorf("%w: combatant %q ability %q", ErrDuplicateAbility, d.ID, ability.ID)
		}
		seen[ability.ID] = true
	}
	return nil
}

// Combatant is a single fighter's in-combat state. Create one per
// combat with NewCombatant; instances are never shared between runs.
type Combatant struct {
	ID    string
	Name  string
	Side  string
	Rings Rings

	Attack int // attack skill rating
	Parry  int // parry skill rating
	Armor  int // flat damage reduction

	Wound      WoundLevel
	VoidPoints int

	// InitiativeTotal is the current round's kept initiative sum.
	// Recomputed every round by the engine.
	InitiativeTotal int

	abilities    map[string]Ability
	abilityOrder []string
	spent        map[string]bool
}

// NewCombatant validates a definition and builds a fresh combatant.
// Void points start at the lowest ring plus any extras.
func NewCombatant(def Definition) (*Combatant, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	name := def.Name
	if name == "" {
		name = def.ID
	}

	abilities := make(map[string]Ability, len(def.Abilities))
	order := make([]string, 0, len(def.Abilities))
	for _, ability := range def.Abilities {
		abilities[ability.ID] = ability
		order = append(order, ability.ID)
	}

	return &Combatant{
		ID:           def.ID,
		Name:         name,
		Side:         def.Side,
		Rings:        def.Rings,
		Attack:       def.Attack,
		Parry:        def.Parry,
		Armor:        def.Armor,
		Wound:        WoundHealthy,
		VoidPoints:   def.Rings.Min() + def.ExtraVoid,
		abilities:    abilities,
		abilityOrder: order,
		spent:        make(map[string]bool),
	}, nil
}

// Conscious reports whether the combatant can still act.
func (c *Combatant) Conscious() bool {
	return !c.Wound.Incapacitated()
}

// AttackPool returns the attack dice pool: (Fire + Attack)k(Fire),
// exploding.
func (c *Combatant) AttackPool() dice.Pool {
	return dice.Pool{
		Roll:    c.Rings.Fire + c.Attack,
		Keep:    c.Rings.Fire,
		Explode: true,
	}
}

// ParryPool returns the parry dice pool: (Air + Parry)k(Air), exploding.
func (c *Combatant) ParryPool() dice.Pool {
	return dice.Pool{
		Roll:    c.Rings.Air + c.Parry,
		Keep:    c.Rings.Air,
		Explode: true,
	}
}

// InitiativePool returns the initiative pool: (Void + 1)k(Void),
// without explosion so replays stay bounded.
func (c *Combatant) InitiativePool() dice.Pool {
	return dice.Pool{
		Roll: c.Rings.Void + 1,
		Keep: c.Rings.Void,
	}
}

// Abilities returns the combatant's still-usable abilities in
// definition order, so policy decisions stay deterministic.
func (c *Combatant) Abilities() []Ability {
	available := make([]Ability, 0, len(c.abilityOrder))
	for _, id := range c.abilityOrder {
		ability := c.abilities[id]
		if ability.OneUse && c.spent[id] {
			continue
		}
		available = append(available, ability)
	}
	return available
}

// AbilityByID looks up a usable ability.
func (c *Combatant) AbilityByID(id string) (Ability, error) {
	ability, ok := c.abilities[id]
	if !ok {
		return Ability{}, fmt.Errorf("%w: %q", ErrUnknownAbility, id)
	}
	if ability.OneUse && c.spent[id] {
		return Ability{}, fmt.Errorf("%w: %q already used", ErrUnknownAbility, id)
	}
	return ability, nil
}

// PayAbility deducts an ability's cost and marks one-use abilities
// spent. The deduction is atomic: on any error nothing changes.
func (c *Combatant) PayAbility(id string) (Ability, error) {
	ability, err := c.AbilityByID(id)
	if err != nil {
		return Ability{}, err
	}
	if ability.Cost > c.VoidPoints {
		return Ability{}, fmt.Errorf("%w: ability %q costs %d, %d available",
			ErrInsufficientVoid, id, ability.Cost, c.VoidPoints)
	}
	c.VoidPoints -= ability.Cost
	if ability.OneUse {
		c.spent[id] = true
	}
	return ability, nil
}

// ApplyWound raises the wound level by steps, clamped at WoundDead.
// Negative steps violate the monotonicity invariant and are rejected.
func (c *Combatant) ApplyWound(steps int) (WoundLevel, error) {
	if steps < 0 {
		return c.Wound, fmt.Errorf("%w: combatant %q step %d", ErrWoundRegression, c.ID, steps)
	}
	c.Wound = c.Wound.Advance(steps)
	return c.Wound, nil
}

// Heal lowers the wound level by steps, floored at WoundHealthy. Only
// an explicit heal ability effect reaches this path; the engine records
// the transition in the combat log.
func (c *Combatant) Heal(steps int) WoundLevel {
	if steps <= 0 {
		return c.Wound
	}
	next := c.Wound - WoundLevel(steps)
	if next < WoundHealthy {
		next = WoundHealthy
	}
	c.Wound = next
	return c.Wound
}
