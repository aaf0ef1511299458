// Package policy defines the decision contract that drives combatants.
//
// A Policy is a pure function of the view it is given: no hidden
// mutable state, so the simulation harness can vary parameters per run
// without cross-run contamination. Concrete policies are registered by
// name and constructed from a Config.
package policy

import (
	"errors"
	"fmt"

	"github.com/okuden/duelsim/internal/combat/domain"
	"github.com/okuden/duelsim/internal/combat/event"
	"github.com/okuden/duelsim/internal/dice"
)

// ErrUnknownPolicy indicates a policy name with no registration.
var ErrUnknownPolicy = errors.New("unknown policy")

// CombatantView is a read-only snapshot of a combatant as visible to a
// deciding policy.
type CombatantView struct {
	ID         string
	Name       string
	Side       string
	Wound      domain.WoundLevel
	Armor      int
	VoidPoints int
	Conscious  bool

	AttackPool dice.Pool
	ParryPool  dice.Pool

	InitiativeTotal int

	// Abilities lists still-usable abilities. Populated for Self only.
	Abilities []domain.Ability
	// PendingAttackDice, PendingParryDice, and PendingRerolls expose
	// buffs already banked from earlier ability actions. Self only.
	PendingAttackDice int
	PendingParryDice  int
	PendingRerolls    int
}

// PendingAttack marks a decision as an interrupt response to an attack
// declared against Self earlier in the same declaration phase.
type PendingAttack struct {
	AttackerID string
}

// View bundles everything a policy may consult for one decision.
// Allies and Enemies are sorted by combatant ID.
type View struct {
	Self    CombatantView
	Allies  []CombatantView
	Enemies []CombatantView
	Round   int
	// PendingAttack is non-nil when the decision is an interrupt
	// response; the returned action becomes this combatant's
	// declaration for the round.
	PendingAttack *PendingAttack
	// History is the combat journal so far.
	History []event.Event
}

// Enemy looks up an enemy view by combatant ID.
func (v View) Enemy(id string) (CombatantView, bool) {
	for _, enemy := range v.Enemies {
		if enemy.ID == id {
			return enemy, true
		}
	}
	return CombatantView{}, false
}

// Policy chooses a combatant's action for a declaration.
type Policy interface {
	// Name returns the registered policy name.
	Name() string
	// Decide returns the action to declare. Errors and malformed
	// actions are treated as policy faults by the engine: the
	// combatant passes and the fault is journaled.
	Decide(view View) (domain.Action, error)
}

// Config names a policy and carries its tunable parameters.
type Config struct {
	Name string `yaml:"name"`
	// Params holds threshold-style numeric tunables.
	Params map[string]float64 `yaml:"params,omitempty"`
	// Script holds Lua source for the lua policy.
	Script string `yaml:"script,omitempty"`
	// Actions holds the per-round sequence for the script policy.
	Actions []domain.Action `yaml:"actions,omitempty"`
	// Respond sets the script policy's interrupt response kind.
	Respond domain.ActionKind `yaml:"respond,omitempty"`
}

// Factory builds a policy instance from its configuration.
type Factory func(cfg Config) (Policy, error)

var registry = map[string]Factory{
	NameThreshold: newThreshold,
	NameScript:    newScript,
	NameLua:       newLua,
}

// Register adds a named policy factory. Registering an existing name
// replaces it.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New builds a policy from a config using the named registration.
func New(cfg Config) (Policy, error) {
	factory, ok := registry[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, cfg.Name)
	}
	return factory(cfg)
}

// param reads a numeric tunable with a fallback default.
func param(params map[string]float64, key string, fallback float64) float64 {
	if value, ok := params[key]; ok {
		return value
	}
	return fallback
}

// estimateTotal is a coarse expected kept sum for a roll-and-keep pool:
// roughly seven per kept die plus one per unkept die. Policies use it
// for damage projection; it never touches the RNG.
func estimateTotal(pool dice.Pool) int {
	norm, bonus := dice.Normalize(pool)
	return bonus + 7*norm.Keep + (norm.Roll - norm.Keep)
}
