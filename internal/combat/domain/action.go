package domain

import (
	"errors"
	"fmt"
)

// ActionKind tags the closed set of declarable actions. Resolution
// switches exhaustively over the tag.
type ActionKind string

const (
	KindAttack  ActionKind = "attack"
	KindParry   ActionKind = "parry"
	KindAbility ActionKind = "ability"
	KindPass    ActionKind = "pass"
)

// ErrInvalidAction indicates a malformed action declaration.
var ErrInvalidAction = errors.New("invalid action")

// Action is the tagged variant a policy declares for a phase. Actions
// are values; once resolution begins they are never modified.
type Action struct {
	Kind      ActionKind `yaml:"kind" json:"kind"`
	TargetID  string     `yaml:"target,omitempty" json:"target,omitempty"`     // attack target or parried attacker
	AbilityID string     `yaml:"ability,omitempty" json:"ability,omitempty"`   // for KindAbility
}

// AttackAction declares an attack against target.
func AttackAction(targetID string) Action {
	return Action{Kind: KindAttack, TargetID: targetID}
}

// ParryAction declares a parry against an incoming attack from attacker.
func ParryAction(attackerID string) Action {
	return Action{Kind: KindParry, TargetID: attackerID}
}

// AbilityAction declares the use of a special ability.
func AbilityAction(abilityID string) Action {
	return Action{Kind: KindAbility, AbilityID: abilityID}
}

// PassAction declares no action for the phase.
func PassAction() Action {
	return Action{Kind: KindPass}
}

// Validate checks the action's shape. Target existence is the engine's
// concern; shape violations here are policy faults.
func (a Action) Validate() error {
	switch a.Kind {
	case KindAttack:
		if a.TargetID == "" {
			return fmt.Errorf("%w: attack requires a target", ErrInvalidAction)
		}
	case KindParry:
		if a.TargetID == "" {
			return fmt.Errorf("%w: parry requires an attacker", ErrInvalidAction)
		}
	case KindAbility:
		if a.AbilityID == "" {
			return fmt.Errorf("%w: ability action requires an ability id", ErrInvalidAction)
		}
	case KindPass:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, a.Kind)
	}
	return nil
}
