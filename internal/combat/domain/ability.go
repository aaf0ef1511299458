package domain

import "fmt"

// Effect identifies what a special ability does. The set is closed;
// resolution switches exhaustively over it.
type Effect string

const (
	// EffectExtraAttackDice adds rolled dice to the owner's next attack roll.
	EffectExtraAttackDice Effect = "extra_attack_dice"
	// EffectExtraParryDice adds rolled dice to the owner's next parry roll.
	EffectExtraParryDice Effect = "extra_parry_dice"
	// EffectReroll grants a one-time reroll of the owner's next failed
	// attack or parry roll.
	EffectReroll Effect = "reroll"
	// EffectHeal lowers the owner's wound level. This is the only
	// sanctioned downward wound transition and is recorded explicitly.
	EffectHeal Effect = "heal"
)

// ValidEffect reports whether effect is a known ability effect.
func ValidEffect(effect Effect) bool {
	switch effect {
	case EffectExtraAttackDice, EffectExtraParryDice, EffectReroll, EffectHeal:
		return true
	default:
		return false
	}
}

// Ability is a special ability a combatant may invoke as a declared
// action. Cost is paid in void points, atomically with the effect.
type Ability struct {
	ID        string `yaml:"id"`
	Cost      int    `yaml:"cost"`
	Effect    Effect `yaml:"effect"`
	Magnitude int    `yaml:"magnitude"`
	OneUse    bool   `yaml:"one_use"`
}

// Validate checks ability invariants.
func (a Ability) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: ability id is empty", ErrInvalidAbility)
	}
	if a.Cost < 0 {
		return fmt.Errorf("%w: ability %q has negative cost", ErrInvalidAbility, a.ID)
	}
	if !ValidEffect(a.Effect) {
		return fmt.Errorf("%w: ability %q has unknown effect %q", ErrInvalidAbility, a.ID, a.Effect)
	}
	if a.Magnitude < 1 {
		return fmt.Errorf("%w: ability %q needs a positive magnitude", ErrInvalidAbility, a.ID)
	}
	return nil
}
