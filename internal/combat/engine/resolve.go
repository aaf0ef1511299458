package engine

import (
	"errors"
	"fmt"

	"github.com/okuden/duelsim/internal/combat/domain"
	"github.com/okuden/duelsim/internal/combat/event"
	"github.com/okuden/duelsim/internal/dice"
	perrors "github.com/okuden/duelsim/internal/platform/errors"
)

// resolve plays the round's declarations in declaration order and
// returns the wound-level increments owed per combatant. Wound states
// do not change during resolution: every exchange is judged against the
// round's opening state, so declaration order never hides a combatant
// behind a mid-round incapacitation.
func (e *Engine) resolve(declarations []declaration) (map[string]int, error) {
	byActor := make(map[string]domain.Action, len(declarations))
	for _, decl := range declarations {
		byActor[decl.actorID] = decl.action
	}

	pending := make(map[string]int)
	for _, decl := range declarations {
		switch decl.action.Kind {
		case domain.KindPass, domain.KindParry:
			// A parry resolves as part of the attack it answers.
		case domain.KindAbility:
			e.resolveAbility(decl.actorID, decl.action)
		case domain.KindAttack:
			delta, err := e.resolveAttack(decl.actorID, decl.action, byActor)
			if err != nil {
				return nil, err
			}
			pending[decl.action.TargetID] += delta
		default:
			return nil, perrors.New(perrors.CodeCombatIntegrity,
				fmt.Sprintf("unresolvable action kind %q from %q", decl.action.Kind, decl.actorID))
		}
	}
	return pending, nil
}

// resolveAbility pays for and applies a declared ability. An unpayable
// cost is a resource fault: the action lapses to a pass with the fault
// journaled and nothing deducted.
func (e *Engine) resolveAbility(actorID string, action domain.Action) {
	actor := e.byID[actorID]
	ability, err := actor.PayAbility(action.AbilityID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientVoid) {
			e.fault(PhaseResolution, actorID, event.TypeResourceFault,
				perrors.CodeCombatInsufficientVoid, err.Error())
		} else {
			e.fault(PhaseResolution, actorID, event.TypePolicyFault,
				perrors.CodePolicyFault, err.Error())
		}
		return
	}

	buffs := e.buffs[actorID]
	switch ability.Effect {
	case domain.EffectExtraAttackDice:
		buffs.attackDice += ability.Magnitude
	case domain.EffectExtraParryDice:
		buffs.parryDice += ability.Magnitude
	case domain.EffectReroll:
		buffs.rerolls += ability.Magnitude
	case domain.EffectHeal:
		from := actor.Wound
		to := actor.Heal(ability.Magnitude)
		e.append(PhaseResolution, actorID, event.TypeHealed,
			event.WoundPayload{From: from, To: to})
	}

	e.append(PhaseResolution, actorID, event.TypeAbilityResolved, event.AbilityPayload{
		AbilityID: ability.ID,
		Effect:    ability.Effect,
		Cost:      ability.Cost,
	})
}

// resolveAttack rolls one attack exchange and returns the defender's
// wound-level increment. The defender's parry counts only when it was
// declared against this attacker. Ties go to the defender. Rerolls fire
// defender first: a failed parry is rerolled before a parried attack is.
func (e *Engine) resolveAttack(actorID string, action domain.Action, byActor map[string]domain.Action) (int, error) {
	attacker := e.byID[actorID]
	defender := e.byID[action.TargetID]

	attack, err := e.rollAttack(attacker)
	if err != nil {
		return 0, err
	}

	parryAttempted := false
	parry := dice.Result{}
	if response, ok := byActor[defender.ID]; ok &&
		response.Kind == domain.KindParry && response.TargetID == attacker.ID {
		parryAttempted = true
		parry, err = e.rollParry(defender)
		if err != nil {
			return 0, err
		}
		if parry.Total < attack.Total && e.spendReroll(defender.ID) {
			parry, err = e.rollParry(defender)
			if err != nil {
				return 0, err
			}
		}
	}

	parried := parryAttempted && parry.Total >= attack.Total
	if parried && e.spendReroll(attacker.ID) {
		attack, err = e.rollAttack(attacker)
		if err != nil {
			return 0, err
		}
		parried = parry.Total >= attack.Total
	}

	damage := 0
	delta := 0
	if !parried {
		damage = attack.Total - defender.Armor
		if damage < 0 {
			damage = 0
		}
		delta = e.cfg.WoundDelta(damage)
	}

	payload := event.AttackPayload{
		DefenderID:     defender.ID,
		AttackTotal:    attack.Total,
		ParryAttempted: parryAttempted,
		Parried:        parried,
		Damage:         damage,
		WoundDelta:     delta,
	}
	if parryAttempted {
		payload.ParryTotal = parry.Total
	}
	e.append(PhaseResolution, actorID, event.TypeAttackResolved, payload)

	return delta, nil
}

// rollAttack rolls the attacker's pool, consuming any banked extra
// attack dice.
func (e *Engine) rollAttack(c *domain.Combatant) (dice.Result, error) {
	buffs := e.buffs[c.ID]
	pool := c.AttackPool().Add(buffs.attackDice, 0)
	buffs.attackDice = 0
	return e.roll(c.ID, pool)
}

// rollParry rolls the defender's pool, consuming any banked extra parry
// dice.
func (e *Engine) rollParry(c *domain.Combatant) (dice.Result, error) {
	buffs := e.buffs[c.ID]
	pool := c.ParryPool().Add(buffs.parryDice, 0)
	buffs.parryDice = 0
	return e.roll(c.ID, pool)
}

// roll draws a pool, journaling a truncation fault when the explosion
// cap was hit. Pool errors here mean corrupted state and are fatal.
func (e *Engine) roll(actorID string, pool dice.Pool) (dice.Result, error) {
	result, err := dice.Roll(e.rng, pool)
	if err != nil {
		return dice.Result{}, perrors.Wrap(perrors.CodeCombatIntegrity,
			fmt.Sprintf("roll for %q", actorID), err)
	}
	if result.CapExceeded {
		e.fault(PhaseResolution, actorID, event.TypeRollTruncated,
			perrors.CodeDiceExplosionCap, "exploding die chain truncated at cap")
	}
	return result, nil
}

// spendReroll consumes one banked reroll if any remain.
func (e *Engine) spendReroll(actorID string) bool {
	buffs := e.buffs[actorID]
	if buffs.rerolls == 0 {
		return false
	}
	buffs.rerolls--
	return true
}

// applyConsequences applies the round's accumulated wound increments in
// definition order, journaling each transition and any incapacitation.
func (e *Engine) applyConsequences(pending map[string]int) error {
	for _, c := range e.fighters {
		delta := pending[c.ID]
		if delta == 0 {
			continue
		}
		wasConscious := c.Conscious()
		from := c.Wound
		to, err := c.ApplyWound(delta)
		if err != nil {
			return perrors.Wrap(perrors.CodeCombatWoundRegression,
				fmt.Sprintf("consequence for %q", c.ID), err)
		}
		e.append(PhaseConsequence, c.ID, event.TypeWoundApplied,
			event.WoundPayload{From: from, To: to})
		if wasConscious && !c.Conscious() {
			e.append(PhaseConsequence, c.ID, event.TypeIncapacitated, nil)
		}
	}
	return nil
}
