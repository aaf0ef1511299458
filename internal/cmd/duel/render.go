package duel

import (
	"fmt"
	"io"
	"strings"

	"github.com/okuden/duelsim/internal/combat/domain"
	"github.com/okuden/duelsim/internal/combat/engine"
	"github.com/okuden/duelsim/internal/combat/event"
)

// WriteTranscript renders the combat journal as a readable
// play-by-play, one line per event.
func WriteTranscript(w io.Writer, result engine.Result) error {
	for _, ev := range result.Events {
		line, ok := describe(ev)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func describe(ev event.Event) (string, bool) {
	switch ev.Type {
	case event.TypeRoundStarted:
		return fmt.Sprintf("== round %d ==", ev.Round), true
	case event.TypeInitiativeRolled:
		p, ok := ev.Payload.(event.InitiativePayload)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("  initiative %s: %d", ev.ActorID, p.Total), true
	case event.TypeOrderFixed:
		p, ok := ev.Payload.(event.OrderPayload)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("  order: %s", strings.Join(p.Order, ", ")), true
	case event.TypeActionDeclared:
		p, ok := ev.Payload.(event.DeclaredPayload)
		if !ok {
			return "", false
		}
		line := fmt.Sprintf("  %s declares %s", ev.ActorID, describeAction(p.Action))
		if p.Interrupt {
			line += " (in response)"
		}
		return line, true
	case event.TypeAttackResolved:
		p, ok := ev.Payload.(event.AttackPayload)
		if !ok {
			return "", false
		}
		return describeAttack(ev.ActorID, p), true
	case event.TypeAbilityResolved:
		p, ok := ev.Payload.(event.AbilityPayload)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("  %s uses %s (%s, %d void)", ev.ActorID, p.AbilityID, p.Effect, p.Cost), true
	case event.TypePolicyFault, event.TypeResourceFault, event.TypeRollTruncated:
		p, ok := ev.Payload.(event.FaultPayload)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("  ! %s: %s (%s)", ev.ActorID, p.Message, p.Code), true
	case event.TypeWoundApplied:
		p, ok := ev.Payload.(event.WoundPayload)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("  %s: %s -> %s", ev.ActorID, p.From, p.To), true
	case event.TypeHealed:
		p, ok := ev.Payload.(event.WoundPayload)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("  %s heals: %s -> %s", ev.ActorID, p.From, p.To), true
	case event.TypeIncapacitated:
		return fmt.Sprintf("  %s is out of the fight", ev.ActorID), true
	case event.TypeCombatEnded:
		p, ok := ev.Payload.(event.EndPayload)
		if !ok {
			return "", false
		}
		return describeEnd(p), true
	default:
		return "", false
	}
}

func describeAction(action domain.Action) string {
	switch action.Kind {
	case domain.KindAttack:
		return fmt.Sprintf("attack on %s", action.TargetID)
	case domain.KindParry:
		return fmt.Sprintf("parry against %s", action.TargetID)
	case domain.KindAbility:
		return fmt.Sprintf("ability %s", action.AbilityID)
	default:
		return "pass"
	}
}

func describeAttack(attackerID string, p event.AttackPayload) string {
	if p.Parried {
		return fmt.Sprintf("  %s attacks %s: %d vs parry %d, parried",
			attackerID, p.DefenderID, p.AttackTotal, p.ParryTotal)
	}
	if p.ParryAttempted {
		return fmt.Sprintf("  %s attacks %s: %d vs parry %d, hit for %d damage (+%d wounds)",
			attackerID, p.DefenderID, p.AttackTotal, p.ParryTotal, p.Damage, p.WoundDelta)
	}
	return fmt.Sprintf("  %s attacks %s: %d unopposed, hit for %d damage (+%d wounds)",
		attackerID, p.DefenderID, p.AttackTotal, p.Damage, p.WoundDelta)
}

func describeEnd(p event.EndPayload) string {
	switch engine.Verdict(p.Verdict) {
	case engine.VerdictWin:
		return fmt.Sprintf("result: %s wins after %d rounds", p.Winner, p.Rounds)
	case engine.VerdictDraw:
		return fmt.Sprintf("result: draw after %d rounds", p.Rounds)
	case engine.VerdictTimeout:
		return fmt.Sprintf("result: timeout after %d rounds", p.Rounds)
	default:
		return fmt.Sprintf("result: no verdict after %d rounds", p.Rounds)
	}
}
