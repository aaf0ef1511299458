package policy

import (
	"github.com/okuden/duelsim/internal/combat/domain"
)

// NameScript is the registered name of the scripted policy.
const NameScript = "script"

// script plays a fixed per-round action sequence. Round one plays the
// first action, round two the second, and so on; past the end it
// passes. Attacks with no explicit target go to the first conscious
// enemy by ID. Scripted fighters make reproducible fixtures for tests
// and for probing a single mechanic in isolation.
type script struct {
	actions []domain.Action
	respond domain.ActionKind
}

func newScript(cfg Config) (Policy, error) {
	actions := make([]domain.Action, len(cfg.Actions))
	copy(actions, cfg.Actions)
	return &script{actions: actions, respond: cfg.Respond}, nil
}

func (p *script) Name() string { return NameScript }

func (p *script) Decide(view View) (domain.Action, error) {
	if view.PendingAttack != nil && p.respond == domain.KindParry {
		return domain.ParryAction(view.PendingAttack.AttackerID), nil
	}

	idx := view.Round - 1
	if idx < 0 || idx >= len(p.actions) {
		return domain.PassAction(), nil
	}

	action := p.actions[idx]
	if action.Kind == domain.KindAttack && action.TargetID == "" {
		target, ok := firstConscious(view.Enemies)
		if !ok {
			return domain.PassAction(), nil
		}
		action.TargetID = target
	}
	return action, nil
}

func firstConscious(enemies []CombatantView) (string, bool) {
	for _, enemy := range enemies {
		if enemy.Conscious {
			return enemy.ID, true
		}
	}
	return "", false
}
