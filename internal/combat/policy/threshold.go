package policy

import (
	"github.com/okuden/duelsim/internal/combat/domain"
)

// NameThreshold is the registered name of the threshold policy.
const NameThreshold = "threshold"

// Threshold tunables and their defaults.
const (
	// defaultParryFraction: parry when the projected damage exceeds
	// this fraction of the remaining wound capacity.
	defaultParryFraction = 0.5
	// defaultCapacityStep: damage points assumed per remaining wound
	// level when projecting capacity.
	defaultCapacityStep = 10
	// defaultVoidReserve: void points kept back from ability spending.
	defaultVoidReserve = 1
	// defaultHealAt: wound level at which a heal ability fires.
	defaultHealAt = float64(domain.WoundSerious)
)

// threshold is a deterministic heuristic policy. It parries incoming
// attacks that project past a fraction of its remaining wound capacity,
// heals once badly hurt, banks attack buffs while it can afford them,
// and otherwise attacks the softest conscious enemy.
type threshold struct {
	parryFraction float64
	capacityStep  int
	voidReserve   int
	healAt        domain.WoundLevel
}

func newThreshold(cfg Config) (Policy, error) {
	return &threshold{
		parryFraction: param(cfg.Params, "parry_fraction", defaultParryFraction),
		capacityStep:  int(param(cfg.Params, "capacity_step", defaultCapacityStep)),
		voidReserve:   int(param(cfg.Params, "void_reserve", defaultVoidReserve)),
		healAt:        domain.WoundLevel(param(cfg.Params, "heal_at", defaultHealAt)),
	}, nil
}

func (p *threshold) Name() string { return NameThreshold }

func (p *threshold) Decide(view View) (domain.Action, error) {
	if view.PendingAttack != nil {
		if p.shouldParry(view, view.PendingAttack.AttackerID) {
			return domain.ParryAction(view.PendingAttack.AttackerID), nil
		}
		// Not worth a parry; the response becomes the regular
		// declaration for the round.
	}

	if ability, ok := p.affordable(view, domain.EffectHeal); ok && view.Self.Wound >= p.healAt {
		return domain.AbilityAction(ability.ID), nil
	}

	if view.Self.PendingAttackDice == 0 {
		if ability, ok := p.affordable(view, domain.EffectExtraAttackDice); ok {
			return domain.AbilityAction(ability.ID), nil
		}
	}

	if target, ok := p.softestEnemy(view); ok {
		return domain.AttackAction(target), nil
	}
	return domain.PassAction(), nil
}

// shouldParry projects the attacker's expected damage against the
// remaining wound capacity.
func (p *threshold) shouldParry(view View, attackerID string) bool {
	attacker, ok := view.Enemy(attackerID)
	if !ok {
		return false
	}
	projected := estimateTotal(attacker.AttackPool) - view.Self.Armor
	if projected < 0 {
		projected = 0
	}
	capacity := int(domain.WoundDead-view.Self.Wound) * p.capacityStep
	return float64(projected) > p.parryFraction*float64(capacity)
}

// affordable finds the first usable ability with the given effect whose
// cost leaves the void reserve intact.
func (p *threshold) affordable(view View, effect domain.Effect) (domain.Ability, bool) {
	for _, ability := range view.Self.Abilities {
		if ability.Effect != effect {
			continue
		}
		if view.Self.VoidPoints-ability.Cost < p.voidReserve {
			continue
		}
		return ability, true
	}
	return domain.Ability{}, false
}

// softestEnemy picks the conscious enemy with the weakest parry pool,
// ties broken by the ID ordering of view.Enemies.
func (p *threshold) softestEnemy(view View) (string, bool) {
	var (
		best    string
		bestEst int
		found   bool
	)
	for _, enemy := range view.Enemies {
		if !enemy.Conscious {
			continue
		}
		est := estimateTotal(enemy.ParryPool)
		if !found || est < bestEst {
			best, bestEst, found = enemy.ID, est, true
		}
	}
	return best, found
}
