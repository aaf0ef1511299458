// Package engine runs a single combat through its phase loop:
// initiative, declaration, resolution, consequence, repeated per round
// until one side stands, both fall, or the round limit passes.
//
// Policy failures are recovered: the combatant passes and the fault is
// journaled. Only integrity violations abort a combat, and they abort
// that one combat only.
package engine

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/okuden/duelsim/internal/combat/domain"
	"github.com/okuden/duelsim/internal/combat/event"
	"github.com/okuden/duelsim/internal/combat/policy"
	"github.com/okuden/duelsim/internal/dice"
	perrors "github.com/okuden/duelsim/internal/platform/errors"
)

// Phase names recorded in journal events.
const (
	PhaseInitiative  = "initiative"
	PhaseDeclaration = "declaration"
	PhaseResolution  = "resolution"
	PhaseConsequence = "consequence"
	PhaseRoundEnd    = "round_end"
)

// Verdict is the terminal outcome of a combat.
type Verdict string

const (
	// VerdictWin means exactly one side had conscious combatants left.
	VerdictWin Verdict = "win"
	// VerdictDraw means no side had conscious combatants left.
	VerdictDraw Verdict = "draw"
	// VerdictTimeout means the round limit passed with both sides up.
	VerdictTimeout Verdict = "timeout"
)

// Fighter pairs a combatant definition with the policy driving it.
type Fighter struct {
	Definition domain.Definition `yaml:"definition"`
	Policy     policy.Config     `yaml:"policy"`
}

// Setup describes one combat: who fights, how they decide, the rules,
// and the seed. Identical setups produce identical results.
type Setup struct {
	Fighters []Fighter `yaml:"fighters"`
	Rules    Config    `yaml:"rules"`
	Seed     int64     `yaml:"seed"`
}

// Result is the outcome of a completed combat.
type Result struct {
	Verdict Verdict                      `json:"verdict"`
	Winner  string                       `json:"winner,omitempty"` // winning side for VerdictWin
	Rounds  int                          `json:"rounds"`
	Wounds  map[string]domain.WoundLevel `json:"wounds"`
	Events  []event.Event                `json:"events"`
}

// buffState tracks banked ability effects awaiting the roll they target.
type buffState struct {
	attackDice int
	parryDice  int
	rerolls    int
}

// Engine drives one combat. Build with New, run once with Run.
type Engine struct {
	cfg      Config
	rng      *rand.Rand
	fighters []*domain.Combatant // definition order
	byID     map[string]*domain.Combatant
	policies map[string]policy.Policy
	buffs    map[string]*buffState
	log      *event.Log
	round    int
}

// New validates a setup and builds an engine for a single run.
func New(setup Setup) (*Engine, error) {
	cfg := setup.Rules.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(setup.Fighters) < 2 {
		return nil, perrors.New(perrors.CodeCombatInsufficientSides,
			fmt.Sprintf("need at least two fighters, got %d", len(setup.Fighters)))
	}

	e := &Engine{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(setup.Seed)),
		byID:     make(map[string]*domain.Combatant, len(setup.Fighters)),
		policies: make(map[string]policy.Policy, len(setup.Fighters)),
		buffs:    make(map[string]*buffState, len(setup.Fighters)),
		log:      &event.Log{},
	}

	sides := make(map[string]bool)
	for _, fighter := range setup.Fighters {
		combatant, err := domain.NewCombatant(fighter.Definition)
		if err != nil {
			return nil, perrors.Wrap(perrors.CodeCombatInvalidDefinition,
				fmt.Sprintf("fighter %q", fighter.Definition.ID), err)
		}
		if _, dup := e.byID[combatant.ID]; dup {
			return nil, perrors.WithMetadata(perrors.CodeCombatDuplicateCombatant,
				fmt.Sprintf("duplicate combatant id %q", combatant.ID),
				map[string]string{"combatant": combatant.ID})
		}
		if fighter.Policy.Name == "" {
			return nil, perrors.WithMetadata(perrors.CodeCombatMissingPolicy,
				fmt.Sprintf("fighter %q has no policy", combatant.ID),
				map[string]string{"combatant": combatant.ID})
		}
		p, err := policy.New(fighter.Policy)
		if err != nil {
			return nil, perrors.Wrap(perrors.CodePolicyUnknown,
				fmt.Sprintf("fighter %q policy %q", combatant.ID, fighter.Policy.Name), err)
		}

		e.fighters = append(e.fighters, combatant)
		e.byID[combatant.ID] = combatant
		e.policies[combatant.ID] = p
		e.buffs[combatant.ID] = &buffState{}
		sides[combatant.Side] = true
	}
	if len(sides) < 2 {
		return nil, perrors.New(perrors.CodeCombatInsufficientSides,
			fmt.Sprintf("need at least two sides, got %d", len(sides)))
	}

	return e, nil
}

// Run plays the combat to its verdict. It may be called once.
func (e *Engine) Run() (Result, error) {
	var verdict Verdict
	var winner string

	for {
		if e.round >= e.cfg.MaxRounds {
			verdict = VerdictTimeout
			break
		}
		e.round++

		e.append(PhaseInitiative, "", event.TypeRoundStarted, nil)
		order, err := e.rollInitiative()
		if err != nil {
			return Result{}, err
		}

		declarations := e.declare(order)

		pending, err := e.resolve(declarations)
		if err != nil {
			return Result{}, err
		}
		if err := e.applyConsequences(pending); err != nil {
			return Result{}, err
		}

		if v, side, done := e.checkEnd(); done {
			verdict, winner = v, side
			break
		}
	}

	e.log.Append(event.Event{
		Round: e.round,
		Phase: PhaseRoundEnd,
		Type:  event.TypeCombatEnded,
		Payload: event.EndPayload{
			Verdict: string(verdict),
			Winner:  winner,
			Rounds:  e.round,
		},
	})

	wounds := make(map[string]domain.WoundLevel, len(e.fighters))
	for _, c := range e.fighters {
		wounds[c.ID] = c.Wound
	}
	return Result{
		Verdict: verdict,
		Winner:  winner,
		Rounds:  e.round,
		Wounds:  wounds,
		Events:  e.log.Events(),
	}, nil
}

// rollInitiative rolls every conscious combatant's initiative pool and
// returns the round's acting order: descending kept total, ties by the
// tie-break ring, then ascending combatant ID.
func (e *Engine) rollInitiative() ([]string, error) {
	var acting []*domain.Combatant
	for _, c := range e.fighters {
		if !c.Conscious() {
			continue
		}
		result, err := dice.Roll(e.rng, c.InitiativePool())
		if err != nil {
			return nil, perrors.Wrap(perrors.CodeCombatIntegrity,
				fmt.Sprintf("initiative roll for %q", c.ID), err)
		}
		c.InitiativeTotal = result.Total
		e.append(PhaseInitiative, c.ID, event.TypeInitiativeRolled,
			event.InitiativePayload{Total: result.Total})
		acting = append(acting, c)
	}

	sort.SliceStable(acting, func(i, j int) bool {
		a, b := acting[i], acting[j]
		if a.InitiativeTotal != b.InitiativeTotal {
			return a.InitiativeTotal > b.InitiativeTotal
		}
		at, bt := a.Rings.Get(e.cfg.TieBreak), b.Rings.Get(e.cfg.TieBreak)
		if at != bt {
			return at > bt
		}
		return a.ID < b.ID
	})

	order := make([]string, len(acting))
	for i, c := range acting {
		order[i] = c.ID
	}
	e.append(PhaseInitiative, "", event.TypeOrderFixed, event.OrderPayload{Order: order})
	return order, nil
}

// declaration pairs an actor with its vetted declared action.
type declaration struct {
	actorID string
	action  domain.Action
}

// declare walks the initiative order asking each policy for an action.
// An attack against a combatant who has not yet declared interrupts the
// walk: the defender is asked for a response immediately, and that
// response stands as the defender's declaration for the round. A
// response that is itself such an attack chains the interrupt, so every
// pending attack has its defender on record before the walk resumes.
func (e *Engine) declare(order []string) []declaration {
	declared := make(map[string]bool, len(order))
	declarations := make([]declaration, 0, len(order))

	var record func(id string, action domain.Action, interrupt bool)
	record = func(id string, action domain.Action, interrupt bool) {
		declared[id] = true
		declarations = append(declarations, declaration{actorID: id, action: action})
		e.append(PhaseDeclaration, id, event.TypeActionDeclared,
			event.DeclaredPayload{Action: action, Interrupt: interrupt})

		if action.Kind != domain.KindAttack {
			return
		}
		defenderID := action.TargetID
		if declared[defenderID] || !e.byID[defenderID].Conscious() {
			return
		}
		response := e.vet(defenderID, e.decide(defenderID, &policy.PendingAttack{AttackerID: id}))
		record(defenderID, response, true)
	}

	for _, id := range order {
		if !declared[id] {
			record(id, e.vet(id, e.decide(id, nil)), false)
		}
	}
	return declarations
}

// decide invokes a policy, recovering panics into a policy fault. The
// fault surfaces as an invalid action so vet downgrades it to Pass.
func (e *Engine) decide(actorID string, pending *policy.PendingAttack) (action domain.Action) {
	defer func() {
		if r := recover(); r != nil {
			e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
				perrors.CodePolicyFault, fmt.Sprintf("policy panic: %v", r))
			action = domain.PassAction()
		}
	}()

	decided, err := e.policies[actorID].Decide(e.view(actorID, pending))
	if err != nil {
		e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
			perrors.CodePolicyFault, fmt.Sprintf("policy error: %v", err))
		return domain.PassAction()
	}
	return decided
}

// vet downgrades malformed or impossible declarations to Pass with a
// journaled fault. Resource checks happen later, at resolution.
func (e *Engine) vet(actorID string, action domain.Action) domain.Action {
	if err := action.Validate(); err != nil {
		e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
			perrors.CodePolicyFault, err.Error())
		return domain.PassAction()
	}

	actor := e.byID[actorID]
	switch action.Kind {
	case domain.KindAttack:
		target, ok := e.byID[action.TargetID]
		switch {
		case !ok:
			e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
				perrors.CodePolicyFault, fmt.Sprintf("attack target %q does not exist", action.TargetID))
			return domain.PassAction()
		case target.Side == actor.Side:
			e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
				perrors.CodePolicyFault, fmt.Sprintf("attack target %q is an ally", action.TargetID))
			return domain.PassAction()
		case !target.Conscious():
			e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
				perrors.CodePolicyFault, fmt.Sprintf("attack target %q is down", action.TargetID))
			return domain.PassAction()
		}
	case domain.KindParry:
		if _, ok := e.byID[action.TargetID]; !ok {
			e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
				perrors.CodePolicyFault, fmt.Sprintf("parry attacker %q does not exist", action.TargetID))
			return domain.PassAction()
		}
	case domain.KindAbility:
		if _, err := actor.AbilityByID(action.AbilityID); err != nil {
			e.fault(PhaseDeclaration, actorID, event.TypePolicyFault,
				perrors.CodePolicyFault, err.Error())
			return domain.PassAction()
		}
	}
	return action
}

// view snapshots the combat for one policy decision.
func (e *Engine) view(actorID string, pending *policy.PendingAttack) policy.View {
	self := e.byID[actorID]
	buffs := e.buffs[actorID]

	view := policy.View{
		Round:         e.round,
		PendingAttack: pending,
		History:       e.log.Events(),
	}
	view.Self = policy.CombatantView{
		ID:                self.ID,
		Name:              self.Name,
		Side:              self.Side,
		Wound:             self.Wound,
		Armor:             self.Armor,
		VoidPoints:        self.VoidPoints,
		Conscious:         self.Conscious(),
		AttackPool:        self.AttackPool(),
		ParryPool:         self.ParryPool(),
		InitiativeTotal:   self.InitiativeTotal,
		Abilities:         self.Abilities(),
		PendingAttackDice: buffs.attackDice,
		PendingParryDice:  buffs.parryDice,
		PendingRerolls:    buffs.rerolls,
	}

	others := make([]*domain.Combatant, 0, len(e.fighters)-1)
	for _, c := range e.fighters {
		if c.ID != actorID {
			others = append(others, c)
		}
	}
	sort.Slice(others, func(i, j int) bool { return others[i].ID < others[j].ID })

	for _, c := range others {
		cv := policy.CombatantView{
			ID:              c.ID,
			Name:            c.Name,
			Side:            c.Side,
			Wound:           c.Wound,
			Armor:           c.Armor,
			VoidPoints:      c.VoidPoints,
			Conscious:       c.Conscious(),
			AttackPool:      c.AttackPool(),
			ParryPool:       c.ParryPool(),
			InitiativeTotal: c.InitiativeTotal,
		}
		if c.Side == self.Side {
			view.Allies = append(view.Allies, cv)
		} else {
			view.Enemies = append(view.Enemies, cv)
		}
	}
	return view
}

// checkEnd evaluates the win condition after consequences.
func (e *Engine) checkEnd() (Verdict, string, bool) {
	standing := make(map[string]bool)
	for _, c := range e.fighters {
		if c.Conscious() {
			standing[c.Side] = true
		}
	}
	switch len(standing) {
	case 0:
		return VerdictDraw, "", true
	case 1:
		for side := range standing {
			return VerdictWin, side, true
		}
	}
	return "", "", false
}

// append journals an event in the current round.
func (e *Engine) append(phase, actorID string, typ event.Type, payload any) {
	e.log.Append(event.Event{
		Round:   e.round,
		Phase:   phase,
		ActorID: actorID,
		Type:    typ,
		Payload: payload,
	})
}

// fault journals a recovered fault.
func (e *Engine) fault(phase, actorID string, typ event.Type, code perrors.Code, message string) {
	e.append(phase, actorID, typ, event.FaultPayload{
		Code:    string(code),
		Message: message,
	})
}
