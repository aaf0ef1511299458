package policy

import (
	"errors"
	"fmt"

	"github.com/Shopify/go-lua"

	"github.com/okuden/duelsim/internal/combat/domain"
)

// NameLua is the registered name of the Lua-scripted policy.
const NameLua = "lua"

// ErrLuaScript indicates a Lua chunk that failed to load or to define
// the decide entry point.
var ErrLuaScript = errors.New("lua policy script")

// luaPolicy delegates decisions to a user-supplied Lua chunk. The chunk
// must define a global function decide(view) returning a table with a
// "kind" field and optional "target" and "ability" fields.
//
// A luaPolicy owns its interpreter state and is not safe for concurrent
// use; the harness builds one per combat.
type luaPolicy struct {
	state *lua.State
}

func newLua(cfg Config) (Policy, error) {
	if cfg.Script == "" {
		return nil, fmt.Errorf("%w: empty script", ErrLuaScript)
	}

	l := lua.NewState()
	lua.OpenLibraries(l)

	if err := lua.LoadString(l, cfg.Script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLuaScript, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLuaScript, err)
	}

	l.Global("decide")
	defined := l.IsFunction(-1)
	l.Pop(1)
	if !defined {
		return nil, fmt.Errorf("%w: decide function not defined", ErrLuaScript)
	}

	return &luaPolicy{state: l}, nil
}

func (p *luaPolicy) Name() string { return NameLua }

func (p *luaPolicy) Decide(view View) (domain.Action, error) {
	l := p.state

	l.Global("decide")
	pushView(l, view)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return domain.Action{}, fmt.Errorf("lua decide: %w", err)
	}

	if !l.IsTable(-1) {
		l.Pop(1)
		return domain.Action{}, errors.New("lua decide: result is not a table")
	}

	kind, _ := tableString(l, "kind")
	target, _ := tableString(l, "target")
	ability, _ := tableString(l, "ability")
	l.Pop(1)

	return domain.Action{
		Kind:      domain.ActionKind(kind),
		TargetID:  target,
		AbilityID: ability,
	}, nil
}

// pushView builds the Lua table handed to decide.
func pushView(l *lua.State, view View) {
	l.NewTable()

	l.PushInteger(view.Round)
	l.SetField(-2, "round")

	pushCombatant(l, view.Self)
	l.SetField(-2, "self")

	pushCombatants(l, view.Allies)
	l.SetField(-2, "allies")

	pushCombatants(l, view.Enemies)
	l.SetField(-2, "enemies")

	if view.PendingAttack != nil {
		l.PushString(view.PendingAttack.AttackerID)
		l.SetField(-2, "pending_attacker")
	}
}

func pushCombatants(l *lua.State, views []CombatantView) {
	l.NewTable()
	for i, view := range views {
		pushCombatant(l, view)
		l.RawSetInt(-2, i+1)
	}
}

func pushCombatant(l *lua.State, view CombatantView) {
	l.NewTable()

	l.PushString(view.ID)
	l.SetField(-2, "id")
	l.PushString(view.Side)
	l.SetField(-2, "side")
	l.PushInteger(int(view.Wound))
	l.SetField(-2, "wound")
	l.PushInteger(view.Armor)
	l.SetField(-2, "armor")
	l.PushInteger(view.VoidPoints)
	l.SetField(-2, "void")
	l.PushBoolean(view.Conscious)
	l.SetField(-2, "conscious")
	l.PushInteger(view.AttackPool.Roll)
	l.SetField(-2, "attack_roll")
	l.PushInteger(view.AttackPool.Keep)
	l.SetField(-2, "attack_keep")
	l.PushInteger(view.ParryPool.Roll)
	l.SetField(-2, "parry_roll")
	l.PushInteger(view.ParryPool.Keep)
	l.SetField(-2, "parry_keep")
	l.PushInteger(view.InitiativeTotal)
	l.SetField(-2, "initiative")

	l.NewTable()
	for i, ability := range view.Abilities {
		l.NewTable()
		l.PushString(ability.ID)
		l.SetField(-2, "id")
		l.PushInteger(ability.Cost)
		l.SetField(-2, "cost")
		l.PushString(string(ability.Effect))
		l.SetField(-2, "effect")
		l.PushInteger(ability.Magnitude)
		l.SetField(-2, "magnitude")
		l.RawSetInt(-2, i+1)
	}
	l.SetField(-2, "abilities")
}

// tableString reads a string field from the table at the top of the
// stack, leaving the stack as it found it.
func tableString(l *lua.State, field string) (string, bool) {
	l.Field(-1, field)
	defer l.Pop(1)
	if l.IsNil(-1) {
		return "", false
	}
	value, ok := l.ToString(-1)
	return value, ok
}
