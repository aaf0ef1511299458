// Package event defines the append-only combat journal.
//
// Every observable step of a combat — initiative, declarations, resolved
// exchanges, faults, wound transitions, the final verdict — is recorded
// as an immutable Event. The journal is ordered and append-only; it is
// the engine's only replay and reporting surface and is suitable for
// direct serialization.
package event

import "github.com/okuden/duelsim/internal/combat/domain"

// Type identifies the type of a combat journal event.
type Type string

// Round flow events.
const (
	// TypeRoundStarted records the start of a combat round.
	TypeRoundStarted Type = "round.started"
	// TypeInitiativeRolled records one combatant's initiative roll.
	TypeInitiativeRolled Type = "round.initiative_rolled"
	// TypeOrderFixed records the initiative order for the round.
	TypeOrderFixed Type = "round.order_fixed"
)

// Action events.
const (
	// TypeActionDeclared records a combatant's declared action.
	TypeActionDeclared Type = "action.declared"
	// TypeAttackResolved records a resolved attack exchange.
	TypeAttackResolved Type = "action.attack_resolved"
	// TypeAbilityResolved records a resolved special-ability action.
	TypeAbilityResolved Type = "action.ability_resolved"
)

// Fault events. Faults are recovered locally and recorded, never raised.
const (
	// TypePolicyFault records an invalid or failed policy decision.
	TypePolicyFault Type = "fault.policy"
	// TypeResourceFault records an ability declaration the combatant
	// could not pay for.
	TypeResourceFault Type = "fault.insufficient_resources"
	// TypeRollTruncated records an exploding-die chain that hit the
	// recursion cap and was truncated.
	TypeRollTruncated Type = "fault.roll_truncated"
)

// Consequence events.
const (
	// TypeWoundApplied records a wound-level transition.
	TypeWoundApplied Type = "consequence.wound_applied"
	// TypeHealed records an explicit ability-granted heal transition.
	TypeHealed Type = "consequence.healed"
	// TypeIncapacitated records a combatant leaving the fight.
	TypeIncapacitated Type = "consequence.incapacitated"
)

// Terminal events.
const (
	// TypeCombatEnded records the combat verdict.
	TypeCombatEnded Type = "combat.ended"
)

// Event represents one immutable record in the combat journal.
type Event struct {
	// Seq is the event sequence number within the combat (starts at 1).
	// Assigned by the journal on append.
	Seq uint64 `json:"seq"`
	// Round is the combat round the event belongs to.
	Round int `json:"round"`
	// Phase names the state-machine phase that emitted the event.
	Phase string `json:"phase"`
	// ActorID is the combatant the event is about, when applicable.
	ActorID string `json:"actor_id,omitempty"`
	// Type identifies the kind of event.
	Type Type `json:"type"`
	// Payload holds event-specific data; one of the payload structs
	// defined in this package.
	Payload any `json:"payload,omitempty"`
}

// InitiativePayload records one combatant's initiative roll.
type InitiativePayload struct {
	Total int `json:"total"`
}

// OrderPayload records the fixed initiative order for a round.
type OrderPayload struct {
	Order []string `json:"order"`
}

// DeclaredPayload records a declared action and whether it was an
// interrupt response to a pending attack.
type DeclaredPayload struct {
	Action    domain.Action `json:"action"`
	Interrupt bool          `json:"interrupt,omitempty"`
}

// AttackPayload records a resolved attack exchange.
type AttackPayload struct {
	DefenderID     string `json:"defender_id"`
	AttackTotal    int    `json:"attack_total"`
	ParryAttempted bool   `json:"parry_attempted"`
	ParryTotal     int    `json:"parry_total,omitempty"`
	Parried        bool   `json:"parried"`
	Damage         int    `json:"damage"`
	WoundDelta     int    `json:"wound_delta"`
}

// AbilityPayload records a resolved special-ability action.
type AbilityPayload struct {
	AbilityID string        `json:"ability_id"`
	Effect    domain.Effect `json:"effect"`
	Cost      int           `json:"cost"`
}

// FaultPayload records a recovered fault.
type FaultPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WoundPayload records a wound-level transition.
type WoundPayload struct {
	From domain.WoundLevel `json:"from"`
	To   domain.WoundLevel `json:"to"`
}

// EndPayload records the combat verdict.
type EndPayload struct {
	Verdict string `json:"verdict"`
	Winner  string `json:"winner,omitempty"`
	Rounds  int    `json:"rounds"`
}

// Log is an append-only ordered journal of combat events.
type Log struct {
	events []Event
}

// Append adds an event to the journal, assigning its sequence number.
func (l *Log) Append(e Event) {
	e.Seq = uint64(len(l.events)) + 1
	l.events = append(l.events, e)
}

// Events returns a copy of the journal in append order.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	return len(l.events)
}
