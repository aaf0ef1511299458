package domain

// WoundLevel is the ordered injury severity ladder. Levels only move
// toward WoundDead during a combat; the single exception is an explicit
// Heal ability effect, recorded as its own transition.
type WoundLevel int

const (
	WoundHealthy WoundLevel = iota
	WoundLight
	WoundSerious
	WoundDying
	WoundDead
)

// String returns the lowercase level name.
func (w WoundLevel) String() string {
	switch w {
	case WoundHealthy:
		return "healthy"
	case WoundLight:
		return "light"
	case WoundSerious:
		return "serious"
	case WoundDying:
		return "dying"
	case WoundDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Incapacitated reports whether the level removes a combatant from the
// fight. Dying combatants are unconscious, not acting.
func (w WoundLevel) Incapacitated() bool {
	return w >= WoundDying
}

// Advance returns the level raised by steps, clamped at WoundDead.
// Negative steps are ignored; lowering a level is only possible through
// Combatant.Heal.
func (w WoundLevel) Advance(steps int) WoundLevel {
	if steps <= 0 {
		return w
	}
	next := w + WoundLevel(steps)
	if next > WoundDead {
		return WoundDead
	}
	return next
}
