// Package przr contains the pressurizer-side control logic: heater authority
// resolution, the heater/spray pressure controller, and the bubble-formation
// state machine.
package przr

// Authority is the resolved heater authority for one tick. Downstream logic
// consumes only this value, never the individual lockout flags.
type Authority int

const (
	AuthorityHoldLocked Authority = iota
	AuthorityOff
	AuthorityManualDisabled
	AuthorityAuto
)

func (a Authority) String() string {
	switch a {
	case AuthorityHoldLocked:
		return "hold_locked"
	case AuthorityOff:
		return "off"
	case AuthorityManualDisabled:
		return "manual_disabled"
	case AuthorityAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ResolveAuthority evaluates the three independent lockouts in fixed priority
// order. A safety hold beats a mode-off command beats a manual disable.
func ResolveAuthority(holdLocked, commandedOff, manualDisabled bool) Authority {
	switch {
	case holdLocked:
		return AuthorityHoldLocked
	case commandedOff:
		return AuthorityOff
	case manualDisabled:
		return AuthorityManualDisabled
	default:
		return AuthorityAuto
	}
}
