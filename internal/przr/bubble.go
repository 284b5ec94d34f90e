package przr

import (
	"github.com/averyjl/pwrsim/internal/plant"
	"github.com/averyjl/pwrsim/internal/thermo"
)

// Phase is the bubble-formation phase. The machine is the sole writer.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseDetection
	PhaseVerification
	PhaseDrain
	PhaseStabilize
	PhasePressurize
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseDetection:
		return "detection"
	case PhaseVerification:
		return "verification"
	case PhaseDrain:
		return "drain"
	case PhaseStabilize:
		return "stabilize"
	case PhasePressurize:
		return "pressurize"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Bubble-formation calibration.
const (
	detectMarginF     = 10.0 // saturation approach that arms detection
	verifySeconds     = 120.0
	drainTargetPct    = 30.0
	drainRateLbmSec   = 28.0
	stabilizeSeconds  = 300.0
	stabilizeBandPct  = 4.0
	pressurizeGainPsi = 50.0 // pressure rise above the held value that completes
)

// Transition reports one logged phase change.
type Transition struct {
	From, To Phase
	Reason   string
}

// Machine drives the liquid-solid pressurizer through controlled two-phase
// bubble formation. From detection through stabilize it owns the pressure
// disposition: pressure is pinned to the value captured when detection armed,
// so the saturation target the heaters chase stays fixed. While draining or
// stabilizing it additionally owns the pressurizer component masses, and the
// pressurizer temperature is derived as Tsat of the held pressure, which is
// self-consistent and cannot ratchet.
type Machine struct {
	phase        Phase
	phaseTime    float64
	heldPressure float64
	blockReason  string
}

func NewMachine() *Machine {
	return &Machine{phase: PhaseNone}
}

func (m *Machine) Phase() Phase { return m.phase }

// BlockReason is the gate that refused the most recent transition attempt,
// empty when the last attempt advanced. A blocked transition is not an
// error; it is retried next tick.
func (m *Machine) BlockReason() string { return m.blockReason }

// SensibleHeatBypassed reports whether the coupling engine must divert heater
// energy to this machine's latent-heat accounting instead of pressurizer
// sensible heat.
func (m *Machine) SensibleHeatBypassed() bool {
	switch m.phase {
	case PhaseDrain, PhaseStabilize, PhasePressurize:
		return true
	}
	return false
}

// HoldsPressure reports whether the tick's pressure must stay pinned to the
// value captured when detection armed. The pin covers the whole evolution
// through stabilize: without it, thermal expansion walks the saturation
// temperature up faster than the heaters can chase it and verification never
// completes.
func (m *Machine) HoldsPressure() bool {
	switch m.phase {
	case PhaseDetection, PhaseVerification, PhaseDrain, PhaseStabilize:
		return true
	}
	return false
}

// HeldPressure is the pressure captured when detection armed.
func (m *Machine) HeldPressure() float64 { return m.heldPressure }

// WantsLetdownExcess reports whether the CVCS should run letdown above
// charging, bleeding expansion while the pressure is held and supporting the
// drain itself.
func (m *Machine) WantsLetdownExcess() bool {
	switch m.phase {
	case PhaseDetection, PhaseVerification, PhaseDrain:
		return true
	}
	return false
}

// Update advances the machine by one tick. heaterBtu is the heater energy
// diverted to latent heat while sensible heating is bypassed. The returned
// transition, if any, names the single phase step taken; phases are never
// skipped and never regress.
func (m *Machine) Update(st *plant.State, dt, heaterBtu float64) (Transition, bool) {
	m.phaseTime += dt
	m.blockReason = ""

	switch m.phase {
	case PhaseNone:
		margin := thermo.SatTempF(st.PressurePsia) - st.PrzrTempF
		if margin > detectMarginF {
			m.blockReason = "saturation_margin"
			return Transition{}, false
		}
		m.heldPressure = st.PressurePsia
		return m.advance(PhaseDetection, "saturation_approach"), true

	case PhaseDetection:
		// One confirmation tick, then hold for verification.
		return m.advance(PhaseVerification, "margin_confirmed"), true

	case PhaseVerification:
		margin := thermo.SatTempF(st.PressurePsia) - st.PrzrTempF
		if margin > detectMarginF {
			// Margin opened back up; stay and re-count.
			m.phaseTime = 0
			m.blockReason = "saturation_margin"
			return Transition{}, false
		}
		if m.phaseTime < verifySeconds {
			m.blockReason = "verify_interval"
			return Transition{}, false
		}
		return m.advance(PhaseDrain, "verified_at_saturation"), true

	case PhaseDrain:
		m.drainStep(st, dt, heaterBtu)
		if st.PrzrLevelPct > drainTargetPct {
			m.blockReason = "level_above_target"
			return Transition{}, false
		}
		return m.advance(PhaseStabilize, "drain_level_reached"), true

	case PhaseStabilize:
		m.latentStep(st, heaterBtu)
		if m.phaseTime < stabilizeSeconds {
			m.blockReason = "stabilize_interval"
			return Transition{}, false
		}
		if diff := st.PrzrLevelPct - drainTargetPct; diff > stabilizeBandPct || diff < -stabilizeBandPct {
			m.blockReason = "level_outside_band"
			return Transition{}, false
		}
		return m.advance(PhasePressurize, "level_stable"), true

	case PhasePressurize:
		m.latentStep(st, heaterBtu)
		if st.PressurePsia < m.heldPressure+pressurizeGainPsi {
			m.blockReason = "pressure_below_target"
			return Transition{}, false
		}
		st.BubbleFormed = true
		return m.advance(PhaseComplete, "bubble_pressurized"), true
	}
	return Transition{}, false
}

// drainStep moves liquid out of the pressurizer through the surge line while
// heater energy flashes the freed surface to steam. Internal transfers only:
// the primary total is untouched, boundary letdown is the ledger's business.
func (m *Machine) drainStep(st *plant.State, dt, heaterBtu float64) {
	drain := drainRateLbmSec * dt
	if drain > st.PrzrWaterMass {
		drain = st.PrzrWaterMass
	}
	st.PrzrWaterMass -= drain
	st.RCSWaterMass += drain
	m.latentStep(st, heaterBtu)
	st.RecalcPrzrLevel()
}

// latentStep converts heater energy to steam at the held (or current)
// pressure.
func (m *Machine) latentStep(st *plant.State, heaterBtu float64) {
	if heaterBtu <= 0 {
		return
	}
	p := st.PressurePsia
	if m.HoldsPressure() {
		p = m.heldPressure
	}
	flash := heaterBtu / thermo.Hfg(p)
	if flash > st.PrzrWaterMass {
		flash = st.PrzrWaterMass
	}
	st.PrzrWaterMass -= flash
	st.PrzrSteamMass += flash
	st.RecalcPrzrLevel()
}

func (m *Machine) advance(to Phase, reason string) Transition {
	tr := Transition{From: m.phase, To: to, Reason: reason}
	m.phase = to
	m.phaseTime = 0
	return tr
}
