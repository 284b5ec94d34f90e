// Package secondary stages the steam-generator secondary boundary from open
// preheat to isolated heatup with hysteresis gates on intervals, pressure
// deviation, and inferred leakage.
package secondary

import "math"

// Mode is the secondary boundary stage. Stages only advance, never regress.
type Mode int

const (
	ModeOpenPreheat Mode = iota
	ModePressurize
	ModeHold
	ModeIsolatedHeatup
)

func (m Mode) String() string {
	switch m {
	case ModeOpenPreheat:
		return "open_preheat"
	case ModePressurize:
		return "pressurize"
	case ModeHold:
		return "hold"
	case ModeIsolatedHeatup:
		return "isolated_heatup"
	default:
		return "unknown"
	}
}

// Gate calibration.
const (
	isolationTavgF  = 250.0 // bulk temperature that closes the preheat boundary
	minPressTicks   = 30
	minGainPct      = 15.0 // secondary pressure gain required to call it pressurized
	minHoldTicks    = 60
	holdBandPsi     = 12.0
	leakCeilingFrac = 0.002 // of the mass baseline captured at hold entry
)

// Transition is one logged stage change.
type Transition struct {
	From, To Mode
	Reason   string
}

// Input is what the machine samples each tick.
type Input struct {
	Dt            float64
	TavgF         float64
	SecondaryPsia float64
	SecondaryLbm  float64
	SteamOutLbm   float64 // this tick's steam-line outflow
}

// Machine tracks the stage, its dwell counters, and the hold-entry
// snapshots used by the deviation and leakage gates.
type Machine struct {
	mode        Mode
	ticksIn     int
	timeIn      float64
	entryPsia   float64 // pressure at pressurize entry
	holdTarget  float64 // pressure snapshot at hold entry
	leakBase    float64 // mass snapshot at hold entry
	cumLeakLbm  float64
	blockReason string
}

func NewMachine() *Machine {
	return &Machine{mode: ModeOpenPreheat}
}

func (m *Machine) Mode() Mode          { return m.mode }
func (m *Machine) HoldTarget() float64 { return m.holdTarget }

// BlockReason names the gate that refused the last attempt, empty if the
// machine advanced or had nothing to attempt.
func (m *Machine) BlockReason() string { return m.blockReason }

// SteamdumpCv is the steam-line valve position for the current stage.
func (m *Machine) SteamdumpCv() float64 {
	switch m.mode {
	case ModeOpenPreheat:
		return 0.5
	case ModePressurize:
		return 0.06
	case ModeHold:
		return 0.02
	default:
		return 0
	}
}

// Isolated reports whether the steam line boundary is closed.
func (m *Machine) Isolated() bool { return m.mode == ModeIsolatedHeatup }

// Update samples the tick and attempts at most one forward transition.
func (m *Machine) Update(in Input) (Transition, bool) {
	m.ticksIn++
	m.timeIn += in.Dt
	m.blockReason = ""

	switch m.mode {
	case ModeOpenPreheat:
		if in.TavgF < isolationTavgF {
			m.blockReason = "bulk_temp_below_isolation"
			return Transition{}, false
		}
		m.entryPsia = math.Max(in.SecondaryPsia, 1)
		return m.advance(ModePressurize, "isolation_temp_reached"), true

	case ModePressurize:
		if m.ticksIn < minPressTicks {
			m.blockReason = "pressurize_interval"
			return Transition{}, false
		}
		gain := 100 * (in.SecondaryPsia - m.entryPsia) / m.entryPsia
		if gain < minGainPct {
			m.blockReason = "pressure_gain"
			return Transition{}, false
		}
		m.holdTarget = in.SecondaryPsia
		m.leakBase = in.SecondaryLbm
		m.cumLeakLbm = 0
		return m.advance(ModeHold, "pressure_gain_met"), true

	case ModeHold:
		m.cumLeakLbm += in.SteamOutLbm
		if math.Abs(in.SecondaryPsia-m.holdTarget) > holdBandPsi {
			// Sampled every tick of the dwell, and an excursion restarts
			// it: the hold interval must be continuously in-band.
			m.ticksIn = 0
			m.timeIn = 0
			m.blockReason = "hold_deviation"
			return Transition{}, false
		}
		if m.ticksIn < minHoldTicks {
			m.blockReason = "hold_interval"
			return Transition{}, false
		}
		if m.leakBase > 0 && m.cumLeakLbm/m.leakBase > leakCeilingFrac {
			m.blockReason = "leakage_ceiling"
			return Transition{}, false
		}
		return m.advance(ModeIsolatedHeatup, "hold_stable"), true
	}
	return Transition{}, false
}

func (m *Machine) advance(to Mode, reason string) Transition {
	tr := Transition{From: m.mode, To: to, Reason: reason}
	m.mode = to
	m.ticksIn = 0
	m.timeIn = 0
	return tr
}
