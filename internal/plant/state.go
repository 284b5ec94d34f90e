// Package plant holds the mutable plant state owned by the timestep
// dispatcher, the operating-mode derivation, and the immutable snapshot type
// handed to external observers.
package plant

import (
	"math"

	"github.com/averyjl/pwrsim/internal/thermo"
)

// Fixed system volumes, ft³.
const (
	PrzrVesselFt3 = 1800.0
	RCSLoopsFt3   = 9300.0
)

// State is the live thermal-hydraulic state of the primary and secondary
// systems. It is owned exclusively by the dispatcher; external readers get
// snapshots, never aliases.
type State struct {
	Tick    int64
	SimTime float64 // seconds

	TavgF        float64
	ThotF        float64
	TcoldF       float64
	PrzrTempF    float64
	PressurePsia float64
	TsatF        float64
	SubcoolF     float64

	RCSWaterMass  float64 // lbm, loops + vessel
	PrzrWaterMass float64 // lbm
	PrzrSteamMass float64 // lbm
	PrzrLevelPct  float64

	MakeupTankLbm float64
	RecycleLbm    float64

	SecondaryLbm    float64
	SecondaryNodesF []float64
	SecondaryPsia   float64

	HeatupRateFPerHr   float64
	PressRatePsiPerMin float64

	BubbleFormed bool
}

// Clone returns a deep copy, used by observers and idempotence checks.
func (s *State) Clone() *State {
	c := *s
	c.SecondaryNodesF = append([]float64(nil), s.SecondaryNodesF...)
	return &c
}

// ComponentMass is the sum of every tracked primary-side inventory, the
// quantity the boundary ledger is checked against.
func (s *State) ComponentMass() float64 {
	return s.RCSWaterMass + s.PrzrWaterMass + s.PrzrSteamMass
}

// IsFinite reports whether every mass and thermodynamic scalar is a real
// number. A false return is fatal to the run.
func (s *State) IsFinite() bool {
	vals := []float64{
		s.TavgF, s.ThotF, s.TcoldF, s.PrzrTempF, s.PressurePsia, s.TsatF,
		s.RCSWaterMass, s.PrzrWaterMass, s.PrzrSteamMass, s.PrzrLevelPct,
		s.MakeupTankLbm, s.RecycleLbm, s.SecondaryLbm,
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range s.SecondaryNodesF {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RecalcPrzrLevel rederives the indicated pressurizer level from the current
// water mass and temperature. Call after any pressurizer mass change.
func (s *State) RecalcPrzrLevel() {
	v := s.PrzrWaterMass / thermo.WaterDensity(s.PrzrTempF)
	s.PrzrLevelPct = 100 * v / PrzrVesselFt3
	if s.PrzrLevelPct > 100 {
		s.PrzrLevelPct = 100
	}
	if s.PrzrLevelPct < 0 {
		s.PrzrLevelPct = 0
	}
}

// Mode is the technical-specification operating mode derived from bulk
// temperature. It is never stored; it is always derived.
type Mode int

const (
	ModeColdShutdown Mode = iota
	ModeHotShutdown
	ModeHotStandby
)

// OperatingMode derives the mode from the bulk average temperature.
func (s *State) OperatingMode() Mode {
	switch {
	case s.TavgF <= 200:
		return ModeColdShutdown
	case s.TavgF < 350:
		return ModeHotShutdown
	default:
		return ModeHotStandby
	}
}

func (m Mode) String() string {
	switch m {
	case ModeColdShutdown:
		return "mode 5 / cold shutdown"
	case ModeHotShutdown:
		return "mode 4 / hot shutdown"
	case ModeHotStandby:
		return "mode 3 / hot standby"
	default:
		return "unknown"
	}
}
