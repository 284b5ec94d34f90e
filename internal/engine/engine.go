// Package engine is the timestep dispatcher and regime coupling engine: it
// advances the plant one fixed tick at a time in a strict component order,
// reconciles the isolated thermal model with the fully-coupled equilibrium
// solver as forced circulation ramps up, and enforces the mass-conservation
// invariants every tick.
package engine

import (
	"github.com/averyjl/pwrsim/internal/eventlog"
	"github.com/averyjl/pwrsim/internal/ledger"
	"github.com/averyjl/pwrsim/internal/plant"
	"github.com/averyjl/pwrsim/internal/przr"
	"github.com/averyjl/pwrsim/internal/rcp"
	"github.com/averyjl/pwrsim/internal/secondary"
	"github.com/averyjl/pwrsim/internal/thermo"
)

// Params are the tick-input configuration: initial conditions, targets, and
// the fixed tick duration.
type Params struct {
	TickSeconds        float64
	InitTavgF          float64
	InitPressurePsia   float64
	InitLevelPct       float64
	TargetTavgF        float64
	TargetPressurePsia float64

	DecayHeatBtuPerSec float64
	RHRSetpointF       float64
	RHRFlowGpm         float64
	SecondaryNodes     int

	EventLogCapacity int
}

// DefaultParams is a cold-shutdown solid-plant lineup.
func DefaultParams() Params {
	return Params{
		TickSeconds:        10, // 1/360 sim hour
		InitTavgF:          100,
		InitPressurePsia:   400,
		InitLevelPct:       100,
		TargetTavgF:        557,
		TargetPressurePsia: 2235,
		DecayHeatBtuPerSec: 1500,
		RHRSetpointF:       140,
		RHRFlowGpm:         3000,
		SecondaryNodes:     4,
		EventLogCapacity:   512,
	}
}

// Engine owns the plant state and every per-tick subsystem. It is
// single-threaded: Tick must never be called concurrently.
type Engine struct {
	p   Params
	st  *plant.State
	led *ledger.Ledger
	seq *rcp.Sequencer

	ctrl   *przr.Controller
	bubble *przr.Machine
	sec    *secondary.Machine
	log    *eventlog.Log

	alpha      float64
	regime     Regime
	coupledYet bool

	heaterHold   bool
	heaterOff    bool
	heaterManual bool

	auditActive      bool
	blockedOverrides int

	lastFlows       ledger.Flows
	lastCtrl        przr.Output
	lastContrib     rcp.Contribution
	rebasedThisTick bool
	faulted         bool
	lastSnap        plant.Snapshot
}

// New builds an engine at the configured initial conditions.
func New(p Params) *Engine {
	st := &plant.State{
		TavgF:        p.InitTavgF,
		ThotF:        p.InitTavgF,
		TcoldF:       p.InitTavgF,
		PrzrTempF:    p.InitTavgF,
		PressurePsia: p.InitPressurePsia,
		TsatF:        thermo.SatTempF(p.InitPressurePsia),
	}
	rho := thermo.WaterDensity(p.InitTavgF)
	st.RCSWaterMass = plant.RCSLoopsFt3 * rho
	st.PrzrWaterMass = plant.PrzrVesselFt3 * rho * p.InitLevelPct / 100
	st.MakeupTankLbm = 180000
	st.SecondaryLbm = 160000
	st.SecondaryNodesF = make([]float64, p.SecondaryNodes)
	for i := range st.SecondaryNodesF {
		st.SecondaryNodesF[i] = p.InitTavgF
	}
	st.RecalcPrzrLevel()
	st.SubcoolF = st.TsatF - st.TavgF

	e := &Engine{
		p:      p,
		st:     st,
		led:    ledger.New(st.ComponentMass()),
		seq:    rcp.NewSequencer(),
		ctrl:   przr.NewController(),
		bubble: przr.NewMachine(),
		sec:    secondary.NewMachine(),
		log:    eventlog.New(p.EventLogCapacity),
		regime: RegimeIsolated,
	}
	// The pre-run snapshot must report the authority the idle lockout flags
	// resolve to, not the Output zero value.
	e.lastCtrl = przr.Output{Authority: przr.ResolveAuthority(false, false, false)}
	e.lastSnap = e.buildSnapshot()
	return e
}

// StartRCP commands a pump on. Start times latch on first command.
func (e *Engine) StartRCP(pump int) bool {
	ok := e.seq.Start(pump, e.st.SimTime)
	if ok {
		e.log.Emit(e.st.SimTime, eventlog.Info, "rcp_start", "RCP %d commanded on", pump+1)
	}
	return ok
}

// SetHeaterLockouts sets the three independent heater lockout flags; the
// controller resolves them in priority order each tick.
func (e *Engine) SetHeaterLockouts(holdLocked, commandedOff, manualDisabled bool) {
	e.heaterHold = holdLocked
	e.heaterOff = commandedOff
	e.heaterManual = manualDisabled
}

// BeginAudit starts a conservation audit span: every pressure write until
// EndAudit must be state-derived.
func (e *Engine) BeginAudit() {
	e.auditActive = true
	e.log.Emit(e.st.SimTime, eventlog.Info, "audit", "conservation audit started")
}

func (e *Engine) EndAudit() {
	e.auditActive = false
	e.log.Emit(e.st.SimTime, eventlog.Info, "audit", "conservation audit ended, %d blocked overrides", e.blockedOverrides)
}

// BlockedOverrides reports how many forced pressure writes an audit rejected.
func (e *Engine) BlockedOverrides() int { return e.blockedOverrides }

// ForcePressure writes a non-derived pressure, the operator/test override
// path. During an active audit the write is rejected and fatal.
func (e *Engine) ForcePressure(psia float64) error {
	return e.setPressure(psia, false)
}

func (e *Engine) setPressure(psia float64, derived bool) error {
	if e.auditActive && !derived {
		e.blockedOverrides++
		e.faulted = true
		e.log.Emit(e.st.SimTime, eventlog.Fatal, "audit", "non-derived pressure write of %.1f psia blocked", psia)
		return plant.ErrBlockedOverride
	}
	e.st.PressurePsia = psia
	return nil
}

// Snapshot returns the immutable tick-end snapshot.
func (e *Engine) Snapshot() plant.Snapshot { return e.lastSnap }

// Events returns a copy of the bounded event stream.
func (e *Engine) Events() []eventlog.Event { return e.log.Events() }

// EventTail returns up to n of the most recent events, oldest first.
func (e *Engine) EventTail(n int) []eventlog.Event { return e.log.Tail(n) }

// EventCount reports lifetime emissions at a severity.
func (e *Engine) EventCount(sev eventlog.Severity) int { return e.log.Count(sev) }

// State returns a deep copy of the live state for diagnostics and tests.
func (e *Engine) State() *plant.State { return e.st.Clone() }

// Faulted reports whether a fatal invariant stopped the run.
func (e *Engine) Faulted() bool { return e.faulted }

// TickSeconds is the fixed tick duration.
func (e *Engine) TickSeconds() float64 { return e.p.TickSeconds }

// Alpha is the current smoothed coupling factor.
func (e *Engine) Alpha() float64 { return e.alpha }

// CurrentRegime is the regime chosen on the last tick.
func (e *Engine) CurrentRegime() Regime { return e.regime }

// BubblePhase exposes the bubble machine phase for observers.
func (e *Engine) BubblePhase() przr.Phase { return e.bubble.Phase() }

// SecondaryMode exposes the secondary boundary stage for observers.
func (e *Engine) SecondaryMode() secondary.Mode { return e.sec.Mode() }

func (e *Engine) fatal(err error) error {
	e.faulted = true
	e.log.Emit(e.st.SimTime, eventlog.Fatal, "invariant", "%v", err)
	return &plant.TickError{Tick: e.st.Tick, SimTime: e.st.SimTime, Wrapped: err}
}
