package engine

import (
	"github.com/averyjl/pwrsim/internal/eventlog"
	"github.com/averyjl/pwrsim/internal/plant"
	"github.com/averyjl/pwrsim/internal/rcp"
	"github.com/averyjl/pwrsim/internal/thermo"
)

// Regime is the physics regime chosen for a tick.
type Regime int

const (
	RegimeIsolated Regime = 1
	RegimeBlended  Regime = 2
	RegimeCoupled  Regime = 3
)

func (r Regime) String() string {
	switch r {
	case RegimeIsolated:
		return "isolated"
	case RegimeBlended:
		return "blended"
	case RegimeCoupled:
		return "coupled"
	default:
		return "unknown"
	}
}

// Reason is the audit label attached when the discrete regime changes.
func (r Regime) Reason() string {
	switch r {
	case RegimeIsolated:
		return "no_rcp_or_zero_coupling"
	case RegimeBlended:
		return "partial_rcp_coupling"
	case RegimeCoupled:
		return "all_rcps_fully_running"
	default:
		return "unknown"
	}
}

// Coupling and blending calibration. The distinct blend exponents are a
// damping choice tuned against early-ramp overshoot, not a physical law.
const (
	alphaTauSec      = 90.0
	alphaIsolatedMax = 0.02

	baseLevelStepPct  = 1.2 // max level change per tick at full coupling
	noFlowTransportUA = 1.5 // Btu/s·°F residual pressurizer-loop exchange
	przrLossUA        = 0.8 // Btu/s·°F pressurizer ambient loss
	ambientF          = 95.0
)

// updateAlpha advances the smoothed coupling factor toward the aggregate
// flow fraction with a first-order lag. When every commanded pump reports
// rated flow the factor snaps to 1; the lag shapes only the approach.
func (e *Engine) updateAlpha(c rcp.Contribution) {
	if c.AllFullyRunning {
		e.alpha = 1
		return
	}
	e.alpha += (c.FlowFrac - e.alpha) * e.p.TickSeconds / alphaTauSec
	if e.alpha < 0 {
		e.alpha = 0
	}
	if e.alpha > 1 {
		e.alpha = 1
	}
}

// selectRegime picks the discrete regime and logs any change with its label.
func (e *Engine) selectRegime(c rcp.Contribution) Regime {
	var next Regime
	switch {
	case c.Commanded == 0 || e.alpha < alphaIsolatedMax:
		next = RegimeIsolated
	case c.AllFullyRunning:
		next = RegimeCoupled
	default:
		next = RegimeBlended
	}
	if next != e.regime {
		e.log.Emit(e.st.SimTime, eventlog.Info, "regime",
			"regime %s -> %s (%s)", e.regime, next, next.Reason())
		e.regime = next
	}
	return next
}

// isolatedResult is the isolated-path outcome for one tick.
type isolatedResult struct {
	tavgF     float64
	przrTempF float64
	pressure  float64
}

// isolatedStep evolves the pressurizer and coolant independently. A near-zero
// transport factor throttles the heat that still crosses via natural
// convection; pressure follows the solid-plant response, the bubble machine's
// held value, or the standing bubble's mass balance.
func (e *Engine) isolatedStep(rcsNetBtu, przrHeatBtu float64, flowDeltaLbm float64, bypass bool) isolatedResult {
	st := e.st
	dt := e.p.TickSeconds
	res := isolatedResult{przrTempF: st.PrzrTempF, pressure: st.PressurePsia}

	crossBtu := noFlowTransportUA * (st.PrzrTempF - st.TavgF) * dt
	rcsNetBtu += crossBtu

	cp := thermo.WaterCp(st.TavgF)
	res.tavgF = st.TavgF + rcsNetBtu/(st.RCSWaterMass*cp)

	if !bypass {
		net := przrHeatBtu - crossBtu - thermo.AmbientLoss(st.PrzrTempF, ambientF, przrLossUA)*dt
		res.przrTempF += thermo.IsolatedHeatStep(st.PrzrWaterMass, st.PrzrTempF, net)
	}

	if st.PrzrSteamMass < 1 {
		// Water-solid: pressure responds to net volume change of the rigid
		// system.
		vol := plant.RCSLoopsFt3 + plant.PrzrVesselFt3
		dv := st.RCSWaterMass*(1/thermo.WaterDensity(res.tavgF)-1/thermo.WaterDensity(st.TavgF)) +
			st.PrzrWaterMass*(1/thermo.WaterDensity(res.przrTempF)-1/thermo.WaterDensity(st.PrzrTempF)) +
			flowDeltaLbm/thermo.WaterDensity(st.TcoldF)
		res.pressure = st.PressurePsia + thermo.SolidPlantPressureRate(dv, vol)
		if res.pressure < thermo.AtmPsia {
			res.pressure = thermo.AtmPsia
		}
		return res
	}

	// Standing bubble with no forced flow: pressure re-derives from the
	// current mass split, which cannot ratchet.
	eq := thermo.Solve(thermo.EquilibriumInput{
		Dt:            dt,
		Pressure:      st.PressurePsia,
		TavgF:         st.TavgF,
		PrzrTempF:     st.PrzrTempF,
		RCSWaterMass:  st.RCSWaterMass,
		PrzrWaterMass: st.PrzrWaterMass,
		PrzrSteamMass: st.PrzrSteamMass,
		PrzrVolume:    plant.PrzrVesselFt3,
	})
	e.noteSolver(eq)
	res.pressure = eq.Pressure
	return res
}

// coupledStep runs the full equilibrium solver on post-boundary-flow masses.
func (e *Engine) coupledStep(rcsNetBtu, przrHeatBtu float64, bypass bool) thermo.EquilibriumState {
	st := e.st
	if bypass {
		przrHeatBtu = 0
	}
	eq := thermo.Solve(thermo.EquilibriumInput{
		Dt:            e.p.TickSeconds,
		Pressure:      st.PressurePsia,
		TavgF:         st.TavgF,
		PrzrTempF:     st.PrzrTempF,
		RCSWaterMass:  st.RCSWaterMass,
		PrzrWaterMass: st.PrzrWaterMass,
		PrzrSteamMass: st.PrzrSteamMass,
		NetHeatBtu:    rcsNetBtu,
		PrzrHeatBtu:   przrHeatBtu,
		PrzrVolume:    plant.PrzrVesselFt3,
	})
	e.noteSolver(eq)
	return eq
}

// runRegime applies the tick's boundary-flow event and then advances the
// selected regime's physics. The ledger event always lands before the solver
// so the solver sees post-boundary-flow mass.
func (e *Engine) runRegime(regime Regime, rcsNetBtu, przrHeatBtu float64, bypass bool) error {
	st := e.st
	ev := e.led.Event()
	if err := e.led.Apply(st); err != nil {
		return err
	}
	flowDelta := ev.RCSDeltaLbm

	if regime == RegimeCoupled {
		if e.led.Rebaseline(st.ComponentMass()) {
			e.rebasedThisTick = true
			e.log.Emit(st.SimTime, eventlog.Info, "ledger",
				"ledger re-baselined to %.0f lbm on coupled entry", st.ComponentMass())
		}
	}

	switch {
	case regime == RegimeIsolated || st.PrzrSteamMass < 1:
		// Isolated regime, or a water-solid vessel: the rigid-system
		// response governs no matter how hard the loops circulate, because
		// the equilibrium solver has no bubble to balance against.
		iso := e.isolatedStep(rcsNetBtu, przrHeatBtu, flowDelta, bypass)
		st.TavgF = iso.tavgF
		st.PrzrTempF = iso.przrTempF
		return e.setPressure(iso.pressure, true)

	case regime == RegimeCoupled:
		eq := e.coupledStep(rcsNetBtu, przrHeatBtu, bypass)
		e.applySurge(eq.SurgeLbm)
		e.applyFlash(eq.FlashLbm)
		st.TavgF = eq.TavgF
		// Two-phase equilibrium pins the pressurizer to saturation.
		st.PrzrTempF = thermo.SatTempF(eq.Pressure)
		return e.setPressure(eq.Pressure, true)

	default: // RegimeBlended
		iso := e.isolatedStep(rcsNetBtu, przrHeatBtu, flowDelta, bypass)
		eq := e.coupledStep(rcsNetBtu, przrHeatBtu, bypass)

		a := e.alpha
		a2 := a * a
		a3 := a2 * a

		// Level steps are clamped through the surge mass so the indicated
		// level cannot jump as the first pump starts.
		maxSurge := baseLevelStepPct * a3 / 100 * plant.PrzrVesselFt3 * thermo.WaterDensity(st.PrzrTempF)
		surge := eq.SurgeLbm * a2
		if surge > maxSurge {
			surge = maxSurge
		}
		if surge < -maxSurge {
			surge = -maxSurge
		}
		e.applySurge(surge)
		e.applyFlash(eq.FlashLbm * a)

		st.TavgF = lerp(iso.tavgF, eq.TavgF, a)
		st.PrzrTempF = lerp(iso.przrTempF, eq.PrzrTempF, a)
		return e.setPressure(lerp(iso.pressure, eq.Pressure, a2), true)
	}
}

// applySurge moves loop water through the surge line; internal transfer only.
func (e *Engine) applySurge(lbm float64) {
	if lbm > e.st.RCSWaterMass {
		lbm = e.st.RCSWaterMass
	}
	if -lbm > e.st.PrzrWaterMass {
		lbm = -e.st.PrzrWaterMass
	}
	e.st.RCSWaterMass -= lbm
	e.st.PrzrWaterMass += lbm
}

// applyFlash converts pressurizer water to steam; internal transfer only.
func (e *Engine) applyFlash(lbm float64) {
	if lbm <= 0 {
		return
	}
	if lbm > e.st.PrzrWaterMass {
		lbm = e.st.PrzrWaterMass
	}
	e.st.PrzrWaterMass -= lbm
	e.st.PrzrSteamMass += lbm
}

func (e *Engine) noteSolver(eq thermo.EquilibriumState) {
	if !eq.Converged {
		e.log.EmitLimited(e.st.SimTime, 120, eventlog.Warning, "solver_no_converge",
			"equilibrium solver did not converge in %d iterations", eq.Iterations)
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
