package engine

import (
	"github.com/averyjl/pwrsim/internal/eventlog"
	"github.com/averyjl/pwrsim/internal/ledger"
	"github.com/averyjl/pwrsim/internal/plant"
	"github.com/averyjl/pwrsim/internal/przr"
	"github.com/averyjl/pwrsim/internal/secondary"
	"github.com/averyjl/pwrsim/internal/thermo"
)

// Tick advances the plant by one fixed timestep in the documented component
// order. A returned error means a fatal invariant fired; the engine is then
// faulted and refuses further ticks.
func (e *Engine) Tick() error {
	if e.faulted {
		return plant.ErrFaulted
	}
	st := e.st
	dt := e.p.TickSeconds

	st.Tick++
	st.SimTime += dt
	prevTavg, prevPress := st.TavgF, st.PressurePsia
	e.led.BeginTick(st.Tick)
	e.rebasedThisTick = false

	// 1. Pump sequencer, coupling factor, regime selection.
	contrib := e.seq.Contribution(st.SimTime)
	e.lastContrib = contrib
	e.updateAlpha(contrib)
	regime := e.selectRegime(contrib)

	// 2. Heater/spray controller.
	bubblePhase := e.bubble.Phase()
	solid := st.PrzrSteamMass < 1 && !st.BubbleFormed
	ctrlOut := e.ctrl.Update(przr.Input{
		Dt:                 dt,
		PressurePsia:       st.PressurePsia,
		TargetPressurePsia: e.p.TargetPressurePsia,
		PressRatePsiPerMin: st.PressRatePsiPerMin,
		LevelPct:           st.PrzrLevelPct,
		SolidPlant:         solid,
		BubbleActive:       bubblePhase != przr.PhaseNone && bubblePhase != przr.PhaseComplete,
		HoldLocked:         e.heaterHold,
		CommandedOff:       e.heaterOff,
		ManualDisabled:     e.heaterManual,
	})
	if ctrlOut.Changed {
		e.log.Emit(st.SimTime, eventlog.Info, "heater",
			"heater authority %s, limiter %s", ctrlOut.Authority, ctrlOut.Limiter)
	}
	e.lastCtrl = ctrlOut
	e.applySpray(ctrlOut.SprayFrac)

	// 3. RHR and steam-generator secondary updates.
	rhrBtu := thermo.RHRStep(st.TavgF, e.p.RHRSetpointF, e.p.RHRFlowGpm, dt)
	secRes := thermo.SecondaryStep(thermo.SecondaryInput{
		Dt:           dt,
		NodesF:       st.SecondaryNodesF,
		PrimaryHotF:  st.ThotF,
		FlowFrac:     contrib.FlowFrac,
		SteamdumpCv:  e.sec.SteamdumpCv(),
		Isolated:     e.sec.Isolated(),
		SecondaryLbm: st.SecondaryLbm,
	})
	st.SecondaryNodesF = secRes.NodesF
	st.SecondaryPsia = secRes.PressurePsia
	st.SecondaryLbm -= secRes.SteamOutLbm

	// 4. Boundary flows: one event, computed once, applied once inside the
	// regime dispatch.
	flows := e.cvcsFlows()
	if flows != e.lastFlows {
		e.led.MarkFlowsReconfigured()
		e.lastFlows = flows
	}
	componentBefore := st.ComponentMass()
	ledgerBefore := e.led.TotalPrimaryLbm
	e.led.ComputeEvent(flows, thermo.WaterDensity(st.TcoldF), dt)

	// 5. Regime physics on post-boundary-flow mass.
	heaterBtu := ctrlOut.HeaterKW * thermo.KWToBtuPerSec * dt
	bypass := e.bubble.SensibleHeatBypassed()
	rcsNetBtu := (e.p.DecayHeatBtuPerSec+contrib.HeatBtuPerSec)*dt + rhrBtu -
		secRes.HeatToSecBtu - thermo.AmbientLoss(st.TavgF, ambientF, 2.5)*dt
	if err := e.runRegime(regime, rcsNetBtu, heaterBtu, bypass); err != nil {
		return e.fatal(err)
	}

	// 6. Auxiliary-volume attach and pairing check.
	mkDelta, recDelta := e.auxDeltas()
	if !e.led.AttachAuxiliary(st, mkDelta, recDelta) {
		e.log.Emit(st.SimTime, eventlog.Alarm, "pairing",
			"conservation pairing failed: primary %+.2f lbm, aux %+.2f/%+.2f lbm",
			e.led.Event().RCSDeltaLbm, mkDelta, recDelta)
	}

	// 7. Finalization: derived temperatures, rates, level.
	st.TsatF = thermo.SatTempF(st.PressurePsia)
	corePower := e.p.DecayHeatBtuPerSec + contrib.HeatBtuPerSec
	st.ThotF, st.TcoldF = thermo.LoopTemps(st.TavgF, corePower, contrib.FlowFrac)
	st.SubcoolF = st.TsatF - st.ThotF
	st.RecalcPrzrLevel()
	if dt > 0 {
		st.HeatupRateFPerHr = (st.TavgF - prevTavg) / dt * 3600
		st.PressRatePsiPerMin = (st.PressurePsia - prevPress) / dt * 60
	}

	// 8. Bubble formation state machine.
	bubbleBtu := 0.0
	if bypass {
		bubbleBtu = heaterBtu
	}
	if tr, changed := e.bubble.Update(st, dt, bubbleBtu); changed {
		e.log.Emit(st.SimTime, eventlog.Info, "bubble",
			"bubble phase %s -> %s (%s)", tr.From, tr.To, tr.Reason)
	}
	if e.bubble.HoldsPressure() {
		if err := e.setPressure(e.bubble.HeldPressure(), true); err != nil {
			return e.fatal(err)
		}
		st.TsatF = thermo.SatTempF(st.PressurePsia)
		if e.bubble.SensibleHeatBypassed() {
			// Two-phase hold rides saturation of the held pressure. The
			// subcooled detection phases keep their sensible temperature so
			// the margin closes on heater power alone.
			st.PrzrTempF = st.TsatF
		}
		st.SubcoolF = st.TsatF - st.ThotF
		if dt > 0 {
			st.PressRatePsiPerMin = (st.PressurePsia - prevPress) / dt * 60
		}
	}

	// 9. Secondary boundary state machine.
	secIn := secondary.Input{
		Dt:            dt,
		TavgF:         st.TavgF,
		SecondaryPsia: st.SecondaryPsia,
		SecondaryLbm:  st.SecondaryLbm,
		SteamOutLbm:   secRes.SteamOutLbm,
	}
	if tr, changed := e.sec.Update(secIn); changed {
		e.log.Emit(st.SimTime, eventlog.Info, "secondary",
			"secondary boundary %s -> %s (%s)", tr.From, tr.To, tr.Reason)
	}

	// 10. Diagnostics and conservation assertions.
	if !st.IsFinite() {
		return e.fatal(plant.ErrNonFiniteState)
	}
	if !e.rebasedThisTick {
		componentDelta := st.ComponentMass() - componentBefore
		ledgerDelta := e.led.TotalPrimaryLbm - ledgerBefore
		if err := e.led.CheckBalance(componentDelta, ledgerDelta); err != nil {
			return e.fatal(err)
		}
	}
	if regime == RegimeIsolated && st.PrzrSteamMass >= 1 {
		if drift := e.led.Drift(st.ComponentMass()); drift > ledger.DriftWarnLbm || drift < -ledger.DriftWarnLbm {
			e.log.EmitLimited(st.SimTime, 300, eventlog.Alarm, "ledger_drift",
				"ledger drift %+.1f lbm during two-phase isolated operation", drift)
		}
	}

	e.lastSnap = e.buildSnapshot()
	return nil
}

// applySpray condenses steam into the water space before the solver runs, so
// the pressure drop is derived, never imposed.
func (e *Engine) applySpray(frac float64) {
	if frac <= 0 || e.st.PrzrSteamMass <= 0 {
		return
	}
	const sprayCondLbmPerSec = 6.0
	cond := frac * sprayCondLbmPerSec * e.p.TickSeconds
	if cond > e.st.PrzrSteamMass {
		cond = e.st.PrzrSteamMass
	}
	e.st.PrzrSteamMass -= cond
	e.st.PrzrWaterMass += cond
}

// solidOpsCeilingPsia is the letdown pressure-relief program value for
// water-solid operation. Above it, excess letdown bleeds thermal expansion in
// steps so a solid plant cannot pressurize without bound.
const solidOpsCeilingPsia = 425.0

// cvcsFlows is the charging/letdown lineup for this tick, gpm.
func (e *Engine) cvcsFlows() ledger.Flows {
	f := ledger.Flows{
		MakeupGPM:        44,
		LetdownGPM:       47,
		SealInjectionGPM: 8,
		SealReturnGPM:    5,
	}
	if e.bubble.WantsLetdownExcess() {
		f.LetdownGPM += 75
	}
	if e.st.PrzrSteamMass < 1 && !e.st.BubbleFormed && !e.bubble.WantsLetdownExcess() {
		// Stepped rather than proportional so the lineup is stable across
		// ticks instead of reconfiguring every tick.
		switch over := e.st.PressurePsia - solidOpsCeilingPsia; {
		case over > 60:
			f.LetdownGPM += 75
		case over > 40:
			f.LetdownGPM += 55
		case over > 25:
			f.LetdownGPM += 35
		case over > 10:
			f.LetdownGPM += 15
		}
	}
	if e.st.BubbleFormed {
		switch {
		case e.st.PrzrLevelPct < 25:
			f.MakeupGPM += 20
		case e.st.PrzrLevelPct > 70:
			f.LetdownGPM += 20
		}
	}
	return f
}

// auxDeltas distributes the tick's boundary masses over the makeup tank and
// the recycle holdup, using the same flow-to-mass conversion as the ledger so
// the pairing identity holds exactly.
func (e *Engine) auxDeltas() (makeupTank, recycle float64) {
	ev := e.led.Event()
	rho := thermo.WaterDensity(e.st.TcoldF)
	mass := func(gpm float64) float64 {
		return gpm * thermo.GpmToFt3PerSec * rho * e.p.TickSeconds
	}
	outMass := mass(ev.Flows.LetdownGPM + ev.Flows.SealReturnGPM)
	inMass := mass(ev.Flows.MakeupGPM + ev.Flows.SealInjectionGPM)

	divert := 0.0
	if e.bubble.WantsLetdownExcess() {
		// Excess letdown run for the bubble machine goes to the recycle
		// holdup, not the tank.
		divert = 0.6
	}
	makeupTank = -inMass + outMass*(1-divert)
	recycle = outMass * divert
	return makeupTank, recycle
}
