package thermo

import "math"

// RatedLoopFlowLbmPerSec is total primary flow with all RCPs at speed.
const RatedLoopFlowLbmPerSec = 38500.0

// NaturalCircFraction is the residual transport available with no forced flow
// (natural convection plus RHR circulation), as a fraction of rated flow.
const NaturalCircFraction = 0.004

// LoopTemps splits a bulk average temperature into hot/cold leg temperatures
// for the given core-equivalent power (Btu/s) and forced-flow fraction.
// The split collapses toward zero as heat sources or flow vanish.
func LoopTemps(tavgF, powerBtuPerSec, flowFrac float64) (hotF, coldF float64) {
	frac := math.Max(flowFrac, NaturalCircFraction)
	mdot := frac * RatedLoopFlowLbmPerSec
	dt := powerBtuPerSec / (mdot * WaterCp(tavgF))
	if dt < 0 {
		dt = 0
	}
	if dt > 60 {
		dt = 60
	}
	return tavgF + dt/2, tavgF - dt/2
}

// RHRStep returns the heat in Btu added to (positive) or removed from
// (negative) the coolant by the residual heat removal loop over one tick.
// The loop throttles toward its setpoint and cuts out entirely above its
// isolation temperature.
func RHRStep(tavgF, setpointF, flowGpm, dt float64) float64 {
	const isolationF = 350 // RHR is isolated above this bulk temperature
	if flowGpm <= 0 || tavgF >= isolationF {
		return 0
	}
	mdot := flowGpm * GpmToFt3PerSec * WaterDensity(tavgF)
	// Heat exchanger effectiveness against the setpoint approach. The HX can
	// only reject heat; below the setpoint it carries none.
	q := 0.35 * mdot * WaterCp(tavgF) * (setpointF - tavgF)
	if q > 0 {
		q = 0
	}
	return q * dt
}

// SecondaryInput drives one multi-node update of a steam generator secondary.
type SecondaryInput struct {
	Dt           float64   // seconds
	NodesF       []float64 // secondary node temperatures, bottom to top
	PrimaryHotF  float64   // SG primary-side inlet temperature
	FlowFrac     float64   // primary forced-flow fraction
	SteamdumpCv  float64   // 0..1 steam outflow valve position
	Isolated     bool      // secondary boundary closed
	SecondaryLbm float64   // current secondary water inventory
}

// SecondaryResult is the per-tick secondary-side outcome.
type SecondaryResult struct {
	NodesF       []float64
	PressurePsia float64
	SteamOutLbm  float64 // mass leaving via the steam line this tick
	HeatToSecBtu float64 // heat transferred from primary this tick
}

// SecondaryStep advances the stacked secondary nodes: primary-to-secondary
// heat transfer at the bottom, node-to-node conduction upward, steam outflow
// at the top when not isolated. Secondary pressure is the saturation pressure
// of the top node.
func SecondaryStep(in SecondaryInput) SecondaryResult {
	out := SecondaryResult{NodesF: make([]float64, len(in.NodesF))}
	copy(out.NodesF, in.NodesF)
	if len(out.NodesF) == 0 || in.SecondaryLbm <= 0 {
		return out
	}

	nodeMass := in.SecondaryLbm / float64(len(out.NodesF))

	// Primary-to-secondary UA scales with forced flow; nearly stagnant
	// primary water transfers little.
	ua := 35.0 * (0.05 + 0.95*in.FlowFrac)
	q := ua * (in.PrimaryHotF - out.NodesF[0]) * in.Dt
	if q < 0 {
		q = 0
	}
	out.HeatToSecBtu = q
	out.NodesF[0] += q / (nodeMass * WaterCp(out.NodesF[0]))

	// Inter-node mixing, bottom to top.
	const mixUA = 18.0
	for i := 0; i < len(out.NodesF)-1; i++ {
		dq := mixUA * (out.NodesF[i] - out.NodesF[i+1]) * in.Dt
		if dq < 0 {
			dq = 0
		}
		out.NodesF[i] -= dq / (nodeMass * WaterCp(out.NodesF[i]))
		out.NodesF[i+1] += dq / (nodeMass * WaterCp(out.NodesF[i+1]))
	}

	top := out.NodesF[len(out.NodesF)-1]
	out.PressurePsia = SatPressPsia(top)

	if !in.Isolated && in.SteamdumpCv > 0 && out.PressurePsia > AtmPsia {
		// Choked-ish venting proportional to valve position and overpressure.
		out.SteamOutLbm = in.SteamdumpCv * 0.9 * (out.PressurePsia - AtmPsia) * in.Dt / 100
		if out.SteamOutLbm > nodeMass*0.1 {
			out.SteamOutLbm = nodeMass * 0.1
		}
	}
	return out
}
