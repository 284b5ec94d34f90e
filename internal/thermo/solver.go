package thermo

import "math"

// EquilibriumInput carries everything the coupled P-T-V solver needs for one
// tick. Masses must already include the tick's boundary-flow transfers.
type EquilibriumInput struct {
	Dt            float64 // seconds
	Pressure      float64 // psia
	TavgF         float64
	PrzrTempF     float64
	RCSWaterMass  float64 // lbm, loops + vessel, excluding pressurizer
	PrzrWaterMass float64 // lbm
	PrzrSteamMass float64 // lbm
	NetHeatBtu    float64 // net heat into the coolant this tick
	PrzrHeatBtu   float64 // net heater energy into the pressurizer this tick
	PrzrVolume    float64 // ft³, total vessel volume
}

// EquilibriumState is the solver output. Mass deltas are internal transfers
// (loop↔pressurizer surge, water↔steam flashing); they never change the total
// primary inventory.
type EquilibriumState struct {
	Pressure     float64
	TsatF        float64
	TavgF        float64
	PrzrTempF    float64
	SurgeLbm     float64 // +into pressurizer this tick
	SurgeFlow    float64 // lbm/s
	FlashLbm     float64 // water flashed to steam this tick
	PrzrVolDelta float64 // ft³ change in pressurizer water volume
	Converged    bool
	Iterations   int
}

const (
	solverTolPsia  = 0.01
	solverMaxIters = 80
	steamMassFloor = 1.0 // lbm, below this the vessel is treated as solid
)

// Solve advances the fully-coupled primary equilibrium by one tick: coolant
// sensible heating, thermal-expansion surge into the pressurizer, heater
// flashing, and a bisection on the saturation line for the pressure at which
// the steam bubble exactly fills the space the water leaves.
func Solve(in EquilibriumInput) EquilibriumState {
	out := EquilibriumState{Pressure: in.Pressure}

	cp := WaterCp(in.TavgF)
	out.TavgF = in.TavgF
	if in.RCSWaterMass > 0 {
		out.TavgF += in.NetHeatBtu / (in.RCSWaterMass * cp)
	}

	// Expansion surge: the loop water that no longer fits displaces into the
	// pressurizer surge line.
	oldV := in.RCSWaterMass / WaterDensity(in.TavgF)
	newV := in.RCSWaterMass / WaterDensity(out.TavgF)
	out.SurgeLbm = (newV - oldV) * WaterDensity(in.PrzrTempF)
	if in.Dt > 0 {
		out.SurgeFlow = out.SurgeLbm / in.Dt
	}

	water := in.PrzrWaterMass + out.SurgeLbm
	steam := in.PrzrSteamMass

	// Heater energy at saturation flashes water to steam.
	if steam >= steamMassFloor && in.PrzrHeatBtu > 0 {
		out.FlashLbm = in.PrzrHeatBtu / Hfg(in.Pressure)
		if out.FlashLbm > water {
			out.FlashLbm = water
		}
		water -= out.FlashLbm
		steam += out.FlashLbm
	}

	if steam < steamMassFloor {
		// No meaningful bubble: report the solid response and leave pressure
		// motion to the solid-plant path.
		out.TsatF = SatTempF(in.Pressure)
		out.PrzrTempF = in.PrzrTempF
		out.Converged = true
		return out
	}

	out.Pressure, out.Iterations, out.Converged = solveBubblePressure(in.Pressure, water, steam, in.PrzrVolume)
	out.TsatF = SatTempF(out.Pressure)
	out.PrzrTempF = out.TsatF

	oldWaterV := in.PrzrWaterMass / WaterDensity(in.PrzrTempF)
	newWaterV := water / WaterDensity(out.PrzrTempF)
	out.PrzrVolDelta = newWaterV - oldWaterV
	return out
}

// solveBubblePressure finds, by expanding-bracket bisection, the pressure at
// which saturated steam of the given mass occupies exactly the vessel volume
// not taken by the liquid.
func solveBubblePressure(p0, waterLbm, steamLbm, vesselFt3 float64) (psia float64, iters int, ok bool) {
	residual := func(p float64) float64 {
		waterV := waterLbm / WaterDensity(SatTempF(p))
		return steamLbm*SteamSpecificVolume(p) + waterV - vesselFt3
	}

	lo, hi := math.Max(AtmPsia, p0-150), math.Min(CriticalPsia-1, p0+150)
	for residual(lo) < 0 && lo > AtmPsia {
		lo = math.Max(AtmPsia, lo-300)
		iters++
	}
	for residual(hi) > 0 && hi < CriticalPsia-1 {
		hi = math.Min(CriticalPsia-1, hi+300)
		iters++
	}

	// residual decreases with pressure (steam compresses), so the root has
	// residual(lo) >= 0 >= residual(hi).
	if residual(lo) < 0 || residual(hi) > 0 {
		return p0, iters, false
	}

	for iters < solverMaxIters {
		mid := 0.5 * (lo + hi)
		if hi-lo < solverTolPsia {
			return mid, iters, true
		}
		if residual(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
		iters++
	}
	return 0.5 * (lo + hi), iters, false
}
