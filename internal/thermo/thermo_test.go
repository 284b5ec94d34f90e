package thermo

import (
	"math"
	"testing"
)

func TestSaturationRoundTrip(t *testing.T) {
	for _, p := range []float64{50, 400, 1000, 2235} {
		tsat := SatTempF(p)
		back := SatPressPsia(tsat)
		if math.Abs(back-p)/p > 0.01 {
			t.Errorf("round trip at %.0f psia: got %.1f", p, back)
		}
	}
}

func TestSaturationAnchors(t *testing.T) {
	cases := []struct {
		psia, tF, tol float64
	}{
		{14.696, 212, 8},
		{400, 444.6, 8},
		{1000, 544.6, 10},
		{2235, 652.7, 15},
	}
	for _, c := range cases {
		got := SatTempF(c.psia)
		if math.Abs(got-c.tF) > c.tol {
			t.Errorf("SatTempF(%.0f) = %.1f, want ~%.1f", c.psia, got, c.tF)
		}
	}
}

func TestWaterDensityDecreasesWithTemp(t *testing.T) {
	prev := WaterDensity(60)
	for tF := 100.0; tF <= 600; tF += 50 {
		rho := WaterDensity(tF)
		if rho >= prev {
			t.Fatalf("density not decreasing at %.0f°F: %.2f >= %.2f", tF, rho, prev)
		}
		prev = rho
	}
}

func TestSolveHeatsCoolant(t *testing.T) {
	in := EquilibriumInput{
		Dt:            10,
		Pressure:      400,
		TavgF:         200,
		PrzrTempF:     210,
		RCSWaterMass:  550000,
		PrzrWaterMass: 70000,
		PrzrSteamMass: 0,
		NetHeatBtu:    5.5e5,
		PrzrVolume:    1800,
	}
	out := Solve(in)
	if !out.Converged {
		t.Fatal("solver did not converge")
	}
	if out.TavgF <= in.TavgF {
		t.Errorf("expected coolant heating, %.2f -> %.2f", in.TavgF, out.TavgF)
	}
	if out.SurgeLbm <= 0 {
		t.Errorf("expansion should surge into the pressurizer, got %.2f lbm", out.SurgeLbm)
	}
}

func TestSolveBubblePressureTracksSteamMass(t *testing.T) {
	base := EquilibriumInput{
		Dt:            10,
		Pressure:      420,
		TavgF:         300,
		PrzrTempF:     SatTempF(420),
		RCSWaterMass:  540000,
		PrzrWaterMass: 45000,
		PrzrSteamMass: 500,
		PrzrVolume:    1800,
	}
	low := Solve(base)
	base.PrzrSteamMass = 650
	high := Solve(base)
	if !low.Converged || !high.Converged {
		t.Fatal("solver did not converge")
	}
	if high.Pressure <= low.Pressure {
		t.Errorf("more steam in the same space must compress harder: %.1f <= %.1f",
			high.Pressure, low.Pressure)
	}
	if math.Abs(low.PrzrTempF-SatTempF(low.Pressure)) > 0.5 {
		t.Errorf("two-phase pressurizer must sit on the saturation line")
	}
}

func TestLoopTempsOrdering(t *testing.T) {
	hot, cold := LoopTemps(300, 4000, 0.5)
	if !(cold <= 300 && 300 <= hot) {
		t.Errorf("cold %.2f <= avg <= hot %.2f violated", cold, hot)
	}
	hot0, cold0 := LoopTemps(300, 4000, 0)
	if hot0-cold0 <= hot-cold {
		t.Errorf("stagnant loop should carry a wider split, %.2f vs %.2f", hot0-cold0, hot-cold)
	}
}

func TestRHRIsolatesWhenHot(t *testing.T) {
	if q := RHRStep(400, 140, 3000, 10); q != 0 {
		t.Errorf("RHR must be isolated above 350°F, got %.1f Btu", q)
	}
	if q := RHRStep(200, 140, 3000, 10); q >= 0 {
		t.Errorf("RHR above setpoint should remove heat, got %.1f Btu", q)
	}
	if q := RHRStep(100, 140, 3000, 10); q != 0 {
		t.Errorf("RHR cannot add heat below setpoint, got %.1f Btu", q)
	}
}

func TestSecondaryStepHeatsAndVents(t *testing.T) {
	in := SecondaryInput{
		Dt:           10,
		NodesF:       []float64{180, 170, 160},
		PrimaryHotF:  320,
		FlowFrac:     0.6,
		SteamdumpCv:  0.4,
		SecondaryLbm: 160000,
	}
	out := SecondaryStep(in)
	if out.NodesF[0] <= in.NodesF[0] {
		t.Errorf("bottom node should heat, %.2f -> %.2f", in.NodesF[0], out.NodesF[0])
	}
	if out.HeatToSecBtu <= 0 {
		t.Error("expected primary-to-secondary heat transfer")
	}

	in.Isolated = true
	isolated := SecondaryStep(in)
	if isolated.SteamOutLbm != 0 {
		t.Errorf("isolated secondary must not vent, got %.3f lbm", isolated.SteamOutLbm)
	}
}
