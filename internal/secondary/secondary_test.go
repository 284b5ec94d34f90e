package secondary

import "testing"

func tick(m *Machine, tavg, psia, lbm, out float64) (Transition, bool) {
	return m.Update(Input{Dt: 10, TavgF: tavg, SecondaryPsia: psia, SecondaryLbm: lbm, SteamOutLbm: out})
}

func TestPreheatGatesOnBulkTemp(t *testing.T) {
	m := NewMachine()
	if _, ok := tick(m, 200, 20, 160000, 0); ok {
		t.Fatal("cold plant must stay in open preheat")
	}
	if m.BlockReason() != "bulk_temp_below_isolation" {
		t.Errorf("block reason = %q", m.BlockReason())
	}
	tr, ok := tick(m, 260, 20, 160000, 0)
	if !ok || tr.To != ModePressurize {
		t.Fatalf("isolation temperature should advance the stage: %+v", tr)
	}
}

func TestPressurizeNeedsIntervalsAndGain(t *testing.T) {
	m := NewMachine()
	tick(m, 260, 20, 160000, 0)

	// Interval gate first, even with plenty of gain.
	for i := 0; i < minPressTicks-1; i++ {
		if _, ok := tick(m, 280, 40, 160000, 0); ok {
			t.Fatal("advanced before the minimum interval")
		}
	}
	if m.BlockReason() != "pressurize_interval" {
		t.Errorf("block reason = %q", m.BlockReason())
	}

	// Then the gain gate.
	if _, ok := tick(m, 280, 21, 160000, 0); ok {
		t.Fatal("advanced without the pressure gain")
	}
	if m.BlockReason() != "pressure_gain" {
		t.Errorf("block reason = %q", m.BlockReason())
	}

	tr, ok := tick(m, 280, 40, 158000, 0)
	if !ok || tr.To != ModeHold {
		t.Fatalf("gain met should advance to hold: %+v", tr)
	}
	if m.HoldTarget() != 40 {
		t.Errorf("hold entry must snapshot the target, got %.1f", m.HoldTarget())
	}
}

func driveToHold(t *testing.T, m *Machine) {
	t.Helper()
	tick(m, 260, 20, 160000, 0)
	for i := 0; i < minPressTicks; i++ {
		tick(m, 280, 40, 158000, 0)
	}
	if m.Mode() != ModeHold {
		t.Fatal("setup: never reached hold")
	}
}

func TestHoldDeviationBlocks(t *testing.T) {
	m := NewMachine()
	driveToHold(t, m)
	for i := 0; i < minHoldTicks-1; i++ {
		tick(m, 300, 40+holdBandPsi+5, 158000, 0)
	}
	if _, ok := tick(m, 300, 40+holdBandPsi+5, 158000, 0); ok {
		t.Fatal("deviation outside the band must block")
	}
	if m.BlockReason() != "hold_deviation" {
		t.Errorf("block reason = %q", m.BlockReason())
	}
}

func TestHoldExcursionRestartsDwell(t *testing.T) {
	m := NewMachine()
	driveToHold(t, m)
	for i := 0; i < minHoldTicks/2; i++ {
		tick(m, 300, 40, 158000, 0)
	}

	// A single out-of-band tick in the middle of the dwell invalidates the
	// time already accrued.
	if _, ok := tick(m, 300, 40+holdBandPsi+5, 158000, 0); ok {
		t.Fatal("excursion tick must not advance")
	}
	if m.BlockReason() != "hold_deviation" {
		t.Errorf("block reason = %q", m.BlockReason())
	}
	for i := 0; i < minHoldTicks-1; i++ {
		if _, ok := tick(m, 300, 40, 158000, 0); ok {
			t.Fatalf("advanced %d ticks after the excursion; dwell should restart", i+1)
		}
	}

	tr, ok := tick(m, 300, 40, 158000, 0)
	if !ok || tr.To != ModeIsolatedHeatup {
		t.Fatalf("a full clean dwell after the excursion should isolate: %+v", tr)
	}
}

func TestHoldLeakageCeilingBlocks(t *testing.T) {
	m := NewMachine()
	driveToHold(t, m)
	leakPerTick := 158000 * leakCeilingFrac / 10 // exceeds ceiling well before the interval
	for i := 0; i < minHoldTicks-1; i++ {
		tick(m, 300, 40, 158000, leakPerTick)
	}
	if _, ok := tick(m, 300, 40, 158000, leakPerTick); ok {
		t.Fatal("cumulative leakage above the ceiling must block")
	}
	if m.BlockReason() != "leakage_ceiling" {
		t.Errorf("block reason = %q", m.BlockReason())
	}
}

func TestFullMonotonicSequence(t *testing.T) {
	m := NewMachine()
	want := []Mode{ModePressurize, ModeHold, ModeIsolatedHeatup}
	var seen []Mode
	for i := 0; i < 500 && m.Mode() != ModeIsolatedHeatup; i++ {
		psia := 40.0
		if i == 0 {
			psia = 20 // boundary still open on the isolation tick
		}
		tr, ok := tick(m, 300, psia, 158000, 0.1)
		if ok {
			seen = append(seen, tr.To)
			if tr.To < tr.From {
				t.Fatalf("stage regressed: %v -> %v", tr.From, tr.To)
			}
		}
	}
	if len(seen) != len(want) {
		t.Fatalf("sequence %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("sequence %v, want %v", seen, want)
		}
	}
	if !m.Isolated() || m.SteamdumpCv() != 0 {
		t.Error("isolated heatup must close the steam boundary")
	}
}
