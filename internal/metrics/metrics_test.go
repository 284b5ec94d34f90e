package metrics

import (
	"math"
	"testing"

	"github.com/averyjl/pwrsim/internal/plant"
)

func TestMassDriftTracksWorstCase(t *testing.T) {
	m := NewMassDrift()

	m.Observe(plant.Snapshot{LedgerDrift: 0.4})
	m.Observe(plant.Snapshot{LedgerDrift: -2.5})
	m.Observe(plant.Snapshot{LedgerDrift: 1.1})

	if got := m.Value(); math.Abs(got-2.5) > 1e-12 {
		t.Errorf("max drift = %f, want 2.5", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestTempOrderingScoresViolations(t *testing.T) {
	o := NewTempOrdering()
	if o.Value() != 1.0 {
		t.Error("empty metric must score a perfect run")
	}

	o.Observe(plant.Snapshot{TcoldF: 95, TavgF: 100, ThotF: 105})
	o.Observe(plant.Snapshot{TcoldF: 100, TavgF: 100, ThotF: 100})
	o.Observe(plant.Snapshot{TcoldF: 110, TavgF: 100, ThotF: 105})
	o.Observe(plant.Snapshot{TcoldF: 95, TavgF: 108, ThotF: 105})

	if got := o.Value(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("ordering score = %f, want 0.5", got)
	}
}

func TestHeatupRateIsMean(t *testing.T) {
	h := NewHeatupRate()
	if h.Value() != 0 {
		t.Error("empty metric must read zero")
	}

	h.Observe(plant.Snapshot{HeatupRateFPerHr: 10})
	h.Observe(plant.Snapshot{HeatupRateFPerHr: 30})

	if got := h.Value(); math.Abs(got-20) > 1e-12 {
		t.Errorf("mean heatup = %f, want 20", got)
	}
}

func TestSetFansOutAndReports(t *testing.T) {
	set := DefaultSet()

	set.Observe(plant.Snapshot{
		LedgerDrift:      -0.7,
		TcoldF:           95,
		TavgF:            100,
		ThotF:            105,
		HeatupRateFPerHr: 42,
		HeaterPowerKW:    600,
	})

	vals := set.Values()
	if math.Abs(vals["mass_drift"]-0.7) > 1e-12 {
		t.Errorf("mass_drift = %f, want 0.7", vals["mass_drift"])
	}
	if vals["temp_ordering"] != 1.0 {
		t.Errorf("temp_ordering = %f, want 1", vals["temp_ordering"])
	}
	if math.Abs(vals["heatup_rate"]-42) > 1e-12 {
		t.Errorf("heatup_rate = %f, want 42", vals["heatup_rate"])
	}
	if math.Abs(vals["heater_duty"]-600) > 1e-12 {
		t.Errorf("heater_duty = %f, want 600", vals["heater_duty"])
	}

	set.Reset()
	vals = set.Values()
	if vals["mass_drift"] != 0 || vals["heater_duty"] != 0 {
		t.Error("expected cleared metrics after reset")
	}
}
