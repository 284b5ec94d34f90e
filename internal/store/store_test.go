package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/averyjl/pwrsim/internal/plant"
)

func sampleSnaps() []plant.Snapshot {
	return []plant.Snapshot{
		{SimTime: 10, TavgF: 100.1, PressurePsia: 401.2, PrzrLevelPct: 100, CouplingAlpha: 0},
		{SimTime: 20, TavgF: 100.2, PressurePsia: 402.5, PrzrLevelPct: 100, CouplingAlpha: 0.1},
		{SimTime: 30, TavgF: 100.3, PressurePsia: 403.9, PrzrLevelPct: 99.8, CouplingAlpha: 0.2, BubbleFormed: true},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("cold_start", 10, sampleSnaps(), map[string]float64{"mass_drift": 0.002})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "cold_start" {
		t.Errorf("preset = %q, want cold_start", meta.Preset)
	}
	if meta.Ticks != 3 {
		t.Errorf("ticks = %d, want 3", meta.Ticks)
	}
	if !meta.BubbleFormed {
		t.Error("final bubble flag should carry into metadata")
	}
	if meta.Metrics["mass_drift"] != 0.002 {
		t.Errorf("mass_drift = %f, want 0.002", meta.Metrics["mass_drift"])
	}
}

func TestLoadSeriesColumns(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save("cold_start", 10, sampleSnaps(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(series.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(series.Rows))
	}

	tavg := series.Column("tavg_f")
	if len(tavg) != 3 || tavg[2] != 100.3 {
		t.Errorf("tavg column = %v, want last value 100.3", tavg)
	}
	times := series.Column("time_s")
	if times[0] != 10 || times[2] != 30 {
		t.Errorf("time column = %v", times)
	}
	if series.Column("no_such_column") != nil {
		t.Error("unknown column should return nil")
	}
}

func TestListSkipsStrayEntries(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	if _, err := st.Save("cold_start", 10, sampleSnaps(), nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "empty_dir"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("runs = %d, want 1", len(runs))
	}
}

func TestListMissingBaseDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "never_created"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %d, want 0", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	runID, err := st.Save("pump_ramp", 10, sampleSnaps(), map[string]float64{"heater_duty": 310})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	out := filepath.Join(dir, "run.json")
	if err := st.ExportJSON(runID, out); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var exp ExportData
	if err := json.Unmarshal(data, &exp); err != nil {
		t.Fatalf("exported file is not valid JSON: %v", err)
	}
	if exp.Meta.Preset != "pump_ramp" {
		t.Errorf("preset = %q, want pump_ramp", exp.Meta.Preset)
	}
	if len(exp.Rows) != 3 || len(exp.Columns) == 0 {
		t.Errorf("export shape %dx%d unexpected", len(exp.Rows), len(exp.Columns))
	}
}
