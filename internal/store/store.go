// Package store persists heatup runs on disk, one directory per run with a
// JSON metadata file and a CSV tick series.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/averyjl/pwrsim/internal/plant"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Preset       string             `json:"preset"`
	Timestamp    time.Time          `json:"timestamp"`
	TickSeconds  float64            `json:"tick_seconds"`
	Ticks        int                `json:"ticks"`
	FinalTavgF   float64            `json:"final_tavg_f"`
	FinalPsia    float64            `json:"final_pressure_psia"`
	BubbleFormed bool               `json:"bubble_formed"`
	Metrics      map[string]float64 `json:"metrics"`
}

// seriesColumns is the fixed CSV layout; readers address columns by name.
var seriesColumns = []string{
	"time_s", "tavg_f", "thot_f", "tcold_f", "przr_temp_f",
	"pressure_psia", "tsat_f", "subcool_f", "przr_level_pct",
	"ledger_drift_lbm", "coupling_alpha", "regime",
	"heater_kw", "spray_frac", "secondary_psia", "heatup_rate_f_hr",
}

func seriesRow(snap plant.Snapshot) []float64 {
	return []float64{
		snap.SimTime, snap.TavgF, snap.ThotF, snap.TcoldF, snap.PrzrTempF,
		snap.PressurePsia, snap.TsatF, snap.SubcoolF, snap.PrzrLevelPct,
		snap.LedgerDrift, snap.CouplingAlpha, float64(snap.Regime),
		snap.HeaterPowerKW, snap.SprayFrac, snap.SecondaryPsia, snap.HeatupRateFPerHr,
	}
}

// Save writes one run directory and returns its ID.
func (s *Store) Save(preset string, tickSeconds float64, snaps []plant.Snapshot, metrics map[string]float64) (string, error) {
	runID := fmt.Sprintf("heatup_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Preset:      preset,
		Timestamp:   time.Now(),
		TickSeconds: tickSeconds,
		Ticks:       len(snaps),
		Metrics:     metrics,
	}
	if n := len(snaps); n > 0 {
		last := snaps[n-1]
		meta.FinalTavgF = last.TavgF
		meta.FinalPsia = last.PressurePsia
		meta.BubbleFormed = last.BubbleFormed
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "series.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(seriesColumns); err != nil {
		return "", err
	}
	for _, snap := range snaps {
		row := make([]string, 0, len(seriesColumns))
		for _, v := range seriesRow(snap) {
			row = append(row, strconv.FormatFloat(v, 'f', 4, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Series is a loaded tick series with name-addressable columns.
type Series struct {
	Header []string
	Rows   [][]float64
}

// Column returns the named column, or nil if absent.
func (sr *Series) Column(name string) []float64 {
	idx := -1
	for i, h := range sr.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]float64, 0, len(sr.Rows))
	for _, row := range sr.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Series{}, nil
	}

	sr := &Series{Header: records[0], Rows: make([][]float64, 0, len(records)-1)}
	for _, record := range records[1:] {
		row := make([]float64, 0, len(record))
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			row = append(row, v)
		}
		sr.Rows = append(sr.Rows, row)
	}
	return sr, nil
}
