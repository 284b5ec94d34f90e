package store

import (
	"encoding/json"
	"os"
)

// ExportData is the single-file JSON form of a saved run, for handing to
// external plotting or analysis tools.
type ExportData struct {
	Meta    RunMetadata `json:"meta"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// ExportJSON flattens a saved run into one indented JSON file.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		Meta:    *meta,
		Columns: series.Header,
		Rows:    series.Rows,
	})
}
