// Package metrics accumulates run-quality figures over the per-tick snapshot
// stream: conservation drift, temperature-ordering health, heatup pace, and
// heater duty. Metrics are cheap enough to observe every tick.
package metrics

import "github.com/averyjl/pwrsim/internal/plant"

// Metric observes tick-end snapshots and reduces them to one number.
type Metric interface {
	Name() string
	Observe(s plant.Snapshot)
	Value() float64
	Reset()
}

// Set fans one snapshot out to every registered metric.
type Set struct {
	metrics []Metric
}

func NewSet(ms ...Metric) *Set {
	return &Set{metrics: ms}
}

func (set *Set) Observe(s plant.Snapshot) {
	for _, m := range set.metrics {
		m.Observe(s)
	}
}

// Values returns a name-to-value map of every metric's current reduction.
func (set *Set) Values() map[string]float64 {
	out := make(map[string]float64, len(set.metrics))
	for _, m := range set.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (set *Set) Reset() {
	for _, m := range set.metrics {
		m.Reset()
	}
}

// DefaultSet is the standard heatup-run scorecard.
func DefaultSet() *Set {
	return NewSet(
		NewMassDrift(),
		NewTempOrdering(),
		NewHeatupRate(),
		NewHeaterDuty(),
	)
}
