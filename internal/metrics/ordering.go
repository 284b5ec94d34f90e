package metrics

import "github.com/averyjl/pwrsim/internal/plant"

// TempOrdering scores how often the loop temperatures keep their physical
// order, cold leg at or below bulk average at or below hot leg. A healthy run
// scores 1.0.
type TempOrdering struct {
	name       string
	violations int
	samples    int
}

func NewTempOrdering() *TempOrdering {
	return &TempOrdering{name: "temp_ordering"}
}

func (o *TempOrdering) Name() string { return o.name }

func (o *TempOrdering) Observe(s plant.Snapshot) {
	o.samples++
	if s.TcoldF > s.TavgF || s.TavgF > s.ThotF {
		o.violations++
	}
}

func (o *TempOrdering) Value() float64 {
	if o.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(o.violations)/float64(o.samples)
}

func (o *TempOrdering) Reset() {
	o.violations = 0
	o.samples = 0
}
