package metrics

import (
	"math"

	"github.com/averyjl/pwrsim/internal/plant"
)

// MassDrift tracks the worst absolute disagreement between the boundary-flow
// ledger and the summed component inventories seen over the run.
type MassDrift struct {
	name     string
	maxDrift float64
	samples  int
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(s plant.Snapshot) {
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, math.Abs(s.LedgerDrift))
}

func (m *MassDrift) Value() float64 {
	return m.maxDrift
}

func (m *MassDrift) Reset() {
	m.maxDrift = 0
	m.samples = 0
}

// HeatupRate reduces to the mean bulk heatup rate in °F/hr over all observed
// ticks, the figure heatup procedures are graded against.
type HeatupRate struct {
	name    string
	sum     float64
	samples int
}

func NewHeatupRate() *HeatupRate {
	return &HeatupRate{name: "heatup_rate"}
}

func (h *HeatupRate) Name() string { return h.name }

func (h *HeatupRate) Observe(s plant.Snapshot) {
	h.sum += s.HeatupRateFPerHr
	h.samples++
}

func (h *HeatupRate) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return h.sum / float64(h.samples)
}

func (h *HeatupRate) Reset() {
	h.sum = 0
	h.samples = 0
}
