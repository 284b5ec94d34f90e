package metrics

import "github.com/averyjl/pwrsim/internal/plant"

// HeaterDuty is the mean commanded heater power in kW, a proxy for how hard
// the pressure controller worked over the run.
type HeaterDuty struct {
	name    string
	sum     float64
	samples int
}

func NewHeaterDuty() *HeaterDuty {
	return &HeaterDuty{name: "heater_duty"}
}

func (h *HeaterDuty) Name() string { return h.name }

func (h *HeaterDuty) Observe(s plant.Snapshot) {
	h.sum += s.HeaterPowerKW
	h.samples++
}

func (h *HeaterDuty) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return h.sum / float64(h.samples)
}

func (h *HeaterDuty) Reset() {
	h.sum = 0
	h.samples = 0
}
