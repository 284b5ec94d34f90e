// Package rcp tracks reactor coolant pump start commands and turns them into
// a ramped flow/heat contribution for the coupling engine.
package rcp

// NumPumps is the loop pump count.
const NumPumps = 4

const (
	// RampSeconds is the time a pump takes from breaker close to rated flow.
	RampSeconds = 180.0

	// HeatPerPumpBtuPerSec is the full-speed pump heat input to the coolant.
	HeatPerPumpBtuPerSec = 4300.0
)

// Contribution is the per-tick aggregate pump state. Recomputed every tick
// from the immutable start-time records.
type Contribution struct {
	Ramp            [NumPumps]float64 // 0..1 per pump
	FlowFrac        float64           // aggregate, 0..1 of rated loop flow
	HeatBtuPerSec   float64
	Commanded       int
	FullyRunning    int
	AllFullyRunning bool
}

// Sequencer records when each pump was commanded on. Start times are set once
// and never reset except by Reset at re-initialization.
type Sequencer struct {
	started [NumPumps]bool
	startAt [NumPumps]float64
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Start commands a pump on at the given sim time. Repeated starts of the same
// pump keep the original start time.
func (s *Sequencer) Start(pump int, simTime float64) bool {
	if pump < 0 || pump >= NumPumps || s.started[pump] {
		return false
	}
	s.started[pump] = true
	s.startAt[pump] = simTime
	return true
}

// Started reports whether the pump has been commanded on.
func (s *Sequencer) Started(pump int) bool {
	return pump >= 0 && pump < NumPumps && s.started[pump]
}

// Reset clears all start records. Only valid at simulation re-initialization.
func (s *Sequencer) Reset() {
	*s = Sequencer{}
}

// Contribution computes the aggregate ramp state at simTime. Flow fraction is
// the mean per-pump ramp over all loop positions, so one pump at rated flow
// yields 1/NumPumps of rated loop flow.
func (s *Sequencer) Contribution(simTime float64) Contribution {
	var c Contribution
	for i := 0; i < NumPumps; i++ {
		if !s.started[i] {
			continue
		}
		c.Commanded++
		r := (simTime - s.startAt[i]) / RampSeconds
		if r < 0 {
			r = 0
		}
		if r >= 1 {
			r = 1
			c.FullyRunning++
		}
		c.Ramp[i] = r
		c.FlowFrac += r / NumPumps
		// Pump heat follows the cube of speed.
		c.HeatBtuPerSec += HeatPerPumpBtuPerSec * r * r * r
	}
	c.AllFullyRunning = c.Commanded > 0 && c.FullyRunning == c.Commanded
	return c
}
