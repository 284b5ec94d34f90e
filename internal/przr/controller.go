package przr

import "math"

// LimiterReason is the machine-readable record of what, if anything, limited
// the heater/spray output this tick.
type LimiterReason int

const (
	LimitNone LimiterReason = iota
	LimitPressureRate
	LimitRampRate
	LimitLowLevel
	LimitSolidBand
)

func (r LimiterReason) String() string {
	switch r {
	case LimitNone:
		return "none"
	case LimitPressureRate:
		return "pressure_rate_clamp"
	case LimitRampRate:
		return "ramp_rate_clamp"
	case LimitLowLevel:
		return "low_level_interlock"
	case LimitSolidBand:
		return "solid_plant_hold_band"
	default:
		return "unknown"
	}
}

// Heater bank sizing and controller calibration.
const (
	VariableHeaterKW = 371.0
	BackupHeaterKW   = 1423.0
	MaxHeaterKW      = VariableHeaterKW + BackupHeaterKW

	lowLevelCutoffPct  = 17.0
	maxHeaterRampKWSec = 25.0  // smoothed-output slew limit
	maxPressRatePsiMin = 100.0 // administrative pressurization rate gate
	solidHoldBandPsi   = 25.0

	// Pressure at which the controller hands over from the fixed
	// pressurization program to the PID. Backup heaters stage in and spray
	// modulates only in PID mode.
	pidModeThresholdPsia = 1700.0
	sprayThresholdPsia   = 2260.0
	backupStagePsi       = 35.0 // pressure error that brings backup heaters in
)

// Input is everything the controller reads for one tick.
type Input struct {
	Dt                 float64
	PressurePsia       float64
	TargetPressurePsia float64
	PressRatePsiPerMin float64
	LevelPct           float64
	SolidPlant         bool
	BubbleActive       bool // bubble machine owns heater duty this tick

	HoldLocked     bool
	CommandedOff   bool
	ManualDisabled bool
}

// Output is the resolved demand for one tick.
type Output struct {
	Authority Authority
	HeaterKW  float64
	BackupOn  bool
	SprayFrac float64
	Limiter   LimiterReason

	// Changed is set when authority or limiter differ from the previous
	// tick, the only case a transition should be logged.
	Changed bool
}

// Controller holds the persisted controller state: the rate-limited smoothed
// heater output and the PID terms.
type Controller struct {
	smoothedKW float64
	pid        pid

	lastAuthority Authority
	lastLimiter   LimiterReason
	first         bool
}

func NewController() *Controller {
	return &Controller{
		pid:   pid{kp: 8.0, ki: 0.02, kd: 2.5, outMin: -1, outMax: 1, first: true},
		first: true,
	}
}

// Update resolves authority and computes heater and spray demand. Spray
// condensation itself is applied by the dispatcher to the pressurizer masses
// before the equilibrium solver runs.
func (c *Controller) Update(in Input) Output {
	out := Output{
		Authority: ResolveAuthority(in.HoldLocked, in.CommandedOff, in.ManualDisabled),
		Limiter:   LimitNone,
	}

	if out.Authority != AuthorityAuto {
		c.smoothedKW = 0
		c.pid.reset()
	} else {
		c.auto(in, &out)
	}

	out.Changed = c.first || out.Authority != c.lastAuthority || out.Limiter != c.lastLimiter
	c.first = false
	c.lastAuthority = out.Authority
	c.lastLimiter = out.Limiter
	return out
}

func (c *Controller) auto(in Input, out *Output) {
	if in.LevelPct < lowLevelCutoffPct && !in.SolidPlant {
		out.Limiter = LimitLowLevel
		c.smoothedKW = 0
		return
	}

	var demandKW float64
	if in.PressurePsia < pidModeThresholdPsia {
		demandKW = c.programDemand(in, out)
	} else {
		demandKW = c.pidDemand(in, out)
	}

	// Slew-limit the output so heater power never steps bang-bang.
	maxStep := maxHeaterRampKWSec * in.Dt
	if diff := demandKW - c.smoothedKW; math.Abs(diff) > maxStep {
		if out.Limiter == LimitNone {
			out.Limiter = LimitRampRate
		}
		if diff > 0 {
			c.smoothedKW += maxStep
		} else {
			c.smoothedKW -= maxStep
		}
	} else {
		c.smoothedKW = demandKW
	}
	if c.smoothedKW < 0 {
		c.smoothedKW = 0
	}
	out.HeaterKW = c.smoothedKW
	out.BackupOn = out.HeaterKW > VariableHeaterKW
}

// programDemand is the fixed pressurization program used during bubble
// formation and the pressurize-auto band: full available heat, trimmed by the
// pressure-rate gate and the solid-plant hold band.
func (c *Controller) programDemand(in Input, out *Output) float64 {
	demand := VariableHeaterKW
	if in.BubbleActive || in.SolidPlant {
		// Solid-plant heatup and bubble formation run all banks; the
		// variable bank alone cannot outrun pressurizer heat losses.
		demand = MaxHeaterKW
	}

	if in.SolidPlant {
		err := in.TargetPressurePsia - in.PressurePsia
		if math.Abs(err) < solidHoldBandPsi {
			out.Limiter = LimitSolidBand
			return demand * 0.15
		}
	}

	if in.PressRatePsiPerMin > maxPressRatePsiMin {
		out.Limiter = LimitPressureRate
		over := in.PressRatePsiPerMin / maxPressRatePsiMin
		return demand / (over * over)
	}
	return demand
}

// pidDemand runs the pressure PID. Positive output drives heaters toward the
// target, negative output above the spray threshold opens the spray valve.
func (c *Controller) pidDemand(in Input, out *Output) float64 {
	err := (in.TargetPressurePsia - in.PressurePsia) / 100.0
	u := c.pid.step(err, in.Dt)

	if u < 0 {
		if in.PressurePsia > sprayThresholdPsia {
			out.SprayFrac = math.Min(1, -u)
		}
		return 0
	}

	demand := u * VariableHeaterKW
	if in.TargetPressurePsia-in.PressurePsia > backupStagePsi {
		demand += BackupHeaterKW
	}
	if demand > MaxHeaterKW {
		demand = MaxHeaterKW
	}
	if in.PressRatePsiPerMin > maxPressRatePsiMin {
		out.Limiter = LimitPressureRate
		demand *= maxPressRatePsiMin / in.PressRatePsiPerMin
	}
	return demand
}

type pid struct {
	kp, ki, kd     float64
	outMin, outMax float64
	integral       float64
	prevErr        float64
	first          bool
}

func (p *pid) reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

func (p *pid) step(err, dt float64) float64 {
	if dt <= 0 {
		return clamp(p.kp*err, p.outMin, p.outMax)
	}
	if p.first {
		p.first = false
		p.prevErr = err
	}
	p.integral += err * dt
	d := (err - p.prevErr) / dt
	p.prevErr = err
	return clamp(p.kp*err+p.ki*p.integral+p.kd*d, p.outMin, p.outMax)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
