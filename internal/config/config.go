// Package config is the YAML-backed run configuration: initial plant lineup,
// heatup targets, and pacing for both live and headless runs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/averyjl/pwrsim/internal/engine"
	"github.com/averyjl/pwrsim/internal/sched"
)

const (
	DefaultTickSeconds   = 10.0
	DefaultInitTavg      = 100.0
	DefaultInitPressure  = 400.0
	DefaultInitLevel     = 100.0
	DefaultTargetTavg    = 557.0
	DefaultTargetPress   = 2235.0
	DefaultDecayHeat     = 1500.0
	DefaultRHRSetpoint   = 140.0
	DefaultRHRFlow       = 3000.0
	DefaultTimeScale     = 60.0
	DefaultHeadlessTicks = 2160 // six sim hours
)

type Config struct {
	TickSeconds float64     `yaml:"tick_seconds"`
	Init        InitConfig  `yaml:"init"`
	Target      Targets     `yaml:"target"`
	Plant       PlantConfig `yaml:"plant"`
	Run         RunConfig   `yaml:"run"`
}

type InitConfig struct {
	TavgF        float64 `yaml:"tavg_f"`
	PressurePsia float64 `yaml:"pressure_psia"`
	LevelPct     float64 `yaml:"level_pct"`
}

type Targets struct {
	TavgF        float64 `yaml:"tavg_f"`
	PressurePsia float64 `yaml:"pressure_psia"`
}

type PlantConfig struct {
	DecayHeatBtuPerSec float64 `yaml:"decay_heat_btu_s"`
	RHRSetpointF       float64 `yaml:"rhr_setpoint_f"`
	RHRFlowGpm         float64 `yaml:"rhr_flow_gpm"`
	SecondaryNodes     int     `yaml:"secondary_nodes"`
}

type RunConfig struct {
	TimeScale        float64 `yaml:"time_scale"`
	MaxTicksPerFrame int     `yaml:"max_ticks_per_frame"`
	MaxBudgetSeconds float64 `yaml:"max_budget_seconds"`
	HeadlessTicks    int     `yaml:"headless_ticks"`
	Audit            bool    `yaml:"audit"`
}

func DefaultConfig() *Config {
	return &Config{
		TickSeconds: DefaultTickSeconds,
		Init: InitConfig{
			TavgF:        DefaultInitTavg,
			PressurePsia: DefaultInitPressure,
			LevelPct:     DefaultInitLevel,
		},
		Target: Targets{
			TavgF:        DefaultTargetTavg,
			PressurePsia: DefaultTargetPress,
		},
		Plant: PlantConfig{
			DecayHeatBtuPerSec: DefaultDecayHeat,
			RHRSetpointF:       DefaultRHRSetpoint,
			RHRFlowGpm:         DefaultRHRFlow,
			SecondaryNodes:     4,
		},
		Run: RunConfig{
			TimeScale:        DefaultTimeScale,
			MaxTicksPerFrame: 12,
			MaxBudgetSeconds: 300,
			HeadlessTicks:    DefaultHeadlessTicks,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects lineups the dispatcher cannot advance from.
func (c *Config) Validate() error {
	if c.TickSeconds <= 0 {
		return fmt.Errorf("tick_seconds must be positive, got %g", c.TickSeconds)
	}
	if c.Init.TavgF < 40 || c.Init.TavgF > c.Target.TavgF {
		return fmt.Errorf("init tavg %g°F outside [40, target %g]", c.Init.TavgF, c.Target.TavgF)
	}
	if c.Init.PressurePsia <= 0 {
		return fmt.Errorf("init pressure must be positive, got %g", c.Init.PressurePsia)
	}
	if c.Init.LevelPct < 0 || c.Init.LevelPct > 100 {
		return fmt.Errorf("init level %g%% outside [0, 100]", c.Init.LevelPct)
	}
	if c.Plant.SecondaryNodes < 1 {
		return fmt.Errorf("secondary_nodes must be at least 1, got %d", c.Plant.SecondaryNodes)
	}
	if c.Run.HeadlessTicks < 0 {
		return fmt.Errorf("headless_ticks must be non-negative, got %d", c.Run.HeadlessTicks)
	}
	return nil
}

// EngineParams maps the lineup onto dispatcher parameters.
func (c *Config) EngineParams() engine.Params {
	p := engine.DefaultParams()
	p.TickSeconds = c.TickSeconds
	p.InitTavgF = c.Init.TavgF
	p.InitPressurePsia = c.Init.PressurePsia
	p.InitLevelPct = c.Init.LevelPct
	p.TargetTavgF = c.Target.TavgF
	p.TargetPressurePsia = c.Target.PressurePsia
	p.DecayHeatBtuPerSec = c.Plant.DecayHeatBtuPerSec
	p.RHRSetpointF = c.Plant.RHRSetpointF
	p.RHRFlowGpm = c.Plant.RHRFlowGpm
	p.SecondaryNodes = c.Plant.SecondaryNodes
	return p
}

// SchedOptions maps the pacing settings onto scheduler options.
func (c *Config) SchedOptions() sched.Options {
	return sched.Options{
		TimeScale:        c.Run.TimeScale,
		MaxTicksPerFrame: c.Run.MaxTicksPerFrame,
		MaxBudgetSeconds: c.Run.MaxBudgetSeconds,
	}
}
