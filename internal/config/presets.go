package config

// Presets are the named starting lineups for common drills. Each returns a
// fresh Config so callers can mutate without aliasing.
var Presets = map[string]func() *Config{
	// Solid plant at ambient, full heatup ahead.
	"cold_start": func() *Config {
		return DefaultConfig()
	},
	// Already near bubble-formation temperature so the drain sequence starts
	// within a few sim minutes.
	"bubble_drill": func() *Config {
		cfg := DefaultConfig()
		cfg.Init.TavgF = 420
		cfg.Init.PressurePsia = 340
		cfg.Run.HeadlessTicks = 720
		return cfg
	},
	// Cold plant with an abbreviated run, sized for watching the coupling
	// factor ramp as pumps start.
	"pump_ramp": func() *Config {
		cfg := DefaultConfig()
		cfg.Run.HeadlessTicks = 360
		cfg.Run.TimeScale = 30
		return cfg
	},
}

func GetPreset(name string) *Config {
	mk, ok := Presets[name]
	if !ok {
		return nil
	}
	return mk()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
