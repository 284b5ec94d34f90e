package plant

// Snapshot is the flat, immutable-once-built view of tick-end state handed to
// rendering, storage, and telemetry. Every field is a copy; mutating a
// snapshot never touches live state.
type Snapshot struct {
	Tick    int64   `json:"tick"`
	SimTime float64 `json:"sim_time_s"`

	TavgF        float64 `json:"tavg_f"`
	ThotF        float64 `json:"thot_f"`
	TcoldF       float64 `json:"tcold_f"`
	PrzrTempF    float64 `json:"przr_temp_f"`
	PressurePsia float64 `json:"pressure_psia"`
	TsatF        float64 `json:"tsat_f"`
	SubcoolF     float64 `json:"subcool_f"`

	RCSWaterMass  float64 `json:"rcs_water_lbm"`
	PrzrWaterMass float64 `json:"przr_water_lbm"`
	PrzrSteamMass float64 `json:"przr_steam_lbm"`
	PrzrLevelPct  float64 `json:"przr_level_pct"`
	LedgerMass    float64 `json:"ledger_mass_lbm"`
	LedgerDrift   float64 `json:"ledger_drift_lbm"`

	SecondaryPsia float64 `json:"secondary_psia"`

	HeatupRateFPerHr   float64 `json:"heatup_rate_f_hr"`
	PressRatePsiPerMin float64 `json:"press_rate_psi_min"`

	Mode          string  `json:"mode"`
	Regime        int     `json:"regime"`
	RegimeLabel   string  `json:"regime_label"`
	CouplingAlpha float64 `json:"coupling_alpha"`
	RCPFlowFrac   float64 `json:"rcp_flow_frac"`
	RCPsRunning   int     `json:"rcps_running"`

	BubblePhase     string  `json:"bubble_phase"`
	BubbleFormed    bool    `json:"bubble_formed"`
	HeaterAuthority string  `json:"heater_authority"`
	HeaterPowerKW   float64 `json:"heater_power_kw"`
	SprayFrac       float64 `json:"spray_frac"`
	LimiterReason   string  `json:"limiter_reason"`
	SecondaryMode   string  `json:"secondary_mode"`
}

// BuildSnapshot copies the state scalars into a snapshot; the dispatcher
// fills the regime/controller/state-machine labels afterwards.
func BuildSnapshot(s *State) Snapshot {
	return Snapshot{
		Tick:               s.Tick,
		SimTime:            s.SimTime,
		TavgF:              s.TavgF,
		ThotF:              s.ThotF,
		TcoldF:             s.TcoldF,
		PrzrTempF:          s.PrzrTempF,
		PressurePsia:       s.PressurePsia,
		TsatF:              s.TsatF,
		SubcoolF:           s.SubcoolF,
		RCSWaterMass:       s.RCSWaterMass,
		PrzrWaterMass:      s.PrzrWaterMass,
		PrzrSteamMass:      s.PrzrSteamMass,
		PrzrLevelPct:       s.PrzrLevelPct,
		SecondaryPsia:      s.SecondaryPsia,
		HeatupRateFPerHr:   s.HeatupRateFPerHr,
		PressRatePsiPerMin: s.PressRatePsiPerMin,
		Mode:               s.OperatingMode().String(),
		BubbleFormed:       s.BubbleFormed,
	}
}
