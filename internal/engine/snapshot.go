package engine

import "github.com/averyjl/pwrsim/internal/plant"

// buildSnapshot assembles the flat tick-end view for external observers.
func (e *Engine) buildSnapshot() plant.Snapshot {
	snap := plant.BuildSnapshot(e.st)
	snap.LedgerMass = e.led.TotalPrimaryLbm
	snap.LedgerDrift = e.led.Drift(e.st.ComponentMass())
	snap.Regime = int(e.regime)
	snap.RegimeLabel = e.regime.String()
	snap.CouplingAlpha = e.alpha
	snap.RCPFlowFrac = e.lastContrib.FlowFrac
	snap.RCPsRunning = e.lastContrib.Commanded
	snap.BubblePhase = e.bubble.Phase().String()
	snap.HeaterAuthority = e.lastCtrl.Authority.String()
	snap.HeaterPowerKW = e.lastCtrl.HeaterKW
	snap.SprayFrac = e.lastCtrl.SprayFrac
	snap.LimiterReason = e.lastCtrl.Limiter.String()
	snap.SecondaryMode = e.sec.Mode().String()
	return snap
}
