package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/onsi/gomega"

	"github.com/averyjl/pwrsim/internal/plant"
)

func TestSolidPlantHeatupBoundedByRelief(t *testing.T) {
	g := gomega.NewWithT(t)
	e := New(DefaultParams())

	prev := e.Snapshot()
	for i := 0; i < 90; i++ {
		g.Expect(e.Tick()).To(gomega.Succeed())
		snap := e.Snapshot()

		g.Expect(snap.TavgF).To(gomega.BeNumerically(">=", prev.TavgF),
			"decay heat with RHR below setpoint must heat the coolant")
		if prev.PressurePsia <= solidOpsCeilingPsia+10 {
			g.Expect(snap.PressurePsia).To(gomega.BeNumerically(">=", prev.PressurePsia),
				"thermal expansion must raise pressure while letdown relief is idle")
		}
		g.Expect(snap.PressurePsia).To(gomega.BeNumerically("<", solidOpsCeilingPsia+75),
			"excess letdown must bound water-solid pressure")
		g.Expect(math.Abs(snap.LedgerDrift)).To(gomega.BeNumerically("<", 0.01))
		prev = snap
	}

	g.Expect(e.State().OperatingMode()).To(gomega.Equal(plant.ModeColdShutdown))
	g.Expect(prev.HeaterAuthority).To(gomega.Equal("auto"))
}

func TestBubbleFormationCompletesFromSaturationLineup(t *testing.T) {
	g := gomega.NewWithT(t)
	p := DefaultParams()
	p.InitTavgF = 420
	p.InitPressurePsia = 340
	e := New(p)

	seen := map[string]bool{}
	var held []float64
	for i := 0; i < 900 && !e.State().BubbleFormed; i++ {
		g.Expect(e.Tick()).To(gomega.Succeed())
		snap := e.Snapshot()
		seen[snap.BubblePhase] = true
		switch snap.BubblePhase {
		case "verification", "drain", "stabilize":
			held = append(held, snap.PressurePsia)
		}
	}

	g.Expect(e.State().BubbleFormed).To(gomega.BeTrue(),
		"the engine lineup alone must carry the evolution to completion")
	for _, phase := range []string{"detection", "verification", "drain", "stabilize", "pressurize", "complete"} {
		g.Expect(seen).To(gomega.HaveKey(phase), "phase %s never observed", phase)
	}

	g.Expect(held).ToNot(gomega.BeEmpty())
	for _, psia := range held {
		g.Expect(psia).To(gomega.BeNumerically("~", held[0], 0.5),
			"pressure stays pinned while the machine owns it")
	}

	final := e.Snapshot()
	g.Expect(final.PrzrLevelPct).To(gomega.BeNumerically("<", 50),
		"the drain must leave a steam space")
	g.Expect(final.PressurePsia).To(gomega.BeNumerically(">=", held[0]+50),
		"completion requires the pressurization gain over the held value")
}

func TestPreRunSnapshotReportsIdleAuthority(t *testing.T) {
	g := gomega.NewWithT(t)
	e := New(DefaultParams())

	snap := e.Snapshot()
	g.Expect(snap.HeaterAuthority).To(gomega.Equal("auto"),
		"no lockout is latched before the first tick")
	g.Expect(snap.HeaterPowerKW).To(gomega.BeZero())
}

func TestPumpRampReachesFullCoupling(t *testing.T) {
	g := gomega.NewWithT(t)
	e := New(DefaultParams())

	for pump := 0; pump < 4; pump++ {
		g.Expect(e.StartRCP(pump)).To(gomega.BeTrue())
	}
	g.Expect(e.StartRCP(0)).To(gomega.BeFalse(), "start times latch on first command")

	for i := 0; i < 60; i++ {
		g.Expect(e.Tick()).To(gomega.Succeed())
		snap := e.Snapshot()

		g.Expect(snap.CouplingAlpha).To(gomega.BeNumerically(">=", 0))
		g.Expect(snap.CouplingAlpha).To(gomega.BeNumerically("<=", 1))
		g.Expect(snap.TcoldF).To(gomega.BeNumerically("<=", snap.TavgF+1e-9))
		g.Expect(snap.TavgF).To(gomega.BeNumerically("<=", snap.ThotF+1e-9))
	}

	snap := e.Snapshot()
	g.Expect(snap.CouplingAlpha).To(gomega.Equal(1.0),
		"alpha snaps to one when every commanded pump reports rated flow")
	g.Expect(snap.RegimeLabel).To(gomega.Equal("coupled"))
	g.Expect(snap.RCPFlowFrac).To(gomega.Equal(1.0))
	g.Expect(snap.RCPsRunning).To(gomega.Equal(4))
}

func TestNonFiniteStateIsFatal(t *testing.T) {
	g := gomega.NewWithT(t)
	e := New(DefaultParams())

	g.Expect(e.ForcePressure(math.NaN())).To(gomega.Succeed(),
		"forced writes are allowed outside an audit")

	err := e.Tick()
	g.Expect(err).To(gomega.HaveOccurred())
	g.Expect(errors.Is(err, plant.ErrNonFiniteState)).To(gomega.BeTrue())

	var te *plant.TickError
	g.Expect(errors.As(err, &te)).To(gomega.BeTrue())
	g.Expect(te.Tick).To(gomega.Equal(int64(1)))

	g.Expect(e.Faulted()).To(gomega.BeTrue())
	g.Expect(e.Tick()).To(gomega.MatchError(plant.ErrFaulted))
}

func TestAuditBlocksForcedPressure(t *testing.T) {
	g := gomega.NewWithT(t)
	e := New(DefaultParams())
	g.Expect(e.Tick()).To(gomega.Succeed())

	e.BeginAudit()
	err := e.ForcePressure(2000)
	g.Expect(errors.Is(err, plant.ErrBlockedOverride)).To(gomega.BeTrue())
	g.Expect(e.BlockedOverrides()).To(gomega.Equal(1))
	g.Expect(e.State().PressurePsia).ToNot(gomega.Equal(2000.0),
		"a blocked override must not land")

	g.Expect(e.Tick()).To(gomega.MatchError(plant.ErrFaulted))
	e.EndAudit()
	g.Expect(e.Tick()).To(gomega.MatchError(plant.ErrFaulted),
		"ending the audit does not clear the fault")
}

func TestHeaterHoldLockout(t *testing.T) {
	g := gomega.NewWithT(t)
	e := New(DefaultParams())

	e.SetHeaterLockouts(true, false, false)
	g.Expect(e.Tick()).To(gomega.Succeed())

	snap := e.Snapshot()
	g.Expect(snap.HeaterAuthority).To(gomega.Equal("hold_locked"))
	g.Expect(snap.HeaterPowerKW).To(gomega.BeZero())
}
