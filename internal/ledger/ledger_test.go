package ledger_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/averyjl/pwrsim/internal/ledger"
	"github.com/averyjl/pwrsim/internal/plant"
)

var _ = Describe("Ledger", func() {
	var (
		l  *ledger.Ledger
		st *plant.State
	)

	BeforeEach(func() {
		st = &plant.State{RCSWaterMass: 550000, PrzrWaterMass: 70000}
		l = ledger.New(st.ComponentMass())
		l.BeginTick(1)
	})

	Describe("event application", func() {
		It("moves identical mass into components and ledger", func() {
			before := st.ComponentMass()
			ledgerBefore := l.TotalPrimaryLbm

			ev := l.ComputeEvent(ledger.Flows{MakeupGPM: 75, LetdownGPM: 45}, 62.0, 10)
			Expect(ev.RCSDeltaLbm).To(BeNumerically(">", 0))
			Expect(l.Apply(st)).To(Succeed())

			componentDelta := st.ComponentMass() - before
			ledgerDelta := l.TotalPrimaryLbm - ledgerBefore
			Expect(componentDelta).To(BeNumerically("~", ledgerDelta, ledger.BalanceEpsilonLbm))
			Expect(l.CheckBalance(componentDelta, ledgerDelta)).To(Succeed())
		})

		It("rejects a second application of the same tick's event", func() {
			l.ComputeEvent(ledger.Flows{MakeupGPM: 75}, 62.0, 10)
			Expect(l.Apply(st)).To(Succeed())
			Expect(l.Apply(st)).To(MatchError(plant.ErrEventReapplied))
		})

		It("produces zero transfer for a zero-duration tick", func() {
			massBefore := st.ComponentMass()
			l.ComputeEvent(ledger.Flows{MakeupGPM: 120, LetdownGPM: 45}, 62.0, 0)
			Expect(l.Apply(st)).To(Succeed())
			Expect(st.ComponentMass()).To(Equal(massBefore))
			Expect(l.TotalPrimaryLbm).To(Equal(l.InitialPrimaryLbm))
		})

		It("accumulates in and out counters separately", func() {
			l.ComputeEvent(ledger.Flows{MakeupGPM: 100}, 62.0, 10)
			Expect(l.Apply(st)).To(Succeed())
			l.BeginTick(2)
			l.ComputeEvent(ledger.Flows{LetdownGPM: 40}, 62.0, 10)
			Expect(l.Apply(st)).To(Succeed())

			Expect(l.CumulativeInLbm).To(BeNumerically(">", 0))
			Expect(l.CumulativeOutLbm).To(BeNumerically(">", 0))
			Expect(l.TotalPrimaryLbm).To(BeNumerically("~",
				l.InitialPrimaryLbm+l.CumulativeInLbm-l.CumulativeOutLbm, 1e-9))
		})
	})

	Describe("pairing check", func() {
		It("passes when auxiliary buckets absorb the primary delta", func() {
			ev := l.ComputeEvent(ledger.Flows{MakeupGPM: 75, LetdownGPM: 45}, 62.0, 10)
			Expect(l.Apply(st)).To(Succeed())
			Expect(l.AttachAuxiliary(st, -ev.RCSDeltaLbm, 0)).To(BeTrue())
			Expect(st.MakeupTankLbm).To(BeNumerically("<", 0))
		})

		It("flags an unmatched non-trivial primary delta", func() {
			l.ComputeEvent(ledger.Flows{MakeupGPM: 100}, 62.0, 10)
			Expect(l.Apply(st)).To(Succeed())
			Expect(l.AttachAuxiliary(st, 0, 0)).To(BeFalse())
			Expect(l.Event().PairingOK).To(BeFalse())
		})

		It("suppresses the check when flows were reconfigured this tick", func() {
			l.MarkFlowsReconfigured()
			l.ComputeEvent(ledger.Flows{MakeupGPM: 100}, 62.0, 10)
			Expect(l.Apply(st)).To(Succeed())
			Expect(l.AttachAuxiliary(st, 0, 0)).To(BeTrue())
		})
	})

	Describe("balance assertion", func() {
		It("is fatal beyond epsilon", func() {
			err := l.CheckBalance(10.0, 10.0+2*ledger.BalanceEpsilonLbm)
			Expect(err).To(MatchError(plant.ErrLedgerMismatch))
		})

		It("is fatal on a non-finite total", func() {
			l.ComputeEvent(ledger.Flows{MakeupGPM: math.NaN()}, 62.0, 10)
			Expect(l.Apply(st)).To(Succeed())
			Expect(l.CheckBalance(0, 0)).To(MatchError(plant.ErrNonFiniteState))
		})
	})

	Describe("re-baselining", func() {
		It("re-seeds once and never again", func() {
			Expect(l.Rebaseline(620000)).To(BeTrue())
			Expect(l.TotalPrimaryLbm).To(Equal(620000.0))
			Expect(l.Rebaseline(999999)).To(BeFalse())
			Expect(l.TotalPrimaryLbm).To(Equal(620000.0))
		})

		It("tracks drift against component mass afterwards", func() {
			l.Rebaseline(st.ComponentMass())
			st.PrzrWaterMass += 25
			Expect(l.Drift(st.ComponentMass())).To(BeNumerically("~", 25, 1e-9))
		})
	})
})
