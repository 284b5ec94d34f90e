// Package viz is the live operator console: a terminal view of the heatup
// with pump, heater-lockout, and audit controls bound to keys.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/averyjl/pwrsim/internal/eventlog"
	"github.com/averyjl/pwrsim/internal/sched"
)

const (
	frameInterval   = time.Second / 30
	historyCapacity = 600
	eventTailLen    = 6
)

type TickMsg time.Time

// Model drives the scheduler from terminal frames and renders tick-end
// snapshots. The scheduler owns the pacing; the model only reports elapsed
// wall time.
type Model struct {
	s         *sched.Scheduler
	lastFrame time.Time

	tavgHist  []float64
	pressHist []float64

	heaterHold bool
	heaterOff  bool
	audit      bool
	showHelp   bool
	width      int
	err        error
}

func NewModel(s *sched.Scheduler) Model {
	return Model{
		s:         s,
		lastFrame: time.Now(),
		tavgHist:  make([]float64, 0, historyCapacity),
		pressHist: make([]float64, 0, historyCapacity),
		width:     100,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.s.RequestShutdown()
			return m, tea.Quit
		case "1", "2", "3", "4":
			pump := int(msg.String()[0] - '1')
			m.s.Engine().StartRCP(pump)
		case "h":
			m.heaterHold = !m.heaterHold
			m.s.Engine().SetHeaterLockouts(m.heaterHold, m.heaterOff, false)
		case "o":
			m.heaterOff = !m.heaterOff
			m.s.Engine().SetHeaterLockouts(m.heaterHold, m.heaterOff, false)
		case "a":
			if m.audit {
				m.s.Engine().EndAudit()
			} else {
				m.s.Engine().BeginAudit()
			}
			m.audit = !m.audit
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case TickMsg:
		if m.err == nil && !m.s.Stopping() {
			elapsed := time.Since(m.lastFrame)
			m.lastFrame = time.Now()
			if _, err := m.s.Advance(elapsed); err != nil {
				m.err = err
			}
			snap := m.s.Engine().Snapshot()
			m.tavgHist = pushHistory(m.tavgHist, snap.TavgF)
			m.pressHist = pushHistory(m.pressHist, snap.PressurePsia)
		}
		return m, tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func pushHistory(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

func (m Model) View() string {
	snap := m.s.Engine().Snapshot()

	var charts strings.Builder
	if len(m.tavgHist) > 1 {
		charts.WriteString(graphStyle.Render(asciigraph.Plot(m.tavgHist,
			asciigraph.Height(6), asciigraph.Width(44), asciigraph.Caption("Tavg °F"))) + "\n")
	}
	if len(m.pressHist) > 1 {
		charts.WriteString(graphStyle.Render(asciigraph.Plot(m.pressHist,
			asciigraph.Height(6), asciigraph.Width(44), asciigraph.Caption("Pressure psia"))) + "\n")
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render("PWR HEATUP CONSOLE") + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	row := func(label, val string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(val) + "\n")
	}
	row("Sim time", fmtSimTime(snap.SimTime))
	row("Mode", snap.Mode)
	row("Regime", fmt.Sprintf("%s (α %.2f)", snap.RegimeLabel, snap.CouplingAlpha))
	row("RCPs", fmt.Sprintf("%d running, flow %.0f%%", snap.RCPsRunning, snap.RCPFlowFrac*100))
	row("Tavg", fmt.Sprintf("%.1f °F  (hot %.1f / cold %.1f)", snap.TavgF, snap.ThotF, snap.TcoldF))
	row("Pressure", fmt.Sprintf("%.0f psia  (Tsat %.1f °F)", snap.PressurePsia, snap.TsatF))
	row("Subcooling", fmt.Sprintf("%.1f °F", snap.SubcoolF))
	row("Przr level", fmt.Sprintf("%.1f %%  (%s)", snap.PrzrLevelPct, snap.BubblePhase))
	row("Heater", fmt.Sprintf("%.0f kW  %s / %s", snap.HeaterPowerKW, snap.HeaterAuthority, snap.LimiterReason))
	row("Secondary", fmt.Sprintf("%s, %.0f psia", snap.SecondaryMode, snap.SecondaryPsia))
	row("Heatup rate", fmt.Sprintf("%.1f °F/hr", snap.HeatupRateFPerHr))
	row("Ledger drift", fmt.Sprintf("%+.3f lbm", snap.LedgerDrift))

	s.WriteString("\n" + m.eventTail())
	s.WriteString(helpStyle.Render("\n1-4:Start RCP  H:Hold  O:Heaters off  A:Audit  ?:Help  Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, charts.String(), panelStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return alarmStyle.Render("FAULTED: " + m.err.Error())
	case m.audit:
		return warnStyle.Render("RUNNING (audit active)")
	default:
		return goodStyle.Render("RUNNING")
	}
}

func (m Model) eventTail() string {
	events := m.s.Engine().EventTail(eventTailLen)
	if len(events) == 0 {
		return ""
	}
	var s strings.Builder
	s.WriteString("EVENTS\n")
	for _, ev := range events {
		line := fmt.Sprintf("%s %-5s %s", fmtSimTime(ev.SimTime), ev.Severity, ev.Message)
		switch ev.Severity {
		case eventlog.Alarm, eventlog.Fatal:
			s.WriteString(alarmStyle.Render(line) + "\n")
		case eventlog.Warning:
			s.WriteString(warnStyle.Render(line) + "\n")
		default:
			s.WriteString(eventStyle.Render(line) + "\n")
		}
	}
	return s.String()
}

func fmtSimTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

const helpText = `
  1-4     Start reactor coolant pump 1-4
  H       Toggle the heater hold lockout
  O       Toggle the heaters-commanded-off lockout
  A       Toggle the conservation audit
  ?       Toggle this help
  Q       Quit (stops cleanly before the next tick)
`
