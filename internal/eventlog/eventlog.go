// Package eventlog provides the append-only, capacity-bounded event stream
// the engine exposes to logging and alerting collaborators, plus a keyed
// rate limiter for hot-path diagnostics.
package eventlog

import "fmt"

// Severity tags an event for downstream filtering.
type Severity int

const (
	Info Severity = iota
	Warning
	Alarm
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARN"
	case Alarm:
		return "ALARM"
	case Fatal:
		return "FATAL"
	default:
		return "?"
	}
}

// Event is one entry in the stream. Seq increases monotonically even after
// old entries are evicted.
type Event struct {
	Seq      int64
	SimTime  float64
	Severity Severity
	Key      string
	Message  string
}

// Log is a bounded ring of events. Appending past capacity evicts the oldest.
type Log struct {
	events   []Event
	capacity int
	nextSeq  int64
	counts   map[Severity]int
	limiter  map[string]float64
}

func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = 256
	}
	return &Log{
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		counts:   make(map[Severity]int),
		limiter:  make(map[string]float64),
	}
}

// Emit appends an event unconditionally.
func (l *Log) Emit(simTime float64, sev Severity, key, format string, args ...any) {
	e := Event{
		Seq:      l.nextSeq,
		SimTime:  simTime,
		Severity: sev,
		Key:      key,
		Message:  fmt.Sprintf(format, args...),
	}
	l.nextSeq++
	l.counts[sev]++
	if len(l.events) == l.capacity {
		copy(l.events, l.events[1:])
		l.events[len(l.events)-1] = e
		return
	}
	l.events = append(l.events, e)
}

// EmitLimited appends only if at least minInterval seconds of sim time have
// passed since the last emission under the same key. Returns whether the
// event was recorded.
func (l *Log) EmitLimited(simTime, minInterval float64, sev Severity, key, format string, args ...any) bool {
	if next, ok := l.limiter[key]; ok && simTime < next {
		return false
	}
	l.limiter[key] = simTime + minInterval
	l.Emit(simTime, sev, key, format, args...)
	return true
}

// Events returns a copy of the current window, oldest first.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Tail returns up to n of the most recent events, oldest first.
func (l *Log) Tail(n int) []Event {
	if n >= len(l.events) {
		return l.Events()
	}
	out := make([]Event, n)
	copy(out, l.events[len(l.events)-n:])
	return out
}

// Count reports the total number of events ever emitted at the severity,
// including evicted ones.
func (l *Log) Count(sev Severity) int {
	return l.counts[sev]
}
