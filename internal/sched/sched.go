// Package sched runs the engine on a frame-decoupled catch-up loop: elapsed
// wall-clock time buys a budget of simulated time which is drained in whole
// fixed ticks, bounded per frame, with a cooperative stop flag polled before
// every tick.
package sched

import (
	"sync/atomic"
	"time"

	"github.com/averyjl/pwrsim/internal/engine"
)

// Options shape the catch-up behavior.
type Options struct {
	// TimeScale is simulated seconds per wall-clock second.
	TimeScale float64
	// MaxTicksPerFrame bounds how many ticks one Advance call may run.
	MaxTicksPerFrame int
	// MaxBudgetSeconds caps the accumulated sim-time debt after a stall.
	MaxBudgetSeconds float64
}

func DefaultOptions() Options {
	return Options{
		TimeScale:        60,
		MaxTicksPerFrame: 12,
		MaxBudgetSeconds: 300,
	}
}

// Scheduler owns the engine and the sim-time budget. Advance is meant to be
// called from a single frame loop; RequestShutdown may be called from any
// goroutine.
type Scheduler struct {
	eng    *engine.Engine
	opts   Options
	budget float64 // simulated seconds owed
	stop   atomic.Bool
	err    error
}

func New(eng *engine.Engine, opts Options) *Scheduler {
	if opts.TimeScale <= 0 {
		opts.TimeScale = 1
	}
	if opts.MaxTicksPerFrame <= 0 {
		opts.MaxTicksPerFrame = 1
	}
	return &Scheduler{eng: eng, opts: opts}
}

// Advance converts elapsed wall-clock time into simulated time and executes
// whole ticks until the budget is spent or the per-frame ceiling is hit.
// Leftover budget carries to the next frame. No tick is ever partial: a tick
// error faults the scheduler and the remaining budget is dropped.
func (s *Scheduler) Advance(elapsed time.Duration) (ticks int, err error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.stop.Load() {
		return 0, nil
	}

	s.budget += elapsed.Seconds() * s.opts.TimeScale
	if s.budget > s.opts.MaxBudgetSeconds {
		s.budget = s.opts.MaxBudgetSeconds
	}

	tick := s.eng.TickSeconds()
	for s.budget >= tick && ticks < s.opts.MaxTicksPerFrame {
		if s.stop.Load() {
			break
		}
		if err := s.eng.Tick(); err != nil {
			s.err = err
			s.budget = 0
			return ticks, err
		}
		s.budget -= tick
		ticks++
	}
	return ticks, nil
}

// RunTicks executes exactly n ticks, ignoring the wall-clock budget. It is
// the headless path; the stop flag is still honored between ticks.
func (s *Scheduler) RunTicks(n int) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	for i := 0; i < n; i++ {
		if s.stop.Load() {
			return i, nil
		}
		if err := s.eng.Tick(); err != nil {
			s.err = err
			return i, err
		}
	}
	return n, nil
}

// RequestShutdown asks the loop to stop. No tick starts after the request;
// an in-flight tick always completes.
func (s *Scheduler) RequestShutdown() {
	s.stop.Store(true)
}

// Stopping reports whether shutdown has been requested.
func (s *Scheduler) Stopping() bool {
	return s.stop.Load()
}

// Err returns the fatal error that faulted the run, if any.
func (s *Scheduler) Err() error {
	return s.err
}

// Engine exposes the engine for read-only observation (snapshots, events).
func (s *Scheduler) Engine() *engine.Engine {
	return s.eng
}
