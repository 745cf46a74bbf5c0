// Package engine runs the colony: a fixed-step logic clock, the per-tick
// orchestration, and the command and query surface used by presentation.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultReportEvery is the colony report cadence in ticks.
const DefaultReportEvery = 60

// pausePoll is how often a paused engine checks whether it may resume.
const pausePoll = 100 * time.Millisecond

// ErrEngineRunning is returned by Run when the loop is already active.
var ErrEngineRunning = errors.New("engine already running")

// Engine drives the simulation forward at a fixed rate. Rendering and API
// traffic never touch the clock; they read colony state between ticks.
type Engine struct {
	Interval    time.Duration // Base tick interval (default 1 second)
	ReportEvery uint64        // Ticks between OnReport calls, 0 disables

	// Callbacks populated during setup.
	OnTick   func() uint64     // Advances the simulation, returns the new tick
	OnReport func(tick uint64) // Every ReportEvery ticks
	Paused   func() bool       // Skips ticks while true

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = halted
	stop    chan struct{}
	running atomic.Bool
	ticks   atomic.Uint64 // Ticks driven by this engine
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval:    time.Second,
		ReportEvery: DefaultReportEvery,
		speed:       1.0,
		stop:        make(chan struct{}),
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. Zero halts the clock without
// touching the colony pause flag.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Ticks returns how many ticks this engine has driven.
func (e *Engine) Ticks() uint64 {
	return e.ticks.Load()
}

// Run starts the simulation loop. It blocks until ctx is cancelled or Stop
// is called, and returns ctx.Err() in the first case.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrEngineRunning
	}
	defer e.running.Store(false)

	slog.Info("simulation engine started", "interval", e.Interval, "speed", e.Speed())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "ticks", e.Ticks(), "reason", ctx.Err())
			return ctx.Err()
		case <-e.stop:
			slog.Info("simulation engine stopped", "ticks", e.Ticks())
			return nil
		case <-timer.C:
		}

		wait := e.period()
		if wait <= 0 || (e.Paused != nil && e.Paused()) {
			timer.Reset(pausePoll)
			continue
		}

		start := time.Now()
		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		timer.Reset(max(0, wait-elapsed))
	}
}

// Stop halts the simulation loop. It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// period returns the wall-clock time per tick, or 0 when halted.
func (e *Engine) period() time.Duration {
	speed := e.Speed()
	if speed <= 0 || e.Interval <= 0 {
		return 0
	}
	return time.Duration(float64(e.Interval) / speed)
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	if e.OnTick == nil {
		return
	}
	tick := e.OnTick()
	e.ticks.Add(1)

	if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(tick)
	}
}
