package scenario

import (
	"sync"
	"time"
)

// Engine tracks a scenario's progression through its phases on the
// simulated clock. The clock only moves when Advance is called.
type Engine struct {
	scenario *Scenario
	elapsed  time.Duration
	mu       sync.RWMutex
}

// NewEngine creates a new scenario engine
func NewEngine(scenario *Scenario) *Engine {
	return &Engine{scenario: scenario}
}

// Advance moves the simulated clock forward by dt.
func (e *Engine) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	e.mu.Lock()
	e.elapsed += dt
	e.mu.Unlock()
}

// GetElapsed returns the simulated time since scenario start
func (e *Engine) GetElapsed() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.elapsed
}

// GetCurrentPhase returns the current phase based on elapsed time
func (e *Engine) GetCurrentPhase() *Phase {
	return e.scenario.getCurrentPhase(e.GetElapsed())
}

// GetParams returns the effective parameters at the current time
func (e *Engine) GetParams() Params {
	return e.scenario.GetEffectiveParams(e.GetElapsed())
}

// IsComplete returns true if the scenario has finished
func (e *Engine) IsComplete() bool {
	duration, unlimited := e.scenario.TotalDuration()
	if unlimited {
		return false
	}
	return e.GetElapsed() >= duration
}

// GetScenario returns the underlying scenario
func (e *Engine) GetScenario() *Scenario {
	return e.scenario
}

// Reset resets the scenario to the beginning
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.elapsed = 0
}
