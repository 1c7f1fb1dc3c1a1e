package solver

import (
	"fmt"
	"math"

	"github.com/nvandessel/cable/internal/constants"
)

// Context is a simulation clock shared by every model built on it. Running
// any one of those models reinitializes and advances all of them. Models on
// different contexts never interfere.
type Context struct {
	engine Engine
	time   *Trace
	models int
	runs   int
	tstop  float64
}

// NewContext creates a context driving engine.
func NewContext(engine Engine) *Context {
	return &Context{engine: engine}
}

// Engine returns the engine behind the context.
func (c *Context) Engine() Engine {
	return c.engine
}

// Attach registers a model with the context. The first attached model binds
// the canonical time trace; later models reuse it.
func (c *Context) Attach() {
	if c.time == nil {
		c.time = c.engine.Time()
	}
	c.models++
}

// Detach unregisters a model.
func (c *Context) Detach() {
	if c.models > 0 {
		c.models--
	}
}

// Models returns the number of attached models.
func (c *Context) Models() int {
	return c.models
}

// Run reinitializes every state variable and recorder on the engine to vInit
// and advances the clock to duration. The effect is global to the context.
// Durations needing more than constants.MaxSteps steps are refused.
func (c *Context) Run(duration, vInit float64) error {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return fmt.Errorf("%w: duration must be finite and >= 0, got %v", ErrInvalidParameter, duration)
	}
	if math.IsNaN(vInit) || math.IsInf(vInit, 0) {
		return fmt.Errorf("%w: initial potential must be finite, got %v", ErrInvalidParameter, vInit)
	}
	if s, ok := c.engine.(interface{ Dt() float64 }); ok {
		if steps := duration / s.Dt(); steps > constants.MaxSteps {
			return fmt.Errorf("%w: duration %v ms needs %.0f steps of %v ms, limit is %d",
				ErrInvalidParameter, duration, steps, s.Dt(), constants.MaxSteps)
		}
	}
	if c.time == nil {
		c.time = c.engine.Time()
	}
	c.engine.Init(vInit)
	c.engine.Advance(duration)
	c.runs++
	c.tstop = duration
	return nil
}

// Runs returns how many times Run completed.
func (c *Context) Runs() int {
	return c.runs
}

// TStop returns the duration of the last run.
func (c *Context) TStop() float64 {
	return c.tstop
}

// Time returns the shared time trace, or nil before any model attached.
func (c *Context) Time() *Trace {
	return c.time
}
