package control

import (
	"sync"

	"github.com/cjeanneret/SkidGo/internal/debug"
)

// Controller owns the live State and the Applier. Each command stores all
// of its fields and then applies once, inside one critical section, so no
// output is ever computed from a half-updated state.
type Controller struct {
	mu      sync.Mutex
	state   *State
	applier *Applier
}

func NewController(state *State, applier *Applier) *Controller {
	return &Controller{
		state:   state,
		applier: applier,
	}
}

// Init applies the current state once. Call it at startup, before any
// command can arrive, to put the hardware in a known position.
func (c *Controller) Init() (Outputs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	debug.Verbose("Applying initial state: %s", c.state.Current())
	return c.apply()
}

// Command stores the fields present in u and applies the resulting state.
func (c *Controller) Command(u Update) (Snapshot, Outputs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.ApplyUpdate(u)
	out, err := c.apply()
	return c.state.Current(), out, err
}

// Reset restores the neutral state and applies it.
func (c *Controller) Reset() (Outputs, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Restore(Neutral())
	debug.Live("Reset to neutral")
	return c.apply()
}

// Snapshot returns the current setpoints.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Current()
}

// Outputs returns what the current state maps to, without writing it.
func (c *Controller) Outputs() Outputs {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applier.Compute(c.state.Current())
}

// apply must be called with mu held.
func (c *Controller) apply() (Outputs, error) {
	snap := c.state.Current()
	out, err := c.applier.Apply(snap)
	if err != nil {
		debug.Error(err)
		return out, err
	}
	debug.Outputs(out.DutyLeft, out.DutyRight, out.ElevatorDeg)
	return out, nil
}
