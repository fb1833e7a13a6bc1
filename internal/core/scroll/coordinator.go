package scroll

import "time"

// Coordinator owns the programmatic-scroll flag shared by the anchor
// navigator and the pane sync controller. The flag is a deadline: it is set
// by Hold and clears itself once the clock passes it.
//
// Epoch counts anchor jumps so that work scheduled before a jump can tell it
// was pre-empted.
//
// A Coordinator is not safe for concurrent use; it lives on the UI loop.
type Coordinator struct {
	now   func() time.Time
	until time.Time
	epoch uint64
}

// NewCoordinator creates a coordinator reading time from now. A nil now uses
// time.Now.
func NewCoordinator(now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{now: now}
}

// Now returns the coordinator's clock reading.
func (c *Coordinator) Now() time.Time {
	return c.now()
}

// Hold raises the flag for at least d. An existing longer hold is kept.
func (c *Coordinator) Hold(d time.Duration) {
	if until := c.now().Add(d); until.After(c.until) {
		c.until = until
	}
}

// Active reports whether the flag is raised.
func (c *Coordinator) Active() bool {
	return c.now().Before(c.until)
}

// Until returns when the flag clears.
func (c *Coordinator) Until() time.Time {
	return c.until
}

// Write raises the flag for hold and then moves p to top. A zero hold writes
// without touching the flag.
func (c *Coordinator) Write(p Pane, top int, hold time.Duration) {
	if hold > 0 {
		c.Hold(hold)
	}
	p.SetScrollTop(min(max(top, 0), MaxTop(p)))
}

// Bump starts a new jump epoch and returns it.
func (c *Coordinator) Bump() uint64 {
	c.epoch++
	return c.epoch
}

// Epoch returns the current jump epoch.
func (c *Coordinator) Epoch() uint64 {
	return c.epoch
}
