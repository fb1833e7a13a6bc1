// Package scrolltest provides in-memory panes and a manual clock for tests.
package scrolltest

import "time"

// StaticPane is an in-memory Pane. Every SetScrollTop is recorded.
type StaticPane struct {
	Top    int
	Height int
	Client int
	Writes []int
}

func (p *StaticPane) ScrollTop() int    { return p.Top }
func (p *StaticPane) ScrollHeight() int { return p.Height }
func (p *StaticPane) ClientHeight() int { return p.Client }

func (p *StaticPane) SetScrollTop(top int) {
	p.Top = top
	p.Writes = append(p.Writes, top)
}

// ManualClock is a clock that only moves when told to.
type ManualClock struct {
	T time.Time
}

// Now returns the current reading.
func (c *ManualClock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
