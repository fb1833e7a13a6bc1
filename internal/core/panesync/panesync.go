// Package panesync keeps the book pane and the notes pane at the same
// proportional scroll position.
//
// Scroll events are debounced by tag: Scrolled hands out a tag, the caller
// schedules Fire(tag) after Debounce, and only the latest tag does any work.
// Events that arrive while the shared programmatic-scroll flag is raised are
// writes made by the core itself and are ignored, which is what stops the
// two panes from driving each other forever.
package panesync

import (
	"time"

	"github.com/colonyops/marginalia/internal/core/scroll"
)

// Debounce is the quiet period before a scroll is mirrored.
const Debounce = 50 * time.Millisecond

// Side names a pane.
type Side int

const (
	Book Side = iota
	Notes
)

func (s Side) other() Side {
	if s == Book {
		return Notes
	}
	return Book
}

func (s Side) String() string {
	if s == Book {
		return "book"
	}
	return "notes"
}

// Options tune a Controller.
type Options struct {
	// MinDelta is the largest difference in rows that is not worth a write.
	MinDelta int
}

// Controller mirrors user scrolling between two panes. It is not safe for
// concurrent use.
type Controller struct {
	coord    *scroll.Coordinator
	panes    [2]scroll.Pane
	minDelta int

	seq     uint64
	pending bool
	side    Side
	epoch   uint64
}

// New creates a Controller over the two panes.
func New(coord *scroll.Coordinator, book, notes scroll.Pane, opts Options) *Controller {
	return &Controller{
		coord:    coord,
		panes:    [2]scroll.Pane{book, notes},
		minDelta: max(opts.MinDelta, 0),
	}
}

// Scrolled records a scroll event on side. It returns the tag to pass to
// Fire once Debounce has elapsed, or false when the event is ignored.
func (c *Controller) Scrolled(side Side) (uint64, bool) {
	if c.coord.Active() {
		return 0, false
	}

	c.seq++
	c.pending = true
	c.side = side
	c.epoch = c.coord.Epoch()
	return c.seq, true
}

// Pending reports whether a sync is waiting to fire.
func (c *Controller) Pending() bool {
	return c.pending
}

// Fire mirrors the latest scroll onto the other pane. Stale tags, syncs
// overtaken by an anchor jump and writes smaller than MinDelta do nothing.
// It reports whether a write happened.
func (c *Controller) Fire(tag uint64) bool {
	if !c.pending || tag != c.seq {
		return false
	}
	c.pending = false

	if c.coord.Epoch() != c.epoch {
		return false
	}

	src, dst := c.panes[c.side], c.panes[c.side.other()]
	if src == nil || dst == nil || !scroll.Scrollable(src) {
		return false
	}

	f := scroll.Fraction(src)

	var top int
	switch {
	case scroll.Scrollable(dst):
		top = scroll.TopFor(dst, f)
	case f < 0.5:
		top = 0
	default:
		top = scroll.MaxTop(dst)
	}

	if diff := top - dst.ScrollTop(); diff <= c.minDelta && diff >= -c.minDelta {
		return false
	}

	// a write layered under a jump leaves the jump's flag alone
	hold := scroll.SyncHold
	if c.coord.Active() {
		hold = 0
	}
	c.coord.Write(dst, top, hold)
	return true
}
