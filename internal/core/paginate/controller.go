package paginate

// Controller holds the current page number, clamped to [1, Total].
// An empty controller (Total 0) reports page 0 and ignores moves.
type Controller struct {
	current int
	total   int
}

// NewController starts on the first page.
func NewController(total int) *Controller {
	c := &Controller{}
	c.SetTotal(total)
	return c
}

// Current returns the 1-based current page.
func (c *Controller) Current() int { return c.current }

// Total returns the page count.
func (c *Controller) Total() int { return c.total }

// SetTotal replaces the page count and re-clamps the current page.
func (c *Controller) SetTotal(total int) {
	c.total = max(total, 0)
	if c.total == 0 {
		c.current = 0
		return
	}
	c.current = c.clamp(max(c.current, 1))
}

// Next advances one page. It reports whether the page changed.
func (c *Controller) Next() bool {
	return c.GoTo(c.current + 1)
}

// Previous moves back one page. It reports whether the page changed.
func (c *Controller) Previous() bool {
	return c.GoTo(c.current - 1)
}

// First moves to page 1.
func (c *Controller) First() bool {
	return c.GoTo(1)
}

// Last moves to the final page.
func (c *Controller) Last() bool {
	return c.GoTo(c.total)
}

// GoTo moves to page k, clamped to the valid range. It reports whether the
// page changed.
func (c *Controller) GoTo(k int) bool {
	if c.total == 0 {
		return false
	}
	k = c.clamp(k)
	if k == c.current {
		return false
	}
	c.current = k
	return true
}

func (c *Controller) clamp(k int) int {
	if k < 1 {
		return 1
	}
	if k > c.total {
		return c.total
	}
	return k
}
