// Package navigator moves the book pane to a stored anchor.
//
// A jump resolves the page that holds the anchor, switches to it if needed,
// waits for the page to be materialized and then scrolls the anchor into
// view, briefly flashing the characters at the target.
package navigator

import (
	"time"

	"golang.org/x/net/html"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/dom"
	"github.com/colonyops/marginalia/internal/core/offsetmap"
	"github.com/colonyops/marginalia/internal/core/paginate"
	"github.com/colonyops/marginalia/internal/core/scroll"
)

const (
	// FlashLen is the number of rendered characters highlighted at a target.
	FlashLen = 5
	// FlashDuration is how long the highlight takes to fade.
	FlashDuration = 1500 * time.Millisecond
	// FlashSteps is the number of fade levels.
	FlashSteps = 5
	// DefaultMargin is the number of rows kept above a target.
	DefaultMargin = 2
)

// State is the phase of the current jump.
type State int

const (
	Idle State = iota
	ResolvingPage
	AwaitingPageMaterialized
	Targeting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ResolvingPage:
		return "resolving-page"
	case AwaitingPageMaterialized:
		return "awaiting-page"
	case Targeting:
		return "targeting"
	default:
		return "unknown"
	}
}

// Request describes a jump target.
type Request struct {
	// Offset is a global raw offset. Ignored when Page is set.
	Offset int
	// Page, when positive, selects the page directly.
	Page int
	// Fraction, when set, places the pane at this share of its scroll range
	// instead of targeting a character.
	Fraction *float64
}

// ToOffset targets a global raw offset.
func ToOffset(g int) Request {
	return Request{Offset: g}
}

// ToBookmark targets a page and scroll fraction.
func ToBookmark(page int, fraction float64) Request {
	return Request{Page: page, Fraction: &fraction}
}

// View is a materialized page.
type View interface {
	Number() int
	Range() paginate.Page
	Root() *html.Node
	Segments() []offsetmap.Segment
	Pane() scroll.Pane
	// Locate returns the row of a text position, falling back to the next
	// laid out text when the node itself is not displayed.
	Locate(n *html.Node, offset int) (row int, ok bool)
	// Invalidate discards layout after the tree was changed.
	Invalidate()
}

// Host owns the pages and the current page number.
type Host interface {
	Pages() []paginate.Page
	TextLen() int
	PageSize() int
	CurrentPage() int
	// SetPage changes the current page. It may materialize the page and call
	// PageMaterialized before returning.
	SetPage(k int)
	// View returns the materialized current page, or nil.
	View() View
}

// Options tune a Navigator.
type Options struct {
	// Margin is the number of rows kept above a target. Zero selects
	// DefaultMargin.
	Margin int
}

// Navigator drives anchor jumps. It is not safe for concurrent use.
type Navigator struct {
	host   Host
	coord  *scroll.Coordinator
	margin int

	state     State
	req       Request
	page      int
	estimated bool

	flash      *dom.Highlight
	flashView  View
	flashStart time.Time
}

// New creates a Navigator.
func New(host Host, coord *scroll.Coordinator, opts Options) *Navigator {
	if opts.Margin <= 0 {
		opts.Margin = DefaultMargin
	}
	return &Navigator{host: host, coord: coord, margin: opts.Margin}
}

// State returns the current phase.
func (n *Navigator) State() State { return n.state }

// Pending reports whether a jump is in flight.
func (n *Navigator) Pending() bool { return n.state != Idle }

// Navigate starts a jump, cancelling any jump or highlight in progress.
// Offsets outside the document and pages past the end return
// book.ErrAnchorUnresolvable.
func (n *Navigator) Navigate(req Request) error {
	n.Cancel()
	n.coord.Bump()

	n.req = req
	n.state = ResolvingPage

	pages := n.host.Pages()
	if len(pages) == 0 {
		n.page = paginate.Estimate(req.Offset, n.host.PageSize())
		if req.Page > 0 {
			n.page = req.Page
		}
		n.estimated = true
		n.state = AwaitingPageMaterialized
		n.host.SetPage(n.page)
		return nil
	}

	k, err := n.resolve(pages)
	if err != nil {
		n.state = Idle
		return err
	}
	n.moveTo(k)
	return nil
}

// PagesReady re-resolves a jump that was requested before pages existed.
func (n *Navigator) PagesReady() error {
	if n.state != AwaitingPageMaterialized || !n.estimated {
		return nil
	}
	n.estimated = false

	k, err := n.resolve(n.host.Pages())
	if err != nil {
		n.state = Idle
		return err
	}
	n.moveTo(k)
	return nil
}

// PageMaterialized reports that v is now displayed. A jump waiting for that
// page proceeds to targeting.
func (n *Navigator) PageMaterialized(v View) {
	if n.state != AwaitingPageMaterialized || n.estimated || v == nil || v.Number() != n.page {
		return
	}
	n.state = Targeting
	n.target(v)
}

// Cancel abandons the jump in flight and removes any highlight.
func (n *Navigator) Cancel() {
	n.clearFlash()
	n.state = Idle
	n.estimated = false
}

func (n *Navigator) resolve(pages []paginate.Page) (int, error) {
	if n.req.Page > 0 {
		if n.req.Page > len(pages) {
			return 0, book.ErrAnchorUnresolvable
		}
		return n.req.Page, nil
	}

	if n.req.Offset < 0 || n.req.Offset > n.host.TextLen() {
		return 0, book.ErrAnchorUnresolvable
	}

	k, ok := paginate.Locate(pages, n.req.Offset)
	if !ok {
		return 0, book.ErrAnchorUnresolvable
	}
	return k, nil
}

func (n *Navigator) moveTo(k int) {
	n.page = k
	n.state = AwaitingPageMaterialized

	if k != n.host.CurrentPage() {
		n.host.SetPage(k)
		return
	}

	if v := n.host.View(); v != nil && v.Number() == k {
		n.PageMaterialized(v)
	}
}

// target scrolls v so the requested position is visible. Any failure to find
// the position falls back to the top of the page.
func (n *Navigator) target(v View) {
	defer func() { n.state = Idle }()

	pane := v.Pane()

	if n.req.Fraction != nil {
		n.coord.Write(pane, scroll.TopFor(pane, *n.req.Fraction), scroll.JumpHold)
		return
	}

	r := v.Range()
	inPage := min(max(n.req.Offset-r.Start, 0), r.Len())
	rendered := offsetmap.RawToRendered(inPage, v.Segments())

	node, offset := findRendered(v.Root(), rendered)
	if node == nil {
		if rendered > 0 && rendered >= offsetmap.RenderedLen(v.Segments()) {
			n.coord.Write(pane, scroll.MaxTop(pane), scroll.JumpHold)
			return
		}
		n.coord.Write(pane, 0, scroll.JumpHold)
		return
	}

	h, err := dom.Wrap(node, offset, FlashLen)
	if err != nil {
		n.coord.Write(pane, 0, scroll.JumpHold)
		return
	}
	v.Invalidate()

	n.flash = h
	n.flashView = v
	n.flashStart = n.coord.Now()

	row, ok := v.Locate(h.Text(), 0)
	if !ok {
		n.coord.Write(pane, 0, scroll.JumpHold)
		return
	}

	n.coord.Write(pane, max(0, row-n.margin), scroll.JumpHold)
}

// findRendered returns the first text node whose cumulative rendered length
// passes rendered, and the offset inside it.
func findRendered(root *html.Node, rendered int) (*html.Node, int) {
	var (
		found  *html.Node
		offset int
		acc    int
	)

	dom.WalkText(root, func(t *html.Node) bool {
		l := dom.TextLen(t)
		if acc+l > rendered {
			found, offset = t, rendered-acc
			return false
		}
		acc += l
		return true
	})

	return found, offset
}

// Flashing reports whether a highlight is shown.
func (n *Navigator) Flashing() bool {
	return n.flash != nil
}

// FlashLevel returns the current fade level, from FlashSteps down to 1 while
// the highlight is fading, and 0 once it is gone.
func (n *Navigator) FlashLevel() int {
	if n.flash == nil {
		return 0
	}
	elapsed := n.coord.Now().Sub(n.flashStart)
	if elapsed >= FlashDuration {
		return 0
	}
	step := FlashDuration / FlashSteps
	return FlashSteps - int(elapsed/step)
}

// Tick removes the highlight once it has fully faded. It reports whether
// the highlight was removed.
func (n *Navigator) Tick() bool {
	if n.flash == nil || n.FlashLevel() > 0 {
		return false
	}
	n.clearFlash()
	return true
}

func (n *Navigator) clearFlash() {
	if n.flash == nil {
		return
	}
	n.flash.Restore()
	if n.flashView != nil {
		n.flashView.Invalidate()
	}
	n.flash = nil
	n.flashView = nil
}
