package reader

import (
	"golang.org/x/net/html"

	"github.com/colonyops/marginalia/internal/core/dom"
	"github.com/colonyops/marginalia/internal/core/layout"
	"github.com/colonyops/marginalia/internal/core/offsetmap"
	"github.com/colonyops/marginalia/internal/core/paginate"
	"github.com/colonyops/marginalia/internal/core/scroll"
)

// PageView is a materialized page: its source, rendered tree, segments and
// a lazily built layout.
type PageView struct {
	number  int
	rng     paginate.Page
	source  string
	doc     *dom.Document
	segs    []offsetmap.Segment
	width   int
	pane    scroll.Pane
	lay     *layout.Layout
}

func newPageView(number int, rng paginate.Page, source string, width int, pane scroll.Pane) (*PageView, error) {
	doc, err := dom.Build(source)
	if err != nil {
		return nil, err
	}

	return &PageView{
		number: number,
		rng:    rng,
		source: source,
		doc:    doc,
		segs:   offsetmap.Segmentize(source),
		width:  width,
		pane:   pane,
	}, nil
}

// Number returns the 1-based page number.
func (v *PageView) Number() int { return v.number }

// Range returns the page's range in the document.
func (v *PageView) Range() paginate.Page { return v.rng }

// Source returns the page's raw Markdown.
func (v *PageView) Source() string { return v.source }

// Root returns the rendered tree.
func (v *PageView) Root() *html.Node { return v.doc.Root }

// Segments returns the page's segments.
func (v *PageView) Segments() []offsetmap.Segment { return v.segs }

// Pane returns the pane the page is shown in.
func (v *PageView) Pane() scroll.Pane { return v.pane }

// Width returns the layout width.
func (v *PageView) Width() int { return v.width }

// Layout returns the page laid out at its width.
func (v *PageView) Layout() *layout.Layout {
	if v.lay == nil {
		v.lay = layout.Build(v.doc.Root, v.width)
	}
	return v.lay
}

// Locate returns the row of a text position.
func (v *PageView) Locate(n *html.Node, offset int) (int, bool) {
	row, _, ok := v.Layout().LocateFrom(v.doc.Root, n, offset)
	return row, ok
}

// Invalidate drops the layout after the tree changed.
func (v *PageView) Invalidate() {
	v.lay = nil
}
