// Package selection turns a range in the rendered page into a raw document
// anchor.
package selection

import (
	"errors"
	"strings"

	"golang.org/x/net/html"

	"github.com/colonyops/marginalia/internal/core/codeunit"
	"github.com/colonyops/marginalia/internal/core/dom"
	"github.com/colonyops/marginalia/internal/core/offsetmap"
	"github.com/colonyops/marginalia/internal/core/paginate"
	"github.com/colonyops/marginalia/internal/core/scroll"
)

// ErrNullSelection is returned for empty selections, selections with no text
// and selections outside the page. Callers suppress save actions on it.
var ErrNullSelection = errors.New("null selection")

// Selection is an ephemeral anchor candidate.
type Selection struct {
	SourceText     string
	GlobalOffset   int
	RenderedStart  int
	RenderedEnd    int
	ScrollFraction float64
}

// Len returns the rendered length of the selection.
func (s Selection) Len() int {
	return s.RenderedEnd - s.RenderedStart
}

// Resolve maps rng, a range inside root, to a global raw offset. page is the
// page root renders and segs its segments. pane, if not nil, supplies the
// scroll fraction captured with the selection.
func Resolve(root *html.Node, rng dom.Range, page paginate.Page, segs []offsetmap.Segment, pane scroll.Pane) (Selection, error) {
	if root == nil || rng.Start.Node == nil || rng.End.Node == nil {
		return Selection{}, ErrNullSelection
	}
	if !dom.Contains(root, rng.Start.Node) || !dom.Contains(root, rng.End.Node) {
		return Selection{}, ErrNullSelection
	}

	start, ok := dom.Normalize(rng.Start)
	if !ok {
		return Selection{}, ErrNullSelection
	}
	end, ok := dom.Normalize(rng.End)
	if !ok {
		return Selection{}, ErrNullSelection
	}

	renderedStart, renderedEnd := -1, -1
	acc := 0
	var content strings.Builder
	dom.WalkText(root, func(n *html.Node) bool {
		if n == start.Node {
			renderedStart = acc + start.Offset
		}
		if n == end.Node {
			renderedEnd = acc + end.Offset
		}
		content.WriteString(n.Data)
		acc += dom.TextLen(n)
		return true
	})

	if renderedStart < 0 || renderedEnd < 0 {
		return Selection{}, ErrNullSelection
	}
	if renderedEnd < renderedStart {
		renderedStart, renderedEnd = renderedEnd, renderedStart
	}

	text := codeunit.NewText(content.String()).Slice(renderedStart, renderedEnd)
	if strings.TrimSpace(text) == "" {
		return Selection{}, ErrNullSelection
	}

	sel := Selection{
		SourceText:    text,
		GlobalOffset:  page.Start + offsetmap.RenderedToRaw(renderedStart, segs),
		RenderedStart: renderedStart,
		RenderedEnd:   renderedEnd,
	}
	if pane != nil {
		sel.ScrollFraction = scroll.Fraction(pane)
	}

	return sel, nil
}
