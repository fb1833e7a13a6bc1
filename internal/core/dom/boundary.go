package dom

import (
	"golang.org/x/net/html"
)

// Boundary is a position in the tree. For a text node Offset counts code
// units; for an element it is a child index.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// Range spans two boundaries in document order.
type Range struct {
	Start Boundary
	End   Boundary
}

// Collapsed reports whether the range starts and ends at the same point.
func (r Range) Collapsed() bool {
	return r.Start.Node == r.End.Node && r.Start.Offset == r.End.Offset
}

// Normalize resolves a boundary to a text node and offset. An element
// boundary at child index i moves to offset 0 of the first text descendant
// of child i, or, when i is at or past the last child, to the end of the
// element's last text descendant. Children without text are skipped.
// ok is false when no text node can be found.
func Normalize(b Boundary) (Boundary, bool) {
	if b.Node == nil {
		return Boundary{}, false
	}

	if b.Node.Type == html.TextNode {
		return Boundary{Node: b.Node, Offset: min(max(b.Offset, 0), TextLen(b.Node))}, true
	}

	i := 0
	for c := b.Node.FirstChild; c != nil; c = c.NextSibling {
		if i >= b.Offset {
			if t := FirstText(c); t != nil {
				return Boundary{Node: t, Offset: 0}, true
			}
		}
		i++
	}

	if t := LastText(b.Node); t != nil {
		return Boundary{Node: t, Offset: TextLen(t)}, true
	}

	return Boundary{}, false
}

