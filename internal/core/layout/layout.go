// Package layout flows a rendered page into terminal lines.
//
// Every visible character is tied back to the text node and code unit
// offset it came from, so a row and column can be turned into a tree
// boundary (HitTest) and a tree position into a row (Locate).
package layout

import (
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"

	"github.com/colonyops/marginalia/internal/core/codeunit"
	"github.com/colonyops/marginalia/internal/core/dom"
)

// MinWidth is the narrowest layout width.
const MinWidth = 10

// Style is a set of inline presentation flags.
type Style uint16

const (
	StyleBold Style = 1 << iota
	StyleItalic
	StyleCode
	StyleLink
	StyleHeading
	StyleQuote
	StyleMark
	StyleImage
	StyleRule
	StyleBullet
)

// Has reports whether s includes f.
func (s Style) Has(f Style) bool { return s&f != 0 }

// Run is a contiguous piece of one line. Text runs point back to the node
// they were cut from; decoration runs (bullets, quote bars, images) have a
// nil Node.
type Run struct {
	Node  *html.Node
	Start int
	End   int
	Text  string
	Col   int
	Width int
	Style Style
}

// Line is one terminal row.
type Line struct {
	Runs  []Run
	Width int
}

// HasText reports whether the line carries any text run.
func (l Line) HasText() bool {
	for _, r := range l.Runs {
		if r.Node != nil {
			return true
		}
	}
	return false
}

type runRef struct {
	line int
	run  int
}

// Layout is the result of flowing a tree at a fixed width.
type Layout struct {
	width int
	lines []Line
	index map[*html.Node][]runRef
}

// Build lays out root at width columns.
func Build(root *html.Node, width int) *Layout {
	b := newBuilder(max(width, MinWidth))
	if root != nil {
		b.block(root, 0)
	}
	b.flush()

	l := &Layout{width: b.width, lines: b.lines, index: make(map[*html.Node][]runRef)}
	for i, line := range l.lines {
		for j, r := range line.Runs {
			if r.Node != nil {
				l.index[r.Node] = append(l.index[r.Node], runRef{line: i, run: j})
			}
		}
	}
	return l
}

// Width returns the layout width.
func (l *Layout) Width() int { return l.width }

// Height returns the number of lines.
func (l *Layout) Height() int { return len(l.lines) }

// Lines returns the laid out lines.
func (l *Layout) Lines() []Line { return l.lines }

// Locate returns the row and column of offset inside text node n. When the
// offset falls on characters that were not laid out (whitespace dropped at a
// wrap), the nearest following position in the same node is used. ok is
// false when the node produced no runs.
func (l *Layout) Locate(n *html.Node, offset int) (row, col int, ok bool) {
	refs := l.index[n]
	if len(refs) == 0 {
		return 0, 0, false
	}

	for _, ref := range refs {
		r := l.lines[ref.line].Runs[ref.run]
		if offset >= r.Start && offset < r.End {
			return ref.line, r.Col + prefixWidth(r, offset), true
		}
	}

	for _, ref := range refs {
		r := l.lines[ref.line].Runs[ref.run]
		if r.Start >= offset {
			return ref.line, r.Col, true
		}
	}

	last := refs[len(refs)-1]
	r := l.lines[last.line].Runs[last.run]
	return last.line, r.Col + r.Width, true
}

// LocateFrom is Locate with a fallback: when n produced no runs, the first
// laid out text node after it in document order is used.
func (l *Layout) LocateFrom(root, n *html.Node, offset int) (row, col int, ok bool) {
	if row, col, ok := l.Locate(n, offset); ok {
		return row, col, true
	}

	seen := false
	dom.WalkText(root, func(t *html.Node) bool {
		if t == n {
			seen = true
			return true
		}
		if !seen {
			return true
		}
		if refs := l.index[t]; len(refs) > 0 {
			r := l.lines[refs[0].line].Runs[refs[0].run]
			row, col, ok = refs[0].line, r.Col, true
			return false
		}
		return true
	})
	return row, col, ok
}

// HitTest converts a screen position to a tree boundary. Positions left of
// the first text run snap to its start, positions right of the last text run
// snap to its end. Lines without text resolve to the next line that has
// text, or the previous one at the end of the page.
func (l *Layout) HitTest(row, col int) (dom.Boundary, bool) {
	if len(l.lines) == 0 {
		return dom.Boundary{}, false
	}
	row = min(max(row, 0), len(l.lines)-1)

	if !l.lines[row].HasText() {
		for i := row + 1; i < len(l.lines); i++ {
			if l.lines[i].HasText() {
				return l.hitLine(i, -1), true
			}
		}
		for i := row - 1; i >= 0; i-- {
			if l.lines[i].HasText() {
				return l.hitLine(i, l.width+1), true
			}
		}
		return dom.Boundary{}, false
	}

	return l.hitLine(row, col), true
}

func (l *Layout) hitLine(row, col int) dom.Boundary {
	var first, last *Run
	for i := range l.lines[row].Runs {
		r := &l.lines[row].Runs[i]
		if r.Node == nil {
			continue
		}
		if first == nil {
			first = r
		}
		last = r
		if col >= r.Col && col < r.Col+r.Width {
			return dom.Boundary{Node: r.Node, Offset: offsetAt(*r, col-r.Col)}
		}
	}

	if col < first.Col {
		return dom.Boundary{Node: first.Node, Offset: first.Start}
	}
	return dom.Boundary{Node: last.Node, Offset: last.End}
}

// prefixWidth returns the display width of r's text before offset.
func prefixWidth(r Run, offset int) int {
	w, units := 0, r.Start
	for _, c := range r.Text {
		if units >= offset {
			break
		}
		w += runewidth.RuneWidth(c)
		units += codeunit.RuneLen(c)
	}
	return w
}

// offsetAt returns the code unit offset of the character at display column
// col within r.
func offsetAt(r Run, col int) int {
	w, units := 0, r.Start
	for _, c := range r.Text {
		cw := runewidth.RuneWidth(c)
		if w+cw > col {
			return units
		}
		w += cw
		units += codeunit.RuneLen(c)
	}
	return r.End
}
