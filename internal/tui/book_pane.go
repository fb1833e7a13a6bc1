package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/colonyops/marginalia/internal/core/dom"
	"github.com/colonyops/marginalia/internal/core/layout"
	"github.com/colonyops/marginalia/internal/core/reader"
	"github.com/colonyops/marginalia/internal/core/styles"
	"github.com/colonyops/marginalia/internal/tui/components"
)

// cell is a screen position inside the page layout.
type cell struct {
	row, col int
}

func (c cell) before(o cell) bool {
	return c.row < o.row || c.row == o.row && c.col < o.col
}

// BookPane shows one page view and implements reader.BookPane over a
// viewport. Rows are layout lines.
type BookPane struct {
	view  *reader.PageView
	vp    viewport.Model
	flash int
	moved bool

	// visual selection, inclusive at both ends
	selecting bool
	anchor    cell
	caret     cell
}

var _ reader.BookPane = (*BookPane)(nil)

// NewBookPane creates a pane showing width columns and height rows.
func NewBookPane(width, height int) *BookPane {
	vp := viewport.New(max(width, 1), max(height, 1))
	vp.MouseWheelEnabled = false
	return &BookPane{vp: vp}
}

// Show replaces the displayed page.
func (p *BookPane) Show(v *reader.PageView) {
	p.view = v
	p.selecting = false
	p.refresh()
}

// refresh renders every layout line into the viewport, keeping the offset
// when the new content still reaches it.
func (p *BookPane) refresh() {
	before := p.vp.YOffset

	var sb strings.Builder
	if l := p.layout(); l != nil {
		for row, line := range l.Lines() {
			if row > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(p.renderLine(row, line, p.vp.Width, p.flash))
		}
	}
	p.vp.SetContent(sb.String())

	p.vp.SetYOffset(before)
	if p.vp.YOffset != before {
		p.moved = true
	}
}

// View returns the displayed page, or nil.
func (p *BookPane) View() *reader.PageView { return p.view }

func (p *BookPane) layout() *layout.Layout {
	if p.view == nil {
		return nil
	}
	return p.view.Layout()
}

func (p *BookPane) ScrollTop() int { return p.vp.YOffset }

func (p *BookPane) ScrollHeight() int {
	if l := p.layout(); l == nil || l.Height() == 0 {
		return 0
	}
	return p.vp.TotalLineCount()
}

func (p *BookPane) ClientHeight() int { return p.vp.Height }

func (p *BookPane) SetScrollTop(top int) {
	before := p.vp.YOffset
	p.vp.SetYOffset(top)
	if p.vp.YOffset != before {
		p.moved = true
	}
}

// SetSize changes the visible columns and rows.
func (p *BookPane) SetSize(width, height int) {
	p.vp.Width, p.vp.Height = max(width, 1), max(height, 1)
	p.refresh()
}

// ScrollBy moves the pane by delta rows.
func (p *BookPane) ScrollBy(delta int) {
	p.SetScrollTop(p.vp.YOffset + delta)
}

// TakeMoved reports whether the pane scrolled since the last call.
func (p *BookPane) TakeMoved() bool {
	m := p.moved
	p.moved = false
	return m
}

// StartSelection begins a selection at a screen row and column.
func (p *BookPane) StartSelection(c cell) {
	p.selecting = true
	p.anchor = c
	p.caret = c
}

// StartCaret begins a keyboard selection at the first text on screen.
func (p *BookPane) StartCaret() {
	l := p.layout()
	if l == nil {
		return
	}
	row := p.vp.YOffset
	for row < l.Height() && !l.Lines()[row].HasText() {
		row++
	}
	col := 0
	if row < l.Height() {
		for _, r := range l.Lines()[row].Runs {
			if r.Node != nil {
				col = r.Col
				break
			}
		}
	}
	p.StartSelection(cell{row: row, col: col})
}

// MoveCaret extends the selection to c, scrolling to keep it visible.
func (p *BookPane) MoveCaret(c cell) {
	if !p.selecting {
		return
	}
	l := p.layout()
	c.row = min(max(c.row, 0), max(l.Height()-1, 0))
	c.col = min(max(c.col, 0), l.Width()-1)
	p.caret = c

	top, height := p.vp.YOffset, p.vp.Height
	switch {
	case c.row < top:
		p.SetScrollTop(c.row)
	case c.row >= top+height:
		p.SetScrollTop(c.row - height + 1)
	}
}

// Caret returns the moving end of the selection.
func (p *BookPane) Caret() cell { return p.caret }

// Selecting reports whether a selection is in progress.
func (p *BookPane) Selecting() bool { return p.selecting }

// CancelSelection drops the visual selection.
func (p *BookPane) CancelSelection() {
	p.selecting = false
}

// Range converts the visual selection into a tree range. The end cell is
// inclusive.
func (p *BookPane) Range() (dom.Range, bool) {
	l := p.layout()
	if !p.selecting || l == nil {
		return dom.Range{}, false
	}

	from, to := p.ordered()
	start, ok := l.HitTest(from.row, from.col)
	if !ok {
		return dom.Range{}, false
	}
	end, ok := l.HitTest(to.row, to.col+1)
	if !ok {
		return dom.Range{}, false
	}
	return dom.Range{Start: start, End: end}, true
}

func (p *BookPane) ordered() (cell, cell) {
	if p.caret.before(p.anchor) {
		return p.caret, p.anchor
	}
	return p.anchor, p.caret
}

func (p *BookPane) selected(c cell) bool {
	if !p.selecting {
		return false
	}
	from, to := p.ordered()
	return !c.before(from) && !to.before(c)
}

// Render draws the visible rows. flash is the fade level of the jump
// highlight.
func (p *BookPane) Render(flash int) string {
	if p.layout() == nil {
		return ""
	}
	p.flash = flash
	p.refresh()
	return p.vp.View()
}

func (p *BookPane) renderLine(row int, line layout.Line, width, flash int) string {
	var sb strings.Builder
	col := 0

	for _, r := range line.Runs {
		if r.Col > col {
			sb.WriteString(p.renderGap(row, col, r.Col))
			col = r.Col
		}

		base := runStyle(r.Style, flash)
		for _, c := range r.Text {
			w := runewidth.RuneWidth(c)
			style := base
			switch {
			case p.selecting && p.caret == (cell{row: row, col: col}):
				style = styles.CaretStyle
			case p.selected(cell{row: row, col: col}):
				style = styles.SelectionStyle
			}
			sb.WriteString(style.Render(string(c)))
			col += w
		}
	}

	if p.selecting && p.caret.row == row && p.caret.col >= col {
		sb.WriteString(components.Pad(p.caret.col - col))
		sb.WriteString(styles.CaretStyle.Render(" "))
		col = p.caret.col + 1
	}

	return sb.String() + components.Pad(width-col)
}

func (p *BookPane) renderGap(row, from, to int) string {
	if !p.selecting {
		return components.Pad(to - from)
	}
	var sb strings.Builder
	for c := from; c < to; c++ {
		if p.selected(cell{row: row, col: c}) {
			sb.WriteString(styles.SelectionStyle.Render(" "))
			continue
		}
		sb.WriteByte(' ')
	}
	return sb.String()
}

func runStyle(s layout.Style, flash int) lipgloss.Style {
	switch {
	case s.Has(layout.StyleMark):
		return styles.FlashStyle(flash)
	case s.Has(layout.StyleHeading):
		return styles.HeadingStyle
	case s.Has(layout.StyleImage):
		return styles.ImageStyle
	case s.Has(layout.StyleRule), s.Has(layout.StyleBullet):
		return styles.RuleStyle
	case s.Has(layout.StyleCode):
		return styles.CodeStyle
	case s.Has(layout.StyleLink):
		return styles.LinkStyle
	case s.Has(layout.StyleQuote):
		return styles.QuoteStyle
	}

	st := lipgloss.NewStyle()
	if s.Has(layout.StyleBold) {
		st = styles.BoldStyle
	}
	if s.Has(layout.StyleItalic) {
		st = st.Italic(true)
	}
	return st
}

// collapsed reports whether the selection covers a single cell, as after a
// click without a drag.
func (p *BookPane) collapsed() bool {
	return p.anchor == p.caret
}
