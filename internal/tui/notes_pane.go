package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/styles"
)

// anchorItem is one entry in the notes pane.
type anchorItem struct {
	anchor     book.Anchor
	resolvable bool
}

// NotesPane lists notes and bookmarks in creation order. It implements
// scroll.Pane over a viewport holding the rendered lines.
type NotesPane struct {
	items    []anchorItem
	selected int

	width int
	vp    viewport.Model
	moved bool

	lines  []string
	starts []int

	renderer      *glamour.TermRenderer
	rendererWidth int
	rendered      map[string]string
}

// NewNotesPane creates an empty pane.
func NewNotesPane(width, height int) *NotesPane {
	width = max(width, 10)
	vp := viewport.New(width, max(height, 1))
	vp.MouseWheelEnabled = false
	return &NotesPane{width: width, vp: vp}
}

// SetAnchors replaces the listed anchors, keeping the selection on the same
// anchor when it is still present.
func (p *NotesPane) SetAnchors(items []anchorItem) {
	var keep string
	if a, ok := p.Selected(); ok {
		keep = a.anchor.ID()
	}

	p.items = items
	p.selected = min(p.selected, max(len(items)-1, 0))
	for i, it := range items {
		if it.anchor.ID() == keep {
			p.selected = i
			break
		}
	}
	p.rebuild()
}

// SetSize changes the pane dimensions.
func (p *NotesPane) SetSize(width, height int) {
	width, height = max(width, 10), max(height, 1)
	if width == p.width && height == p.vp.Height {
		return
	}
	p.width = width
	p.vp.Width, p.vp.Height = width, height
	p.rebuild()
}

// Selected returns the highlighted anchor.
func (p *NotesPane) Selected() (anchorItem, bool) {
	if p.selected < 0 || p.selected >= len(p.items) {
		return anchorItem{}, false
	}
	return p.items[p.selected], true
}

// SelectLast highlights the newest anchor.
func (p *NotesPane) SelectLast() {
	p.Select(len(p.items) - 1)
}

// Move changes the highlighted anchor by delta and scrolls it into view.
func (p *NotesPane) Move(delta int) {
	p.Select(p.selected + delta)
}

// Select highlights anchor i and scrolls it into view.
func (p *NotesPane) Select(i int) {
	if len(p.items) == 0 {
		return
	}
	p.selected = min(max(i, 0), len(p.items)-1)
	p.rebuild()

	start := p.starts[p.selected]
	end := len(p.lines)
	if p.selected+1 < len(p.starts) {
		end = p.starts[p.selected+1]
	}
	top, height := p.vp.YOffset, p.vp.Height
	switch {
	case start < top:
		p.SetScrollTop(start)
	case end > top+height:
		p.SetScrollTop(min(start, end-height))
	}
}

func (p *NotesPane) ScrollTop() int { return p.vp.YOffset }

func (p *NotesPane) ScrollHeight() int {
	if len(p.lines) == 0 {
		return 0
	}
	return p.vp.TotalLineCount()
}

func (p *NotesPane) ClientHeight() int { return p.vp.Height }

func (p *NotesPane) SetScrollTop(t int) {
	before := p.vp.YOffset
	p.vp.SetYOffset(t)
	if p.vp.YOffset != before {
		p.moved = true
	}
}

// ScrollBy moves the pane by delta rows.
func (p *NotesPane) ScrollBy(delta int) {
	p.SetScrollTop(p.vp.YOffset + delta)
}

// TakeMoved reports whether the pane scrolled since the last call.
func (p *NotesPane) TakeMoved() bool {
	m := p.moved
	p.moved = false
	return m
}

// Render draws the visible rows.
func (p *NotesPane) Render() string {
	if len(p.items) == 0 {
		return styles.MutedStyle.Width(p.width).Render("No notes yet. Select text with v or the mouse and press n.")
	}
	return p.vp.View()
}

func (p *NotesPane) rebuild() {
	p.lines = p.lines[:0]
	p.starts = p.starts[:0]

	for i, it := range p.items {
		p.starts = append(p.starts, len(p.lines))

		style := styles.NoteStyle
		if i == p.selected {
			style = styles.NoteSelectedStyle
		}
		block := style.Width(p.width - 1).Render(p.renderItem(it))
		p.lines = append(p.lines, strings.Split(block, "\n")...)
		p.lines = append(p.lines, "")
	}

	before := p.vp.YOffset
	p.vp.SetContent(strings.Join(p.lines, "\n"))
	p.vp.SetYOffset(before)
	if p.vp.YOffset != before {
		p.moved = true
	}
}

func (p *NotesPane) renderItem(it anchorItem) string {
	inner := p.width - 3

	var header, meta string
	var body []string

	switch it.anchor.Kind {
	case book.KindBookmark:
		b := it.anchor.Bookmark
		header = styles.IconBookmark + " " + b.Name
		meta = fmt.Sprintf("page %d · %.0f%% · %s", b.PageNumber, b.ScrollPercentage*100, humanize.Time(b.CreatedAt))
	default:
		n := it.anchor.Note
		header = styles.IconNote + " Note"
		meta = humanize.Time(n.CreatedAt)
		if n.SourceText != "" {
			quote := strings.Join(strings.Fields(n.SourceText), " ")
			body = append(body, styles.NoteQuoteStyle.Render(ansi.Truncate("“"+quote+"”", inner, "…")))
		}
		body = append(body, p.markdown(n.ID, n.Content, inner))
	}

	header = styles.PaneTitleStyle.Render(ansi.Truncate(header, inner, "…"))
	if !it.resolvable {
		header += " " + styles.UnresolvedStyle.Render(styles.IconBroken)
		meta += " · " + styles.UnresolvedStyle.Render("cannot be located")
	}

	parts := append([]string{header, styles.NoteMetaStyle.Render(meta)}, body...)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// markdown renders note content, falling back to the raw text when glamour
// fails. Output is cached per note until the width changes.
func (p *NotesPane) markdown(id, content string, width int) string {
	if out, ok := p.rendered[id]; ok && p.rendererWidth == width {
		return out
	}

	if p.renderer == nil || p.rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStyles(styles.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Debug().Err(err).Msg("glamour renderer unavailable")
			return content
		}
		p.renderer, p.rendererWidth = r, width
		p.rendered = make(map[string]string)
	}

	out, err := p.renderer.Render(content)
	if err != nil {
		return content
	}
	out = strings.Trim(out, "\n")
	p.rendered[id] = out
	return out
}

// ItemAt returns the index of the anchor drawn at a pane row.
func (p *NotesPane) ItemAt(row int) (int, bool) {
	line := p.vp.YOffset + row
	if row < 0 || line >= len(p.lines) {
		return 0, false
	}
	for i := len(p.starts) - 1; i >= 0; i-- {
		if p.starts[i] <= line {
			return i, true
		}
	}
	return 0, false
}
