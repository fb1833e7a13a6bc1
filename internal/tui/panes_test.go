package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/pkg/tuitest"
)

func noteItems(n int) []anchorItem {
	items := make([]anchorItem, n)
	for i := range items {
		note := &book.Note{ID: fmt.Sprintf("n%d", i), BookID: "b1", Content: fmt.Sprintf("note number %d", i), CreatedAt: testNow}
		items[i] = anchorItem{anchor: book.Anchor{Kind: book.KindNote, Note: note}, resolvable: true}
	}
	return items
}

func TestNotesPane_Scrolling(t *testing.T) {
	p := NewNotesPane(40, 5)
	assert.Zero(t, p.ScrollHeight(), "an empty pane has nothing to scroll")

	p.SetAnchors(noteItems(8))
	require.Greater(t, p.ScrollHeight(), p.ClientHeight())
	assert.Equal(t, 5, p.ClientHeight())
	assert.False(t, p.TakeMoved())

	p.SetScrollTop(10_000)
	assert.Equal(t, p.ScrollHeight()-p.ClientHeight(), p.ScrollTop())
	assert.True(t, p.TakeMoved())
	assert.False(t, p.TakeMoved(), "moved is reported once")

	p.SetScrollTop(p.ScrollTop())
	assert.False(t, p.TakeMoved(), "writing the same offset is not a move")

	p.ScrollBy(-10_000)
	assert.Zero(t, p.ScrollTop())
	assert.True(t, p.TakeMoved())
}

func TestNotesPane_RenderShowsClientHeight(t *testing.T) {
	p := NewNotesPane(40, 5)
	p.SetAnchors(noteItems(8))

	view := tuitest.StripANSI(p.Render())
	assert.Len(t, strings.Split(view, "\n"), 5)
	assert.Contains(t, view, "Note")
}

func TestNotesPane_SelectScrollsIntoView(t *testing.T) {
	p := NewNotesPane(40, 5)
	p.SetAnchors(noteItems(8))

	p.SelectLast()
	assert.Positive(t, p.ScrollTop())

	i, ok := p.ItemAt(0)
	require.True(t, ok)
	assert.LessOrEqual(t, i, 7)

	p.Select(0)
	assert.Zero(t, p.ScrollTop())
	i, ok = p.ItemAt(0)
	require.True(t, ok)
	assert.Zero(t, i)
}

func TestBookPane_FollowsLayout(t *testing.T) {
	m := newTestModel(t, newBackend(makeBook(60)), Options{})
	p := m.bookPane

	_, _, innerH := m.paneSizes()
	assert.Equal(t, innerH, p.ClientHeight())
	assert.Equal(t, m.wb.CurrentView().Layout().Height(), p.ScrollHeight())

	view := tuitest.StripANSI(p.Render(0))
	assert.Len(t, strings.Split(view, "\n"), innerH)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(view), "para000"))

	p.SetScrollTop(10_000)
	assert.Equal(t, p.ScrollHeight()-p.ClientHeight(), p.ScrollTop())
	assert.NotContains(t, tuitest.StripANSI(p.Render(0)), "para000")
}

func TestBookPane_ResizeKeepsOffset(t *testing.T) {
	m := newTestModel(t, newBackend(makeBook(60)), Options{})

	m.bookPane.SetScrollTop(2)
	m.bookPane.TakeMoved()

	m, _ = send(m, tuitest.WindowSize(120, 20))
	_, _, innerH := m.paneSizes()
	assert.Equal(t, innerH, m.bookPane.ClientHeight())
	assert.Equal(t, 2, m.bookPane.ScrollTop())
}

func TestModel_MouseReleaseResolvesSelection(t *testing.T) {
	m := newTestModel(t, newBackend(makeBook(60)), Options{})

	m, _ = send(m,
		tuitest.Click(tea.MouseActionPress, 1, 2),
		tuitest.Click(tea.MouseActionMotion, 7, 2),
		tuitest.Click(tea.MouseActionRelease, 7, 2),
	)

	sel, ok := m.wb.PendingSelection()
	require.True(t, ok, "the selection is resolved when the button is released")
	assert.Equal(t, "para000", sel.SourceText)
	atRelease := sel.ScrollFraction

	m, _ = send(m, tuitest.Wheel(true, 5, 5))
	require.Positive(t, m.bookPane.ScrollTop())

	m, _ = send(m, tuitest.KeyPress('n'))
	require.NotNil(t, m.prompt)
	sel, ok = m.wb.PendingSelection()
	require.True(t, ok)
	assert.InDelta(t, atRelease, sel.ScrollFraction, 1e-9, "fraction is the one seen at release")
}

func TestModel_CaretMoveDropsResolvedSelection(t *testing.T) {
	m := newTestModel(t, newBackend(makeBook(60)), Options{})

	m, _ = send(m,
		tuitest.Click(tea.MouseActionPress, 1, 2),
		tuitest.Click(tea.MouseActionMotion, 7, 2),
		tuitest.Click(tea.MouseActionRelease, 7, 2),
	)
	_, ok := m.wb.PendingSelection()
	require.True(t, ok)

	m, _ = send(m, tuitest.KeyPress('l'))
	_, ok = m.wb.PendingSelection()
	assert.False(t, ok)
	require.True(t, m.bookPane.Selecting())

	m, _ = send(m, tuitest.KeyPress('n'))
	require.NotNil(t, m.prompt)
	_, ok = m.wb.PendingSelection()
	assert.True(t, ok, "n resolves the extended selection")
}
