package reader

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/dom"
	"github.com/colonyops/marginalia/internal/core/layout"
	"github.com/colonyops/marginalia/internal/core/navigator"
	"github.com/colonyops/marginalia/internal/core/panesync"
	"github.com/colonyops/marginalia/internal/core/scroll"
	"github.com/colonyops/marginalia/internal/core/scroll/scrolltest"
)

const (
	testWidth  = 40
	testClient = 5
)

type testPane struct {
	scrolltest.StaticPane
	shown *PageView
}

func (p *testPane) Show(v *PageView) {
	p.shown = v
	p.Height = v.Layout().Height()
	p.Client = testClient
}

type harness struct {
	w     *Workbench
	book  *testPane
	notes *scrolltest.StaticPane
	clock *scrolltest.ManualClock
	md    string
}

func newHarness(t *testing.T, md string, pageSize int) *harness {
	t.Helper()

	h := &harness{
		book:  &testPane{},
		notes: &scrolltest.StaticPane{Height: 200, Client: 20},
		clock: &scrolltest.ManualClock{T: time.Unix(1_700_000_000, 0)},
		md:    md,
	}
	w, err := New(h.book, h.notes, Options{
		PageSize: pageSize,
		Width:    testWidth,
		Now:      h.clock.Now,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	h.w = w
	require.NoError(t, h.w.Open(content(md)))
	return h
}

func content(md string) Content {
	return Content{Book: book.Book{ID: "b1", Title: "Test", Status: book.StatusCompleted, Markdown: md}}
}

func filler(paras int) string {
	var sb strings.Builder
	for i := range paras {
		fmt.Fprintf(&sb, "para%03d lorem ipsum dolor sit amet consectetur adipiscing elit sed do\n\n", i)
	}
	return sb.String()
}

// findText returns the first text node containing s and the offset of s in it.
func findText(root *html.Node, s string) (*html.Node, int) {
	var (
		found *html.Node
		at    int
	)
	dom.WalkText(root, func(n *html.Node) bool {
		if i := strings.Index(n.Data, s); i >= 0 {
			found, at = n, i
			return false
		}
		return true
	})
	return found, at
}

func marks(root *html.Node) []*html.Node {
	var out []*html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "mark" {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return out
}

func (h *harness) selectWord(t *testing.T, word string) {
	t.Helper()

	n, at := findText(h.w.CurrentView().Root(), word)
	require.NotNil(t, n, "word %q not on page", word)
	_, err := h.w.Select(dom.Range{
		Start: dom.Boundary{Node: n, Offset: at},
		End:   dom.Boundary{Node: n, Offset: at + len(word)},
	})
	require.NoError(t, err)
}

func (h *harness) saveNote(t *testing.T, id, body string) book.Anchor {
	t.Helper()

	draft, ok := h.w.NoteDraft(body)
	require.True(t, ok)

	h.clock.Advance(time.Second)
	n := book.Note{
		ID:               id,
		BookID:           draft.BookID,
		Content:          draft.Content,
		SourceText:       draft.SourceText,
		ScrollPercentage: draft.ScrollPercentage,
		GlobalOffset:     draft.GlobalOffset,
		ContentHash:      draft.ContentHash,
		CreatedAt:        h.clock.Now(),
	}
	h.w.NoteSaved(n)
	return book.Anchor{Kind: book.KindNote, Note: &n}
}

func TestOpen_PaginatesAndNavigates(t *testing.T) {
	md := filler(200)[:12_345]
	h := newHarness(t, md, 0)

	require.Equal(t, 3, h.w.PageCount())
	assert.Equal(t, 1, h.w.CurrentPage())
	assert.Equal(t, 0, h.book.Top)

	h.book.SetScrollTop(20)
	require.True(t, h.w.Next())
	assert.Equal(t, 2, h.w.CurrentPage())
	assert.Equal(t, 0, h.book.Top)
	assert.Equal(t, 2, h.book.shown.Number())

	h.book.SetScrollTop(7)
	require.True(t, h.w.Previous())
	assert.Equal(t, 1, h.w.CurrentPage())
	assert.Equal(t, 0, h.book.Top)

	require.True(t, h.w.Last())
	assert.False(t, h.w.Next())
	assert.Equal(t, 3, h.w.CurrentPage())

	assert.True(t, h.w.GoTo(-4))
	assert.Equal(t, 1, h.w.CurrentPage())
	assert.False(t, h.w.First())
}

func TestOpen_Unreadable(t *testing.T) {
	w, err := New(&testPane{}, &scrolltest.StaticPane{}, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	err = w.Open(Content{Book: book.Book{ID: "x", Status: book.StatusProcessing}})
	require.ErrorIs(t, err, book.ErrIncomplete)

	err = w.Open(Content{Book: book.Book{ID: "x", Status: book.StatusCompleted, Markdown: "Error: bad pdf"}})
	require.ErrorIs(t, err, book.ErrUnavailable)
	assert.False(t, w.Loaded())
}

func TestOpen_ResetsToFirstPage(t *testing.T) {
	md := filler(60)
	h := newHarness(t, md, 1000)
	h.w.Last()

	require.NoError(t, h.w.Open(content(md)))
	assert.Equal(t, 1, h.w.CurrentPage())
}

func TestSelectSaveAndJumpBack(t *testing.T) {
	md := "intro alpha beta gamma delta\n\n" + filler(60)
	h := newHarness(t, md, 1000)
	require.Greater(t, h.w.PageCount(), 2)

	h.selectWord(t, "gamma")
	sel, ok := h.w.PendingSelection()
	require.True(t, ok)
	assert.Equal(t, "gamma", sel.SourceText)
	assert.Equal(t, strings.Index(md, "gamma"), sel.GlobalOffset)

	anchor := h.saveNote(t, "n1", "a comment")
	_, ok = h.w.PendingSelection()
	assert.False(t, ok)

	h.w.Last()
	require.NoError(t, h.w.Jump(anchor))

	assert.Equal(t, 1, h.w.CurrentPage())
	assert.False(t, h.w.Navigator().Pending())
	m := marks(h.w.CurrentView().Root())
	require.Len(t, m, 1)
	assert.Equal(t, "gamma", m[0].FirstChild.Data)
	assert.Equal(t, 0, h.book.Top)
}

func TestSelect_Null(t *testing.T) {
	h := newHarness(t, "alpha beta\n\ngamma", 0)

	n, at := findText(h.w.CurrentView().Root(), "beta")
	_, err := h.w.Select(dom.Range{
		Start: dom.Boundary{Node: n, Offset: at},
		End:   dom.Boundary{Node: n, Offset: at},
	})
	assert.Error(t, err)

	_, ok := h.w.NoteDraft("x")
	assert.False(t, ok)
}

func TestBookmark_RoundTrip(t *testing.T) {
	md := filler(60)
	h := newHarness(t, md, 1000)

	h.w.GoTo(2)
	h.book.SetScrollTop(scroll.TopFor(h.book, 0.5))

	draft, err := h.w.BookmarkDraft("halfway")
	require.NoError(t, err)
	assert.Equal(t, 2, draft.PageNumber)
	assert.InDelta(t, 0.5, draft.ScrollPercentage, 0.05)
	require.NotNil(t, draft.GlobalOffset)
	assert.Equal(t, h.w.Pages()[1].Start, *draft.GlobalOffset)

	bm := book.Bookmark{
		ID:               "bm1",
		BookID:           draft.BookID,
		Name:             draft.Name,
		PageNumber:       draft.PageNumber,
		ScrollPercentage: draft.ScrollPercentage,
		GlobalOffset:     draft.GlobalOffset,
		ContentHash:      draft.ContentHash,
	}
	h.w.BookmarkSaved(bm)
	require.Len(t, h.w.Anchors(), 1)

	h.w.First()
	require.NoError(t, h.w.Jump(book.Anchor{Kind: book.KindBookmark, Bookmark: &bm}))

	assert.Equal(t, 2, h.w.CurrentPage())
	assert.InDelta(t, float64(scroll.MaxTop(h.book))/2, float64(h.book.Top), 1)
	assert.Empty(t, marks(h.w.CurrentView().Root()))

	bm.Name = "renamed"
	h.w.BookmarkRenamed(bm)
	assert.Equal(t, "renamed", h.w.Anchors()[0].Bookmark.Name)

	h.w.BookmarkDeleted("bm1")
	assert.Empty(t, h.w.Anchors())
}

func TestJump_EndOfDocument(t *testing.T) {
	md := filler(60)
	h := newHarness(t, md, 1000)

	require.NoError(t, h.w.JumpToOffset(h.w.TextLen()))

	assert.Equal(t, h.w.PageCount(), h.w.CurrentPage())
	assert.Equal(t, scroll.MaxTop(h.book), h.book.Top)
}

func TestJump_Unresolvable(t *testing.T) {
	md := filler(20)
	h := newHarness(t, md, 1000)

	past := h.w.TextLen() + 1
	require.ErrorIs(t, h.w.JumpToOffset(past), book.ErrAnchorUnresolvable)

	g := 10
	stale := book.Anchor{Kind: book.KindNote, Note: &book.Note{ID: "n", GlobalOffset: &g, ContentHash: "other"}}
	assert.False(t, h.w.Resolvable(stale))
	require.ErrorIs(t, h.w.Jump(stale), book.ErrAnchorUnresolvable)

	noOffset := book.Anchor{Kind: book.KindNote, Note: &book.Note{ID: "n2"}}
	assert.False(t, h.w.Resolvable(noOffset))

	farPage := book.Anchor{Kind: book.KindBookmark, Bookmark: &book.Bookmark{ID: "b", PageNumber: 99}}
	assert.False(t, h.w.Resolvable(farPage))
}

func TestJump_BeforeOpen(t *testing.T) {
	md := filler(60)
	p := &testPane{}
	clock := &scrolltest.ManualClock{T: time.Unix(1_700_000_000, 0)}
	w, err := New(p, &scrolltest.StaticPane{}, Options{PageSize: 1000, Width: testWidth, Now: clock.Now, Logger: zerolog.Nop()})
	require.NoError(t, err)

	target := strings.Index(md, "para040")
	require.NoError(t, w.JumpToOffset(target))
	assert.True(t, w.Navigator().Pending())

	require.NoError(t, w.Open(content(md)))

	assert.False(t, w.Navigator().Pending())
	assert.True(t, w.CurrentView().Range().Contains(target))
	m := marks(w.CurrentView().Root())
	require.Len(t, m, 1)
	got, ok := w.CurrentView().Locate(m[0].FirstChild, 0)
	require.True(t, ok)

	// the same page rendered without the highlight
	doc, err := dom.Build(w.CurrentView().Source())
	require.NoError(t, err)
	n, at := findText(doc.Root, "para040")
	require.NotNil(t, n)
	want, _, ok := layout.Build(doc.Root, testWidth).Locate(n, at)
	require.True(t, ok)
	assert.InDelta(t, want, got, 1)
}

func TestJump_FlashFades(t *testing.T) {
	md := "intro alpha beta gamma delta\n\n" + filler(10)
	h := newHarness(t, md, 0)

	h.selectWord(t, "beta")
	anchor := h.saveNote(t, "n1", "x")
	require.NoError(t, h.w.Jump(anchor))

	require.True(t, h.w.Flashing())
	assert.Equal(t, navigator.FlashSteps, h.w.FlashLevel())
	highlighted := h.w.CurrentView().Layout()

	h.clock.Advance(navigator.FlashDuration)
	assert.True(t, h.w.Tick())
	assert.False(t, h.w.Flashing())
	assert.Empty(t, marks(h.w.CurrentView().Root()))
	assert.NotSame(t, highlighted, h.w.CurrentView().Layout(), "layout is rebuilt once the highlight is gone")
	assert.False(t, h.w.Tick())
}

func TestPageMove_CancelsFlash(t *testing.T) {
	md := "intro alpha beta gamma delta\n\n" + filler(60)
	h := newHarness(t, md, 1000)

	h.selectWord(t, "gamma")
	anchor := h.saveNote(t, "n1", "x")
	require.NoError(t, h.w.Jump(anchor))
	require.True(t, h.w.Flashing())

	h.w.Next()
	assert.False(t, h.w.Flashing())
	h.w.Previous()
	assert.Empty(t, marks(h.w.CurrentView().Root()))
}

func TestSync_JumpDoesNotOscillate(t *testing.T) {
	md := "intro alpha beta gamma delta\n\n" + filler(60)
	h := newHarness(t, md, 1000)

	h.selectWord(t, "gamma")
	anchor := h.saveNote(t, "n1", "x")
	h.w.Last()
	h.clock.Advance(time.Second)

	// a user scroll is pending when the jump starts
	tag, ok := h.w.Scrolled(panesync.Book)
	require.True(t, ok)

	require.NoError(t, h.w.Jump(anchor))
	bookWrites := len(h.book.Writes)

	// the jump's own scroll events are dropped
	_, ok = h.w.Scrolled(panesync.Book)
	assert.False(t, ok)

	h.clock.Advance(panesync.Debounce)
	assert.False(t, h.w.FireSync(tag))
	assert.Empty(t, h.notes.Writes)

	h.clock.Advance(scroll.JumpHold)
	h.book.SetScrollTop(scroll.MaxTop(h.book) / 2)
	tag, ok = h.w.Scrolled(panesync.Book)
	require.True(t, ok)
	h.clock.Advance(panesync.Debounce)
	require.True(t, h.w.FireSync(tag))
	require.Len(t, h.notes.Writes, 1)

	// the mirrored write does not echo back
	_, ok = h.w.Scrolled(panesync.Notes)
	assert.False(t, ok)
	assert.Len(t, h.book.Writes, bookWrites+1)
}

func TestSelectionRoundTrip_RowWithinOne(t *testing.T) {
	md := filler(80)
	h := newHarness(t, md, 1500)
	require.Greater(t, h.w.PageCount(), 2)

	words := []string{"lorem", "dolor", "amet", "adipiscing", "sed"}
	for i := range 12 {
		h.w.GoTo(2)
		para := fmt.Sprintf("para%03d", 20+i)
		start, at := findText(h.w.CurrentView().Root(), para)
		if start == nil {
			continue
		}

		word := words[i%len(words)]
		off := at + strings.Index(start.Data[at:], word)
		want, _, ok := h.w.CurrentView().Layout().Locate(start, off)
		require.True(t, ok)

		_, err := h.w.Select(dom.Range{
			Start: dom.Boundary{Node: start, Offset: off},
			End:   dom.Boundary{Node: start, Offset: off + len(word)},
		})
		require.NoError(t, err)
		anchor := h.saveNote(t, fmt.Sprintf("n%d", i), word)

		h.w.Last()
		require.NoError(t, h.w.Jump(anchor))
		require.Equal(t, 2, h.w.CurrentPage())

		m := marks(h.w.CurrentView().Root())
		require.Len(t, m, 1)
		got, ok := h.w.CurrentView().Locate(m[0].FirstChild, 0)
		require.True(t, ok)
		assert.InDelta(t, want, got, 1, "word %q of %s", word, para)
	}
}

func TestProgress_Restore(t *testing.T) {
	md := filler(60)
	h := newHarness(t, md, 1000)

	h.w.GoTo(2)
	h.book.SetScrollTop(scroll.TopFor(h.book, 0.25))
	p := h.w.Progress()
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, h.w.Hash(), p.ContentHash)

	require.NoError(t, h.w.Open(content(md)))
	h.clock.Advance(time.Second)
	h.w.Restore(p)
	assert.Equal(t, 2, h.w.CurrentPage())
	assert.Equal(t, scroll.TopFor(h.book, p.Fraction), h.book.Top)

	h.w.First()
	p.ContentHash = "changed"
	h.w.Restore(p)
	assert.Equal(t, 1, h.w.CurrentPage())
}

type fakeBackend struct {
	book.Backend
	b     book.Book
	notes []book.Note
	err   error
}

func (f *fakeBackend) Book(context.Context, string) (book.Book, error) { return f.b, f.err }
func (f *fakeBackend) Notes(context.Context, string) ([]book.Note, error) {
	return f.notes, nil
}

func (f *fakeBackend) Bookmarks(context.Context, string) ([]book.Bookmark, error) {
	return nil, nil
}

func TestFetch(t *testing.T) {
	ctx := context.Background()

	fb := &fakeBackend{
		b:     book.Book{ID: "b1", Status: book.StatusCompleted, Markdown: "hello"},
		notes: []book.Note{{ID: "n1"}},
	}
	c, err := Fetch(ctx, fb, "b1")
	require.NoError(t, err)
	assert.Equal(t, "hello", c.Book.Markdown)
	assert.Len(t, c.Notes, 1)

	fb.b.Status = book.StatusProcessing
	c, err = Fetch(ctx, fb, "b1")
	require.ErrorIs(t, err, book.ErrIncomplete)
	assert.Equal(t, "b1", c.Book.ID)

	fb.err = book.ErrNotFound
	_, err = Fetch(ctx, fb, "b1")
	require.ErrorIs(t, err, book.ErrNotFound)
}
