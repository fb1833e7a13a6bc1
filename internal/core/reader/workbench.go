// Package reader ties the reading core together: it owns the document, its
// pages, the current page view and the two panes, and routes selections,
// anchor jumps and pane scrolling through the core components.
//
// A Workbench is driven from a single UI loop and is not safe for
// concurrent use. Fetching content is the only blocking step and happens in
// Fetch, outside the Workbench.
package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/codeunit"
	"github.com/colonyops/marginalia/internal/core/dom"
	"github.com/colonyops/marginalia/internal/core/navigator"
	"github.com/colonyops/marginalia/internal/core/paginate"
	"github.com/colonyops/marginalia/internal/core/panesync"
	"github.com/colonyops/marginalia/internal/core/scroll"
	"github.com/colonyops/marginalia/internal/core/selection"
)

// DefaultCacheSize is the number of page views kept.
const DefaultCacheSize = 8

// ErrNoBook is returned by operations that need an open book.
var ErrNoBook = errors.New("no book open")

// BookPane is the pane that displays the current page.
type BookPane interface {
	scroll.Pane
	// Show displays v. It is called whenever the current page view is
	// replaced, before any scroll write for that page.
	Show(v *PageView)
}

// ProgressStore remembers where a book was left.
type ProgressStore interface {
	Get(ctx context.Context, bookID string) (Progress, error)
	Set(ctx context.Context, bookID string, p Progress) error
}

// Progress is a saved reading position.
type Progress struct {
	Page        int     `json:"page"`
	Fraction    float64 `json:"fraction"`
	ContentHash string  `json:"content_hash"`
}

// Options configure a Workbench.
type Options struct {
	PageSize  int
	Width     int
	CacheSize int
	Margin    int
	MinDelta  int
	Now       func() time.Time
	Logger    zerolog.Logger
}

type viewKey struct {
	page  int
	width int
}

// Workbench is an open book and the state of both panes.
type Workbench struct {
	log      zerolog.Logger
	pageSize int
	width    int

	book      book.Book
	text      codeunit.Text
	hash      string
	pages     []paginate.Page
	notes     []book.Note
	bookmarks []book.Bookmark

	ctrl  *paginate.Controller
	cache *lru.Cache[viewKey, *PageView]
	view  *PageView

	bookPane  BookPane
	notesPane scroll.Pane
	coord     *scroll.Coordinator
	nav       *navigator.Navigator
	sync      *panesync.Controller

	selection *selection.Selection
}

// New creates an empty Workbench over the two panes.
func New(bookPane BookPane, notesPane scroll.Pane, opts Options) (*Workbench, error) {
	if opts.PageSize < 1 {
		opts.PageSize = paginate.DefaultPageSize
	}
	if opts.CacheSize < 1 {
		opts.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[viewKey, *PageView](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("page cache: %w", err)
	}

	w := &Workbench{
		log:       opts.Logger,
		pageSize:  opts.PageSize,
		width:     max(opts.Width, 1),
		ctrl:      paginate.NewController(0),
		cache:     cache,
		bookPane:  bookPane,
		notesPane: notesPane,
		coord:     scroll.NewCoordinator(opts.Now),
	}
	w.nav = navigator.New(w, w.coord, navigator.Options{Margin: opts.Margin})
	w.sync = panesync.New(w.coord, bookPane, notesPane, panesync.Options{MinDelta: opts.MinDelta})
	return w, nil
}

// Content is everything fetched for a book.
type Content struct {
	Book      book.Book
	Notes     []book.Note
	Bookmarks []book.Bookmark
}

// Fetch loads a book and its anchors. A book that cannot be read yet is
// returned together with its ErrIncomplete or ErrUnavailable error so the
// caller can show its status.
func Fetch(ctx context.Context, backend book.Backend, id string) (Content, error) {
	b, err := backend.Book(ctx, id)
	if err != nil {
		return Content{}, err
	}
	if err := b.Check(); err != nil {
		return Content{Book: b}, err
	}

	notes, err := backend.Notes(ctx, id)
	if err != nil {
		return Content{Book: b}, fmt.Errorf("load notes: %w", err)
	}

	bookmarks, err := backend.Bookmarks(ctx, id)
	if err != nil {
		return Content{Book: b}, fmt.Errorf("load bookmarks: %w", err)
	}

	return Content{Book: b, Notes: notes, Bookmarks: bookmarks}, nil
}

// Open paginates c and shows its first page. A jump requested before Open
// is resolved against the new pages.
func (w *Workbench) Open(c Content) error {
	if err := c.Book.Check(); err != nil {
		return err
	}

	w.cache.Purge()
	w.view = nil
	w.selection = nil

	w.book = c.Book
	w.notes = c.Notes
	w.bookmarks = c.Bookmarks
	w.text = codeunit.NewText(c.Book.Markdown)
	w.hash = book.ContentHash(c.Book.Markdown)
	w.pages = paginate.Paginate(w.text, w.pageSize)
	w.ctrl.SetTotal(len(w.pages))
	if !w.nav.Pending() {
		w.ctrl.First()
	}

	w.log.Info().
		Str("book_id", c.Book.ID).
		Int("length", w.text.Len()).
		Int("pages", len(w.pages)).
		Msg("book opened")

	if w.nav.Pending() {
		if err := w.nav.PagesReady(); err != nil {
			w.log.Warn().Err(err).Msg("pending jump could not be resolved")
		}
	}

	if w.view == nil || w.view.Number() != w.ctrl.Current() {
		w.materialize()
	}
	return nil
}

// Restore moves to a saved position unless a jump is pending or the content
// changed since it was saved.
func (w *Workbench) Restore(p Progress) {
	if w.nav.Pending() || p.ContentHash != w.hash || p.Page < 1 {
		return
	}
	w.GoTo(p.Page)
	w.coord.Write(w.bookPane, scroll.TopFor(w.bookPane, p.Fraction), scroll.PageHold)
}

// Progress returns the current reading position.
func (w *Workbench) Progress() Progress {
	return Progress{
		Page:        w.ctrl.Current(),
		Fraction:    scroll.RoundFraction(scroll.Fraction(w.bookPane)),
		ContentHash: w.hash,
	}
}

// Book returns the open book.
func (w *Workbench) Book() book.Book { return w.book }

// Loaded reports whether a book is open.
func (w *Workbench) Loaded() bool { return len(w.pages) > 0 }

// Hash returns the content hash of the open book.
func (w *Workbench) Hash() string { return w.hash }

// Pages returns the page list, nil before a book is opened.
func (w *Workbench) Pages() []paginate.Page { return w.pages }

// PageCount returns the number of pages.
func (w *Workbench) PageCount() int { return len(w.pages) }

// TextLen returns the document length in code units.
func (w *Workbench) TextLen() int { return w.text.Len() }

// PageSize returns the target page size.
func (w *Workbench) PageSize() int { return w.pageSize }

// CurrentPage returns the 1-based current page.
func (w *Workbench) CurrentPage() int { return w.ctrl.Current() }

// Coordinator returns the shared scroll coordinator.
func (w *Workbench) Coordinator() *scroll.Coordinator { return w.coord }

// Navigator returns the anchor navigator.
func (w *Workbench) Navigator() *navigator.Navigator { return w.nav }

// CurrentView returns the materialized current page, or nil.
func (w *Workbench) CurrentView() *PageView { return w.view }

// View returns the current page for the navigator.
func (w *Workbench) View() navigator.View {
	if w.view == nil {
		return nil
	}
	return w.view
}

// SetPage changes the page on behalf of the navigator. The pane keeps its
// position; the navigator places it once the page is shown.
func (w *Workbench) SetPage(k int) {
	w.ctrl.GoTo(k)
	if len(w.pages) == 0 {
		return
	}
	w.materialize()
}

// Next moves one page forward.
func (w *Workbench) Next() bool { return w.userMove(w.ctrl.Next) }

// Previous moves one page back.
func (w *Workbench) Previous() bool { return w.userMove(w.ctrl.Previous) }

// First moves to page 1.
func (w *Workbench) First() bool { return w.userMove(w.ctrl.First) }

// Last moves to the final page.
func (w *Workbench) Last() bool { return w.userMove(w.ctrl.Last) }

// GoTo moves to page k, clamped to the page range.
func (w *Workbench) GoTo(k int) bool {
	return w.userMove(func() bool { return w.ctrl.GoTo(k) })
}

func (w *Workbench) userMove(move func() bool) bool {
	w.nav.Cancel()
	if !move() {
		return false
	}
	w.selection = nil
	w.materialize()
	return true
}

// materialize shows the current page and, unless the navigator is waiting
// for it, snaps the pane to the top.
func (w *Workbench) materialize() {
	k := w.ctrl.Current()
	if k < 1 || k > len(w.pages) {
		return
	}

	key := viewKey{page: k, width: w.width}
	v, ok := w.cache.Get(key)
	if !ok {
		p := w.pages[k-1]
		var err error
		v, err = newPageView(k, p, w.text.Slice(p.Start, p.End), w.width, w.bookPane)
		if err != nil {
			w.log.Error().Err(err).Int("page", k).Msg("failed to render page")
			return
		}
		w.cache.Add(key, v)
	}

	w.view = v
	w.bookPane.Show(v)

	if w.nav.Pending() {
		w.nav.PageMaterialized(v)
		return
	}
	w.coord.Write(w.bookPane, 0, scroll.PageHold)
}

// Resize lays the book out at a new width, keeping the current fraction.
func (w *Workbench) Resize(width int) {
	width = max(width, 1)
	if width == w.width {
		return
	}
	w.width = width
	if w.view == nil {
		return
	}

	f := scroll.Fraction(w.bookPane)
	w.nav.Cancel()
	w.selection = nil

	key := viewKey{page: w.ctrl.Current(), width: width}
	v, ok := w.cache.Get(key)
	if !ok {
		p := w.pages[w.ctrl.Current()-1]
		var err error
		v, err = newPageView(key.page, p, w.text.Slice(p.Start, p.End), width, w.bookPane)
		if err != nil {
			w.log.Error().Err(err).Msg("failed to render page")
			return
		}
		w.cache.Add(key, v)
	}
	w.view = v
	w.bookPane.Show(v)
	w.coord.Write(w.bookPane, scroll.TopFor(w.bookPane, f), scroll.PageHold)
}

// Select resolves a range on the current page into the pending selection.
// Null selections clear the pending one and return
// selection.ErrNullSelection.
func (w *Workbench) Select(rng dom.Range) (selection.Selection, error) {
	if w.view == nil {
		return selection.Selection{}, ErrNoBook
	}

	sel, err := selection.Resolve(w.view.Root(), rng, w.view.Range(), w.view.Segments(), w.bookPane)
	if err != nil {
		w.selection = nil
		w.log.Debug().Err(err).Msg("selection ignored")
		return selection.Selection{}, err
	}

	w.selection = &sel
	return sel, nil
}

// PendingSelection returns the selection a note would be anchored to.
func (w *Workbench) PendingSelection() (selection.Selection, bool) {
	if w.selection == nil {
		return selection.Selection{}, false
	}
	return *w.selection, true
}

// ClearSelection drops the pending selection.
func (w *Workbench) ClearSelection() {
	w.selection = nil
}

// NoteDraft builds a note from the pending selection. ok is false without
// one.
func (w *Workbench) NoteDraft(content string) (book.NewNote, bool) {
	if w.selection == nil {
		return book.NewNote{}, false
	}

	sel := *w.selection
	offset := sel.GlobalOffset
	fraction := scroll.RoundFraction(sel.ScrollFraction)
	return book.NewNote{
		BookID:           w.book.ID,
		Content:          content,
		SourceText:       sel.SourceText,
		ScrollPercentage: &fraction,
		GlobalOffset:     &offset,
		ContentHash:      w.hash,
	}, true
}

// BookmarkDraft builds a bookmark at the current page and scroll position.
func (w *Workbench) BookmarkDraft(name string) (book.NewBookmark, error) {
	if w.view == nil {
		return book.NewBookmark{}, ErrNoBook
	}

	offset := w.view.Range().Start
	return book.NewBookmark{
		BookID:           w.book.ID,
		Name:             name,
		PageNumber:       w.ctrl.Current(),
		ScrollPercentage: scroll.RoundFraction(scroll.Fraction(w.bookPane)),
		GlobalOffset:     &offset,
		ContentHash:      w.hash,
	}, nil
}

// NoteSaved records a persisted note and clears the selection it came from.
func (w *Workbench) NoteSaved(n book.Note) {
	w.notes = append(w.notes, n)
	w.selection = nil
}

// BookmarkSaved records a persisted bookmark.
func (w *Workbench) BookmarkSaved(b book.Bookmark) {
	w.bookmarks = append(w.bookmarks, b)
}

// BookmarkDeleted forgets a bookmark.
func (w *Workbench) BookmarkDeleted(id string) {
	for i, b := range w.bookmarks {
		if b.ID == id {
			w.bookmarks = append(w.bookmarks[:i], w.bookmarks[i+1:]...)
			return
		}
	}
}

// BookmarkRenamed updates a bookmark's name.
func (w *Workbench) BookmarkRenamed(b book.Bookmark) {
	for i := range w.bookmarks {
		if w.bookmarks[i].ID == b.ID {
			w.bookmarks[i].Name = b.Name
			return
		}
	}
}

// Anchors returns notes and bookmarks in creation order.
func (w *Workbench) Anchors() []book.Anchor {
	return book.Anchors(w.notes, w.bookmarks)
}

// Resolvable reports whether a can be followed in the open book.
func (w *Workbench) Resolvable(a book.Anchor) bool {
	if !a.Resolvable(w.text.Len(), w.hash) {
		return false
	}
	if a.Kind == book.KindBookmark {
		return a.Bookmark.PageNumber >= 1 && a.Bookmark.PageNumber <= len(w.pages)
	}
	return true
}

// Jump follows an anchor. Notes jump to their offset; bookmarks to their
// page and scroll fraction.
func (w *Workbench) Jump(a book.Anchor) error {
	if !w.Resolvable(a) {
		return book.ErrAnchorUnresolvable
	}

	w.selection = nil
	if a.Kind == book.KindBookmark {
		return w.nav.Navigate(navigator.ToBookmark(a.Bookmark.PageNumber, a.Bookmark.ScrollPercentage))
	}

	g, _ := a.Offset()
	return w.nav.Navigate(navigator.ToOffset(g))
}

// JumpToOffset follows a raw global offset, such as a deep link. It may be
// called before Open.
func (w *Workbench) JumpToOffset(g int) error {
	w.selection = nil
	return w.nav.Navigate(navigator.ToOffset(g))
}

// Tick advances time based effects. It reports whether the page needs to be
// redrawn.
func (w *Workbench) Tick() bool {
	if !w.nav.Flashing() {
		return false
	}
	w.nav.Tick()
	return true
}

// FlashLevel returns the fade level of the jump highlight.
func (w *Workbench) FlashLevel() int { return w.nav.FlashLevel() }

// Flashing reports whether a jump highlight is shown.
func (w *Workbench) Flashing() bool { return w.nav.Flashing() }

// Scrolled reports a scroll of one pane. It returns a tag to pass to
// FireSync after panesync.Debounce.
func (w *Workbench) Scrolled(side panesync.Side) (uint64, bool) {
	return w.sync.Scrolled(side)
}

// FireSync mirrors a debounced scroll. It reports whether a pane moved.
func (w *Workbench) FireSync(tag uint64) bool {
	return w.sync.Fire(tag)
}
