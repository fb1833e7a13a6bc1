// Package tui is the terminal reading workbench: the book pane on the left,
// notes and bookmarks on the right.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/navigator"
	"github.com/colonyops/marginalia/internal/core/panesync"
	"github.com/colonyops/marginalia/internal/core/reader"
	"github.com/colonyops/marginalia/internal/core/styles"
	"github.com/colonyops/marginalia/internal/tui/components"
)

// UIState is the top-level state of the book view.
type UIState int

const (
	stateLoading UIState = iota
	stateError
	stateNotFound
	stateUnauthenticated
	stateProcessing
	stateEmpty
	stateReady
)

func (s UIState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateError:
		return "error"
	case stateNotFound:
		return "not-found"
	case stateUnauthenticated:
		return "unauthenticated"
	case stateProcessing:
		return "processing"
	case stateEmpty:
		return "empty"
	case stateReady:
		return "ready"
	default:
		return "unknown"
	}
}

type paneFocus int

const (
	focusBook paneFocus = iota
	focusNotes
)

type promptKind int

const (
	promptNone promptKind = iota
	promptNote
	promptBookmark
	promptRename
	promptGoTo
)

const (
	pollInterval  = 5 * time.Second
	statusTTL     = 4 * time.Second
	fetchTimeout  = 2 * time.Minute
	saveTimeout   = 30 * time.Second
	wheelRows     = 3
	defaultWidth  = 100
	defaultHeight = 30
)

// Options configures the reader.
type Options struct {
	Backend  book.Backend
	BookID   string
	Progress reader.ProgressStore // optional

	PageSize   int
	Margin     int
	MinDelta   int
	CacheSize  int
	NotesWidth int // percent of the screen given to the notes pane

	// Offset, when set, jumps to a global offset once the book is loaded.
	Offset *int
	// Page, when positive, opens this page instead of the saved position.
	Page int

	// Mouse enables wheel scrolling, drag selection and clicking anchors.
	Mouse bool

	Now    func() time.Time
	Logger zerolog.Logger
}

// Model is the main Bubble Tea model.
type Model struct {
	opts    Options
	backend book.Backend
	bookID  string
	log     zerolog.Logger

	wb        *reader.Workbench
	bookPane  *BookPane
	notesPane *NotesPane

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	state UIState
	err   error
	title string

	focus  paneFocus
	width  int
	height int

	prompt     *components.Prompt
	promptKind promptKind
	promptID   string
	confirm    *components.ConfirmModal
	confirmID  string
	showHelp   bool

	status    string
	statusErr bool
	statusSeq int

	flashTicking bool
	dragging     bool

	// position to return to after a reload
	resume *reader.Progress
}

// New creates the model.
func New(opts Options) (Model, error) {
	if opts.NotesWidth <= 0 || opts.NotesWidth >= 100 {
		opts.NotesWidth = 35
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	bookPane := NewBookPane(defaultWidth-defaultWidth*opts.NotesWidth/100-2, defaultHeight)
	notesPane := NewNotesPane(defaultWidth*opts.NotesWidth/100, defaultHeight)

	wb, err := reader.New(bookPane, notesPane, reader.Options{
		PageSize:  opts.PageSize,
		Width:     defaultWidth,
		CacheSize: opts.CacheSize,
		Margin:    opts.Margin,
		MinDelta:  opts.MinDelta,
		Now:       opts.Now,
		Logger:    opts.Logger,
	})
	if err != nil {
		return Model{}, err
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.PaneTitleStyle

	m := Model{
		opts:      opts,
		backend:   opts.Backend,
		bookID:    opts.BookID,
		log:       opts.Logger,
		wb:        wb,
		bookPane:  bookPane,
		notesPane: notesPane,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		state:     stateLoading,
		width:     defaultWidth,
		height:    defaultHeight,
	}

	// a deep link waits on the page estimate until the book arrives
	if opts.Offset != nil {
		if err := wb.JumpToOffset(*opts.Offset); err != nil {
			m.log.Warn().Err(err).Int("offset", *opts.Offset).Msg("deep link ignored")
		}
	}
	return m, nil
}

// Init starts loading the book.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

// State returns the top-level state.
func (m Model) State() UIState { return m.state }

// Workbench returns the reading core.
func (m Model) Workbench() *reader.Workbench { return m.wb }

func (m *Model) anchorItems() []anchorItem {
	anchors := m.wb.Anchors()
	items := make([]anchorItem, len(anchors))
	for i, a := range anchors {
		items[i] = anchorItem{anchor: a, resolvable: m.wb.Resolvable(a)}
	}
	return items
}

func (m *Model) refreshAnchors() {
	m.notesPane.SetAnchors(m.anchorItems())
}

func (m *Model) selectAnchor(id string) {
	for i, it := range m.notesPane.items {
		if it.anchor.ID() == id {
			m.notesPane.Select(i)
			return
		}
	}
}

// paneSizes returns the outer widths of both panes and the inner height
// shared by them.
func (m Model) paneSizes() (bookW, notesW, innerH int) {
	notesW = max(m.width*m.opts.NotesWidth/100, 20)
	bookW = max(m.width-notesW, 20)
	// border, title, status bar and help line
	innerH = max(m.height-5, 1)
	return bookW, notesW, innerH
}

func (m *Model) resize() {
	bookW, notesW, innerH := m.paneSizes()
	m.bookPane.SetSize(bookW-2, innerH)
	m.notesPane.SetSize(notesW-2, innerH)
	m.wb.Resize(bookW - 2)
	m.help.Width = m.width
}

var (
	syncDelay     = panesync.Debounce
	flashInterval = navigator.FlashDuration / navigator.FlashSteps
)
