package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/logging"
	"github.com/colonyops/marginalia/internal/core/panesync"
	"github.com/colonyops/marginalia/internal/core/selection"
	"github.com/colonyops/marginalia/internal/tui/components"
)

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case spinner.TickMsg:
		if m.state == stateLoading || m.state == stateProcessing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case loadedMsg:
		cmds = append(cmds, m.handleLoaded(msg))

	case pollMsg:
		if m.state == stateProcessing {
			cmds = append(cmds, m.fetchCmd())
		}

	case syncMsg:
		m.wb.FireSync(msg.tag)

	case flashMsg:
		m.wb.Tick()
		m.flashTicking = m.wb.Flashing()
		if m.flashTicking {
			cmds = append(cmds, flashCmd())
		}

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status, m.statusErr = "", false
		}

	case noteSavedMsg:
		cmds = append(cmds, m.handleNoteSaved(msg))

	case bookmarkSavedMsg:
		cmds = append(cmds, m.handleBookmarkSaved(msg))

	case bookmarkDeletedMsg:
		cmds = append(cmds, m.handleBookmarkDeleted(msg))

	case bookmarkRenamedMsg:
		cmds = append(cmds, m.handleBookmarkRenamed(msg))

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))
	}

	cmds = append(cmds, m.afterUpdate()...)
	return m, tea.Batch(cmds...)
}

// afterUpdate turns pane movement into scroll events and keeps the
// highlight fading.
func (m *Model) afterUpdate() []tea.Cmd {
	var cmds []tea.Cmd

	if m.bookPane.TakeMoved() {
		if tag, ok := m.wb.Scrolled(panesync.Book); ok {
			cmds = append(cmds, syncCmd(tag))
		}
	}
	if m.notesPane.TakeMoved() {
		if tag, ok := m.wb.Scrolled(panesync.Notes); ok {
			cmds = append(cmds, syncCmd(tag))
		}
	}

	if m.wb.Flashing() && !m.flashTicking {
		m.flashTicking = true
		cmds = append(cmds, flashCmd())
	}
	return cmds
}

func (m *Model) handleLoaded(msg loadedMsg) tea.Cmd {
	m.state = classify(msg.content, msg.err)
	m.err = msg.err
	if msg.content.Book.Title != "" {
		m.title = msg.content.Book.Title
	}

	switch m.state {
	case stateProcessing:
		return tea.Batch(pollCmd(), m.spinner.Tick)
	case stateReady:
	default:
		m.log.Warn().Err(msg.err).Str("book_id", m.bookID).Stringer("state", m.state).Msg("book not readable")
		return nil
	}

	if err := m.wb.Open(msg.content); err != nil {
		m.state, m.err = stateError, err
		return nil
	}

	switch {
	case m.resume != nil:
		m.wb.Restore(*m.resume)
		m.resume = nil
	case m.opts.Offset != nil:
	case m.opts.Page > 0:
		m.wb.GoTo(m.opts.Page)
	case msg.hasProgress:
		m.wb.Restore(msg.progress)
	}
	m.opts.Offset, m.opts.Page = nil, 0

	m.refreshAnchors()
	m.notesPane.TakeMoved()
	return nil
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status, m.statusErr = text, isErr
	return statusClearCmd(m.statusSeq)
}

func (m *Model) closePrompt() {
	m.prompt = nil
	m.promptKind = promptNone
	m.promptID = ""
}

func (m *Model) clearSelection() {
	m.bookPane.CancelSelection()
	m.wb.ClearSelection()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}

	if m.confirm != nil {
		c, _ := m.confirm.Update(msg)
		m.confirm = &c
		switch {
		case c.Confirmed():
			id := m.confirmID
			m.confirm, m.confirmID = nil, ""
			return m.deleteBookmarkCmd(id)
		case c.Cancelled():
			m.confirm, m.confirmID = nil, ""
		}
		return nil
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Cancel, m.keys.Quit) {
			m.showHelp = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Sequence(m.saveProgressCmd(), tea.Quit)
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return nil
	case key.Matches(msg, m.keys.Reload):
		return m.reload()
	}

	if m.state != stateReady {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Focus):
		m.clearSelection()
		if m.focus == focusBook {
			m.focus = focusNotes
		} else {
			m.focus = focusBook
		}
		return nil
	case key.Matches(msg, m.keys.Cancel):
		m.clearSelection()
		return nil
	case key.Matches(msg, m.keys.NextPage):
		m.clearSelection()
		m.wb.Next()
		return nil
	case key.Matches(msg, m.keys.PrevPage):
		m.clearSelection()
		m.wb.Previous()
		return nil
	case key.Matches(msg, m.keys.FirstPage):
		m.clearSelection()
		m.wb.First()
		return nil
	case key.Matches(msg, m.keys.LastPage):
		m.clearSelection()
		m.wb.Last()
		return nil
	case key.Matches(msg, m.keys.GoTo):
		m.openPrompt(promptGoTo, components.NewPrompt("Go to page", fmt.Sprintf("1-%d", m.wb.PageCount()), ""))
		return nil
	case key.Matches(msg, m.keys.Bookmark):
		m.openPrompt(promptBookmark, components.NewPrompt("New bookmark", "name", fmt.Sprintf("Page %d", m.wb.CurrentPage())))
		return nil
	case key.Matches(msg, m.keys.Note):
		return m.startNote()
	}

	if m.focus == focusNotes {
		return m.handleNotesKey(msg)
	}
	return m.handleBookKey(msg)
}

func (m *Model) handleBookKey(msg tea.KeyMsg) tea.Cmd {
	p := m.bookPane
	half := max(p.ClientHeight()/2, 1)

	switch {
	case key.Matches(msg, m.keys.Visual):
		if p.Selecting() {
			m.clearSelection()
		} else {
			p.StartCaret()
		}
	case key.Matches(msg, m.keys.Down):
		if p.Selecting() {
			c := p.Caret()
			m.moveCaret(cell{row: c.row + 1, col: c.col})
		} else {
			p.ScrollBy(1)
		}
	case key.Matches(msg, m.keys.Up):
		if p.Selecting() {
			c := p.Caret()
			m.moveCaret(cell{row: c.row - 1, col: c.col})
		} else {
			p.ScrollBy(-1)
		}
	case key.Matches(msg, m.keys.Left):
		if p.Selecting() {
			c := p.Caret()
			m.moveCaret(cell{row: c.row, col: c.col - 1})
		}
	case key.Matches(msg, m.keys.Right):
		if p.Selecting() {
			c := p.Caret()
			m.moveCaret(cell{row: c.row, col: c.col + 1})
		}
	case key.Matches(msg, m.keys.HalfDown):
		p.ScrollBy(half)
	case key.Matches(msg, m.keys.HalfUp):
		p.ScrollBy(-half)
	}
	return nil
}

func (m *Model) handleNotesKey(msg tea.KeyMsg) tea.Cmd {
	p := m.notesPane
	half := max(p.ClientHeight()/2, 1)

	switch {
	case key.Matches(msg, m.keys.Down):
		p.Move(1)
	case key.Matches(msg, m.keys.Up):
		p.Move(-1)
	case key.Matches(msg, m.keys.HalfDown):
		p.ScrollBy(half)
	case key.Matches(msg, m.keys.HalfUp):
		p.ScrollBy(-half)
	case key.Matches(msg, m.keys.Activate):
		if it, ok := p.Selected(); ok {
			return m.jump(it)
		}
	case key.Matches(msg, m.keys.Delete):
		b, ok := m.selectedBookmark()
		if !ok {
			return m.setStatus("only bookmarks can be deleted", true)
		}
		c := components.NewConfirmModal("Delete bookmark", fmt.Sprintf("Delete %q?", b.Name))
		m.confirm, m.confirmID = &c, b.ID
	case key.Matches(msg, m.keys.Rename):
		b, ok := m.selectedBookmark()
		if !ok {
			return m.setStatus("only bookmarks can be renamed", true)
		}
		m.openPrompt(promptRename, components.NewPrompt("Rename bookmark", "name", b.Name))
		m.promptID = b.ID
	}
	return nil
}

func (m *Model) selectedBookmark() (book.Bookmark, bool) {
	it, ok := m.notesPane.Selected()
	if !ok || it.anchor.Kind != book.KindBookmark {
		return book.Bookmark{}, false
	}
	return *it.anchor.Bookmark, true
}

func (m *Model) jump(it anchorItem) tea.Cmd {
	if !it.resolvable {
		return m.setStatus("this anchor cannot be located in the current text", true)
	}
	m.bookPane.CancelSelection()
	if err := m.wb.Jump(it.anchor); err != nil {
		ctx := logging.WithAnchorID(context.Background(), it.anchor.ID())
		m.log.Debug().Ctx(ctx).Err(err).Msg("jump failed")
		return m.setStatus(err.Error(), true)
	}
	return nil
}

func (m *Model) startNote() tea.Cmd {
	sel, ok := m.wb.PendingSelection()
	if !ok {
		if !m.bookPane.Selecting() {
			return m.setStatus("select text first (v or drag)", false)
		}
		// keyboard selections have no release, so they resolve here
		var cmd tea.Cmd
		if sel, cmd, ok = m.resolveSelection(); !ok {
			return cmd
		}
	}

	quote := strings.Join(strings.Fields(sel.SourceText), " ")
	m.openPrompt(promptNote, components.NewTextPrompt("New note", "“"+quote+"”", "Write a note (markdown)"))
	return nil
}

// resolveSelection turns the book pane's visual selection into the pending
// selection. A null selection clears both.
func (m *Model) resolveSelection() (selection.Selection, tea.Cmd, bool) {
	rng, ok := m.bookPane.Range()
	if !ok {
		m.clearSelection()
		return selection.Selection{}, nil, false
	}

	sel, err := m.wb.Select(rng)
	switch {
	case errors.Is(err, selection.ErrNullSelection):
		m.clearSelection()
		return selection.Selection{}, nil, false
	case err != nil:
		return selection.Selection{}, m.setStatus(err.Error(), true), false
	}
	return sel, nil, true
}

// moveCaret extends the visual selection. A selection resolved on mouse
// release no longer matches, so it is dropped.
func (m *Model) moveCaret(c cell) {
	m.wb.ClearSelection()
	m.bookPane.MoveCaret(c)
}

func (m *Model) openPrompt(kind promptKind, p *components.Prompt) {
	m.prompt = p
	m.promptKind = kind
	m.promptID = ""
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	cmd := m.prompt.Update(msg)

	if m.prompt.Cancelled() {
		if m.promptKind == promptNote {
			m.clearSelection()
		}
		m.closePrompt()
		return nil
	}
	if m.prompt.Submitted() {
		return m.submitPrompt()
	}
	return cmd
}

func (m *Model) submitPrompt() tea.Cmd {
	value := strings.TrimSpace(m.prompt.Value())

	switch m.promptKind {
	case promptNote:
		draft, ok := m.wb.NoteDraft(m.prompt.Value())
		if !ok {
			m.prompt.Failed("the selection was lost, select the text again")
			return nil
		}
		return m.createNoteCmd(draft)

	case promptBookmark:
		draft, err := m.wb.BookmarkDraft(value)
		if err != nil {
			m.prompt.Failed(err.Error())
			return nil
		}
		return m.createBookmarkCmd(draft)

	case promptRename:
		return m.renameBookmarkCmd(m.promptID, value)

	case promptGoTo:
		n := m.wb.PageCount()
		k, err := strconv.Atoi(value)
		if err != nil || k < 1 || k > n {
			m.prompt.Failed(fmt.Sprintf("enter a page between 1 and %d", n))
			return nil
		}
		m.closePrompt()
		m.clearSelection()
		m.wb.GoTo(k)
	}
	return nil
}

func (m *Model) handleNoteSaved(msg noteSavedMsg) tea.Cmd {
	if msg.err != nil {
		return m.saveFailed(promptNote, msg.err)
	}
	m.wb.NoteSaved(msg.note)
	m.closePrompt()
	m.bookPane.CancelSelection()
	m.refreshAnchors()
	m.selectAnchor(msg.note.ID)
	return m.setStatus("note saved", false)
}

func (m *Model) handleBookmarkSaved(msg bookmarkSavedMsg) tea.Cmd {
	if msg.err != nil {
		return m.saveFailed(promptBookmark, msg.err)
	}
	m.wb.BookmarkSaved(msg.bookmark)
	m.closePrompt()
	m.refreshAnchors()
	m.selectAnchor(msg.bookmark.ID)
	return m.setStatus("bookmark saved", false)
}

func (m *Model) handleBookmarkDeleted(msg bookmarkDeletedMsg) tea.Cmd {
	if msg.err != nil {
		return m.setStatus("delete failed: "+msg.err.Error(), true)
	}
	m.wb.BookmarkDeleted(msg.id)
	m.refreshAnchors()
	return m.setStatus("bookmark deleted", false)
}

func (m *Model) handleBookmarkRenamed(msg bookmarkRenamedMsg) tea.Cmd {
	if msg.err != nil {
		return m.saveFailed(promptRename, msg.err)
	}
	m.wb.BookmarkRenamed(msg.bookmark)
	m.closePrompt()
	m.refreshAnchors()
	return m.setStatus("bookmark renamed", false)
}

// saveFailed keeps the prompt open with the error so the input is not lost.
func (m *Model) saveFailed(kind promptKind, err error) tea.Cmd {
	if m.prompt != nil && m.promptKind == kind {
		m.prompt.Failed(err.Error())
		return nil
	}
	return m.setStatus("save failed: "+err.Error(), true)
}

func (m *Model) reload() tea.Cmd {
	if m.state == stateReady {
		p := m.wb.Progress()
		m.resume = &p
	}
	m.clearSelection()
	m.state = stateLoading
	m.err = nil
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.state != stateReady || m.prompt != nil || m.confirm != nil || m.showHelp {
		return nil
	}

	bookW, _, innerH := m.paneSizes()
	inBook := msg.X < bookW
	// border and title rows sit above the first content row
	row := msg.Y - 2

	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		delta := wheelRows
		if msg.Button == tea.MouseButtonWheelUp {
			delta = -wheelRows
		}
		if inBook {
			m.bookPane.ScrollBy(delta)
		} else {
			m.notesPane.ScrollBy(delta)
		}

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if row < 0 || row >= innerH {
			return nil
		}
		if inBook {
			m.focus = focusBook
			m.wb.ClearSelection()
			m.bookPane.StartSelection(cell{row: m.bookPane.ScrollTop() + row, col: msg.X - 1})
			m.dragging = true
			return nil
		}
		m.focus = focusNotes
		if i, ok := m.notesPane.ItemAt(row); ok {
			m.notesPane.Select(i)
			if it, ok := m.notesPane.Selected(); ok {
				return m.jump(it)
			}
		}

	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.moveCaret(cell{row: m.bookPane.ScrollTop() + row, col: max(msg.X-1, 0)})

	case msg.Action == tea.MouseActionRelease && m.dragging:
		m.dragging = false
		if m.bookPane.collapsed() {
			m.bookPane.CancelSelection()
			return nil
		}
		if _, cmd, ok := m.resolveSelection(); !ok {
			return cmd
		}
		return m.setStatus("press n to add a note", false)
	}
	return nil
}
