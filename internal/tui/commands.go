package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/logging"
	"github.com/colonyops/marginalia/internal/core/reader"
)

type loadedMsg struct {
	content     reader.Content
	progress    reader.Progress
	hasProgress bool
	err         error
}

type noteSavedMsg struct {
	note book.Note
	err  error
}

type bookmarkSavedMsg struct {
	bookmark book.Bookmark
	err      error
}

type bookmarkDeletedMsg struct {
	id  string
	err error
}

type bookmarkRenamedMsg struct {
	bookmark book.Bookmark
	err      error
}

type syncMsg struct{ tag uint64 }

type flashMsg struct{}

type pollMsg struct{}

type statusClearMsg struct{ seq int }

func (m Model) fetchCmd() tea.Cmd {
	backend, id, progress := m.backend, m.bookID, m.opts.Progress
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		c, err := reader.Fetch(ctx, backend, id)
		msg := loadedMsg{content: c, err: err}
		if err != nil || progress == nil {
			return msg
		}

		p, err := progress.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("book_id", id).Msg("failed to load reading progress")
			return msg
		}
		msg.progress, msg.hasProgress = p, true
		return msg
	}
}

func (m Model) createNoteCmd(n book.NewNote) tea.Cmd {
	backend, log := m.backend, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		saved, err := backend.CreateNote(ctx, n)
		if err != nil {
			log.Error().Err(err).Msg("failed to save note")
		}
		return noteSavedMsg{note: saved, err: err}
	}
}

func (m Model) createBookmarkCmd(b book.NewBookmark) tea.Cmd {
	backend, log := m.backend, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		saved, err := backend.CreateBookmark(ctx, b)
		if err != nil {
			log.Error().Err(err).Msg("failed to save bookmark")
		}
		return bookmarkSavedMsg{bookmark: saved, err: err}
	}
}

func (m Model) deleteBookmarkCmd(id string) tea.Cmd {
	backend, log := m.backend, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(logging.WithAnchorID(context.Background(), id), saveTimeout)
		defer cancel()
		err := backend.DeleteBookmark(ctx, id)
		if err != nil {
			log.Error().Ctx(ctx).Err(err).Msg("failed to delete bookmark")
		}
		return bookmarkDeletedMsg{id: id, err: err}
	}
}

func (m Model) renameBookmarkCmd(id, name string) tea.Cmd {
	backend, log := m.backend, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(logging.WithAnchorID(context.Background(), id), saveTimeout)
		defer cancel()
		b, err := backend.RenameBookmark(ctx, id, name)
		if err != nil {
			log.Error().Ctx(ctx).Err(err).Msg("failed to rename bookmark")
		}
		return bookmarkRenamedMsg{bookmark: b, err: err}
	}
}

// saveProgressCmd stores the reading position. Failures are logged only.
func (m Model) saveProgressCmd() tea.Cmd {
	store := m.opts.Progress
	if store == nil || !m.wb.Loaded() {
		return nil
	}
	id, p, log := m.bookID, m.wb.Progress(), m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := store.Set(ctx, id, p); err != nil {
			log.Warn().Err(err).Str("book_id", id).Msg("failed to save reading progress")
		}
		return nil
	}
}

func syncCmd(tag uint64) tea.Cmd {
	return tea.Tick(syncDelay, func(time.Time) tea.Msg { return syncMsg{tag: tag} })
}

func flashCmd() tea.Cmd {
	return tea.Tick(flashInterval, func(time.Time) tea.Msg { return flashMsg{} })
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func statusClearCmd(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

// classify maps a load error onto the screen that explains it.
func classify(c reader.Content, err error) UIState {
	switch {
	case err == nil:
		return stateReady
	case errors.Is(err, book.ErrNotFound):
		return stateNotFound
	case errors.Is(err, book.ErrUnauthenticated):
		return stateUnauthenticated
	case errors.Is(err, book.ErrIncomplete):
		if c.Book.Status == book.StatusCompleted {
			return stateEmpty
		}
		return stateProcessing
	default:
		return stateError
	}
}
