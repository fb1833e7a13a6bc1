package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/marginalia/internal/core/scroll"
	"github.com/colonyops/marginalia/internal/core/styles"
	"github.com/colonyops/marginalia/internal/tui/components"
)

// View renders the screen.
func (m Model) View() string {
	switch {
	case m.prompt != nil:
		return components.Center(m.prompt.View(), m.width, m.height)
	case m.confirm != nil:
		return components.Center(m.confirm.View(), m.width, m.height)
	case m.showHelp:
		return components.Center(components.NewHelpDialog(m.keys.helpSections()).View(), m.width, m.height)
	}

	if m.state != stateReady {
		return components.Center(m.stateView(), m.width, m.height)
	}

	bookW, notesW, innerH := m.paneSizes()

	bookTitle := fmt.Sprintf("%s %s · page %d of %d", styles.IconBook, m.title, m.wb.CurrentPage(), m.wb.PageCount())
	bookBody := m.bookPane.Render(m.wb.FlashLevel())
	bookPane := m.paneStyle(focusBook).
		Width(bookW - 2).
		Height(innerH + 1).
		Render(styles.PaneTitleStyle.Render(ansi.Truncate(bookTitle, bookW-2, "…")) + "\n" + bookBody)

	notesTitle := fmt.Sprintf("%s Notes (%d)", styles.IconNote, len(m.notesPane.items))
	notesPane := m.paneStyle(focusNotes).
		Width(notesW - 2).
		Height(innerH + 1).
		Render(styles.PaneTitleStyle.Render(ansi.Truncate(notesTitle, notesW-2, "…")) + "\n" + m.notesPane.Render())

	panes := lipgloss.JoinHorizontal(lipgloss.Top, bookPane, notesPane)
	return lipgloss.JoinVertical(lipgloss.Left, panes, m.statusBar(), m.help.View(m.keys))
}

func (m Model) paneStyle(f paneFocus) lipgloss.Style {
	if m.focus == f {
		return styles.PaneFocusedStyle
	}
	return styles.PaneStyle
}

func (m Model) statusBar() string {
	mode := "READ"
	switch {
	case m.bookPane.Selecting():
		mode = "SELECT"
	case m.focus == focusNotes:
		mode = "NOTES"
	}

	right := fmt.Sprintf("%d%%", int(scroll.Fraction(m.bookPane)*100+0.5))

	msg := m.status
	switch {
	case msg == "":
	case m.statusErr:
		msg = styles.ErrorStyle.Render(msg)
	default:
		msg = styles.SuccessStyle.Render(msg)
	}

	left := styles.StatusKeyStyle.Render(mode) + " " + msg
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.StatusBarStyle.Width(m.width).Render(left + components.Pad(gap) + right)
}

func (m Model) stateView() string {
	var title, body string

	switch m.state {
	case stateLoading:
		return m.spinner.View() + " Loading book..."
	case stateProcessing:
		return lipgloss.JoinVertical(lipgloss.Center,
			m.spinner.View()+" This book is still being converted.",
			styles.MutedStyle.Render(fmt.Sprintf("Checking again every %s.", pollInterval)),
		)
	case stateNotFound:
		title, body = "Book not found", "It may have been deleted."
	case stateUnauthenticated:
		title, body = "Not signed in", "Your session has expired. Sign in again and press R to reload."
	case stateEmpty:
		title, body = "Nothing to read", "This book has no readable content."
	default:
		title = "Could not load this book"
		if m.err != nil {
			body = m.err.Error()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		styles.ErrorStyle.Bold(true).Render(title),
		body,
		"",
		styles.MutedStyle.Render("R reload · q quit"),
	)
}

// Run starts the reader and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if opts.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}

	m, err := New(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, progOpts...)
	_, err = p.Run()
	return err
}
