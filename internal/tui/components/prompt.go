package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/marginalia/internal/core/styles"
)

const promptWidth = 50

// Prompt is a modal asking for one value. Multi-line prompts submit with
// ctrl+s, single-line prompts with enter. The prompt stays open after
// submitting so a save error can be shown next to the input.
type Prompt struct {
	title     string
	context   string
	multiline bool
	input     textinput.Model
	area      textarea.Model
	err       string
	busy      bool
	submitted bool
	cancelled bool
}

// NewPrompt creates a single-line prompt.
func NewPrompt(title, placeholder, value string) *Prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Width = promptWidth - 4
	ti.PlaceholderStyle = styles.MutedStyle
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()

	return &Prompt{title: title, input: ti}
}

// NewTextPrompt creates a multi-line prompt. context is shown above the
// input, such as the quoted selection a note is attached to.
func NewTextPrompt(title, context, placeholder string) *Prompt {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetWidth(promptWidth)
	ta.SetHeight(6)
	ta.Focus()

	return &Prompt{title: title, context: context, multiline: true, area: ta}
}

// Update handles input.
func (p *Prompt) Update(msg tea.Msg) tea.Cmd {
	if p.busy {
		return nil
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case k.Type == tea.KeyEsc:
			p.cancelled = true
			return nil
		case k.Type == tea.KeyCtrlS, !p.multiline && k.Type == tea.KeyEnter:
			if strings.TrimSpace(p.Value()) == "" {
				p.err = "a value is required"
				return nil
			}
			p.submitted = true
			p.busy = true
			p.err = ""
			return nil
		}
	}

	var cmd tea.Cmd
	if p.multiline {
		p.area, cmd = p.area.Update(msg)
	} else {
		p.input, cmd = p.input.Update(msg)
	}
	return cmd
}

// View renders the prompt.
func (p *Prompt) View() string {
	parts := []string{styles.ModalTitleStyle.Render(p.title)}
	if p.context != "" {
		parts = append(parts, styles.NoteQuoteStyle.Width(promptWidth).Render(p.context))
	}

	if p.multiline {
		parts = append(parts, "", p.area.View())
	} else {
		parts = append(parts, "", p.input.View())
	}

	switch {
	case p.busy:
		parts = append(parts, styles.MutedStyle.Render("saving..."))
	case p.err != "":
		parts = append(parts, styles.FormErrorStyle.Width(promptWidth).Render(p.err))
	}

	help := "enter save  esc cancel"
	if p.multiline {
		help = "ctrl+s save  esc cancel"
	}
	parts = append(parts, styles.ModalHelpStyle.Render(help))

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// Value returns the entered text.
func (p *Prompt) Value() string {
	if p.multiline {
		return p.area.Value()
	}
	return p.input.Value()
}

// Submitted reports, once, that the user asked to save.
func (p *Prompt) Submitted() bool {
	s := p.submitted
	p.submitted = false
	return s
}

// Cancelled reports whether the user dismissed the prompt.
func (p *Prompt) Cancelled() bool {
	return p.cancelled
}

// Failed shows a save error and re-enables input.
func (p *Prompt) Failed(msg string) {
	p.busy = false
	p.err = msg
}

// Err returns the message shown under the input.
func (p *Prompt) Err() string {
	return p.err
}
