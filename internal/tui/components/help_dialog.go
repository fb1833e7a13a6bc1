package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/marginalia/internal/core/styles"
)

// HelpSection groups related bindings under a title.
type HelpSection struct {
	Title    string
	Bindings []key.Binding
}

// HelpDialog displays all available keyboard shortcuts.
type HelpDialog struct {
	sections []HelpSection
}

// NewHelpDialog creates a help dialog.
func NewHelpDialog(sections []HelpSection) *HelpDialog {
	return &HelpDialog{sections: sections}
}

// View renders the help dialog.
func (h *HelpDialog) View() string {
	var lines []string
	for i, section := range h.sections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, styles.PaneTitleStyle.Render(section.Title))

		for _, b := range section.Bindings {
			if !b.Enabled() {
				continue
			}
			lines = append(lines, formatKeyDesc(b.Help().Key, b.Help().Desc))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Keys"),
		"",
		strings.Join(lines, "\n"),
		styles.ModalHelpStyle.Render("esc/? close"),
	)
	return styles.ModalStyle.Render(content)
}

func formatKeyDesc(k, desc string) string {
	const keyWidth = 14
	return styles.StatusKeyStyle.UnsetBackground().Render(k+Pad(keyWidth-lipgloss.Width(k))) + desc
}
