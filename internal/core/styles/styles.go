// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// FlashLevels is the number of fade steps of the jump highlight.
const FlashLevels = 5

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	CommandStyle       lipgloss.Style
	DividerStyle       lipgloss.Style
	MutedStyle         lipgloss.Style
	ErrorStyle         lipgloss.Style
	SuccessStyle       lipgloss.Style
	WarningStyle       lipgloss.Style

	// Panes.
	PaneStyle        lipgloss.Style
	PaneFocusedStyle lipgloss.Style
	PaneTitleStyle   lipgloss.Style
	StatusBarStyle   lipgloss.Style
	StatusKeyStyle   lipgloss.Style

	// Book text.
	HeadingStyle   lipgloss.Style
	BoldStyle      lipgloss.Style
	ItalicStyle    lipgloss.Style
	CodeStyle      lipgloss.Style
	LinkStyle      lipgloss.Style
	QuoteStyle     lipgloss.Style
	ImageStyle     lipgloss.Style
	RuleStyle      lipgloss.Style
	SelectionStyle lipgloss.Style
	CaretStyle     lipgloss.Style

	// Notes pane.
	NoteStyle         lipgloss.Style
	NoteSelectedStyle lipgloss.Style
	NoteQuoteStyle    lipgloss.Style
	NoteMetaStyle     lipgloss.Style
	UnresolvedStyle   lipgloss.Style

	// Modals.
	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
	ModalHelpStyle  lipgloss.Style
	FormErrorStyle  lipgloss.Style

	flashStyles [FlashLevels + 1]lipgloss.Style
)

func init() {
	SetTheme(themes[ThemeDark])
}

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	CommandStyle = lipgloss.NewStyle().
		Foreground(p.Foreground)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)

	PaneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface)
	PaneFocusedStyle = PaneStyle.
		BorderForeground(p.Primary)
	PaneTitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Background(p.Surface).
		Padding(0, 1)
	StatusKeyStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Primary).
		Bold(true).
		Padding(0, 1)

	HeadingStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	BoldStyle = lipgloss.NewStyle().Bold(true)
	ItalicStyle = lipgloss.NewStyle().Italic(true)
	CodeStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	LinkStyle = lipgloss.NewStyle().Foreground(p.Secondary).Underline(true)
	QuoteStyle = lipgloss.NewStyle().Foreground(p.Muted).Italic(true)
	ImageStyle = lipgloss.NewStyle().Foreground(p.Muted).Italic(true)
	RuleStyle = lipgloss.NewStyle().Foreground(p.Muted)
	SelectionStyle = lipgloss.NewStyle().Background(p.Surface).Foreground(p.Foreground)
	CaretStyle = lipgloss.NewStyle().Reverse(true)

	NoteStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(p.Surface).
		PaddingLeft(1)
	NoteSelectedStyle = NoteStyle.
		BorderForeground(p.Primary)
	NoteQuoteStyle = lipgloss.NewStyle().Foreground(p.Muted).Italic(true)
	NoteMetaStyle = lipgloss.NewStyle().Foreground(p.Muted)
	UnresolvedStyle = lipgloss.NewStyle().Foreground(p.Warning)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Foreground)
	ModalHelpStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)
	FormErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error)

	for level := range flashStyles {
		flashStyles[level] = lipgloss.NewStyle().
			Background(FlashColor(level)).
			Foreground(p.Background)
	}
	flashStyles[0] = lipgloss.NewStyle()
}

// FlashColor returns the highlight color at a fade level. Level FlashLevels
// is the full highlight and lower levels blend toward the background.
func FlashColor(level int) lipgloss.Color {
	level = min(max(level, 0), FlashLevels)
	switch level {
	case FlashLevels:
		return CurrentPalette.Highlight
	case 0:
		return CurrentPalette.Background
	}

	hi, err := colorful.Hex(string(CurrentPalette.Highlight))
	if err != nil {
		return CurrentPalette.Highlight
	}
	bg, err := colorful.Hex(string(CurrentPalette.Background))
	if err != nil {
		return CurrentPalette.Highlight
	}

	t := float64(FlashLevels-level) / float64(FlashLevels)
	return lipgloss.Color(hi.BlendLab(bg, t).Clamped().Hex())
}

// FlashStyle returns the style of the jump highlight at a fade level. Level 0
// is unstyled.
func FlashStyle(level int) lipgloss.Style {
	return flashStyles[min(max(level, 0), FlashLevels)]
}

func colorPtr(c lipgloss.Color) *string {
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	if !lipgloss.HasDarkBackground() {
		cfg = glamourstyles.LightStyleConfig
	}

	p := CurrentPalette
	fg := colorPtr(p.Foreground)
	primary := colorPtr(p.Primary)
	secondary := colorPtr(p.Secondary)
	muted := colorPtr(p.Muted)

	// notes are rendered inside a bordered card
	var zero uint
	cfg.Document.Margin = &zero
	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = primary
	cfg.H1.BackgroundColor = nil
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}
