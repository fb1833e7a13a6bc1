package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/colonyops/marginalia/internal/tui/components"
)

// KeyMap holds every binding of the reader.
type KeyMap struct {
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding
	GoTo      key.Binding

	Down     key.Binding
	Up       key.Binding
	HalfDown key.Binding
	HalfUp   key.Binding
	Left     key.Binding
	Right    key.Binding

	Visual   key.Binding
	Note     key.Binding
	Bookmark key.Binding
	Activate key.Binding
	Delete   key.Binding
	Rename   key.Binding
	Focus    key.Binding
	Cancel   key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextPage:  key.NewBinding(key.WithKeys("L", "pgdown", "]"), key.WithHelp("L/]", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("H", "pgup", "["), key.WithHelp("H/[", "previous page")),
		FirstPage: key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first page")),
		LastPage:  key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last page")),
		GoTo:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to page")),

		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		HalfDown: key.NewBinding(key.WithKeys("ctrl+d", " "), key.WithHelp("ctrl+d", "half page down")),
		HalfUp:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "half page up")),
		Left:     key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "caret left")),
		Right:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "caret right")),

		Visual:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "select text")),
		Note:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "note on selection")),
		Bookmark: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmark here")),
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "jump to anchor")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete bookmark")),
		Rename:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename bookmark")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Reload:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.Visual, k.Note, k.Bookmark, k.Focus, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextPage, k.PrevPage, k.FirstPage, k.LastPage, k.GoTo},
		{k.Down, k.Up, k.HalfDown, k.HalfUp},
		{k.Visual, k.Note, k.Bookmark, k.Cancel},
		{k.Activate, k.Delete, k.Rename, k.Focus, k.Reload, k.Quit},
	}
}

func (k KeyMap) helpSections() []components.HelpSection {
	full := k.FullHelp()
	titles := []string{"Pages", "Scrolling", "Selection", "Anchors"}

	sections := make([]components.HelpSection, len(full))
	for i, group := range full {
		sections[i] = components.HelpSection{Title: titles[i], Bindings: group}
	}
	return sections
}
