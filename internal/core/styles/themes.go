package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette. Colors are hex strings.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Highlight  lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// Theme names accepted by Resolve.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	ThemeDark: {
		Primary:    "#7aa2f7",
		Secondary:  "#7dcfff",
		Foreground: "#c0caf5",
		Muted:      "#565f89",
		Background: "#1a1b26",
		Surface:    "#3b4261",
		Highlight:  "#e0af68",
		Success:    "#9ece6a",
		Warning:    "#e0af68",
		Error:      "#f7768e",
	},
	ThemeLight: {
		Primary:    "#2e7de9",
		Secondary:  "#007197",
		Foreground: "#3760bf",
		Muted:      "#848cb5",
		Background: "#e1e2e7",
		Surface:    "#c4c8da",
		Highlight:  "#f0c674",
		Success:    "#587539",
		Warning:    "#8c6c3e",
		Error:      "#f52a65",
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// Resolve returns the palette for name. "auto" follows the terminal
// background; unknown names fall back to the dark palette.
func Resolve(name string) Palette {
	if name == ThemeAuto {
		name = ThemeLight
		if lipgloss.HasDarkBackground() {
			name = ThemeDark
		}
	}
	if p, ok := GetPalette(name); ok {
		return p
	}
	return themes[ThemeDark]
}
