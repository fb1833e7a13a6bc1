package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeNames(t *testing.T) {
	assert.Equal(t, []string{ThemeDark, ThemeLight}, ThemeNames())
}

func TestResolve(t *testing.T) {
	dark, ok := GetPalette(ThemeDark)
	require.True(t, ok)

	assert.Equal(t, dark, Resolve(ThemeDark))
	assert.Equal(t, dark, Resolve("unknown"))

	light, _ := GetPalette(ThemeLight)
	assert.Equal(t, light, Resolve(ThemeLight))
}

func TestFlashColor_Fades(t *testing.T) {
	SetTheme(themes[ThemeDark])
	t.Cleanup(func() { SetTheme(themes[ThemeDark]) })

	assert.Equal(t, "#e0af68", string(FlashColor(FlashLevels)))
	assert.Equal(t, "#1a1b26", string(FlashColor(0)))
	assert.Equal(t, FlashColor(FlashLevels), FlashColor(FlashLevels+3))

	seen := map[string]bool{}
	for level := 0; level <= FlashLevels; level++ {
		seen[string(FlashColor(level))] = true
	}
	assert.Len(t, seen, FlashLevels+1)
}

func TestGlamourStyle_UsesPalette(t *testing.T) {
	SetTheme(themes[ThemeLight])
	t.Cleanup(func() { SetTheme(themes[ThemeDark]) })

	cfg := GlamourStyle()
	require.NotNil(t, cfg.Link.Color)
	assert.Equal(t, string(themes[ThemeLight].Secondary), *cfg.Link.Color)
	require.NotNil(t, cfg.Document.Margin)
	assert.Zero(t, *cfg.Document.Margin)
}
