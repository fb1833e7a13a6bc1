package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, ModeRemote, cfg.Backend.Mode)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5000, cfg.Reader.PageSize)
	assert.Equal(t, 2, cfg.Reader.JumpMargin)
	assert.Equal(t, []string{"**/*.md"}, cfg.Library.Patterns)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Reader, cfg.Reader)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, `
backend:
  mode: local
  timeout: 5s
library:
  dir: /books
reader:
  page_size: 2000
tui:
  theme: light
`))

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Backend.Mode)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "/books", cfg.Library.Dir)
	assert.Equal(t, 2000, cfg.Reader.PageSize)
	assert.Equal(t, ThemeLight, cfg.TUI.Theme)
	// untouched sections keep their defaults
	assert.Equal(t, 8, cfg.Reader.CacheSize)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, "reader: [unclosed"))

	_, err := Load(path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, writeTestFile(path, "reader:\n  page_size: 10\n"))

	_, err := Load(path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"no data dir", func(c *Config) { c.DataDir = "" }, "data directory"},
		{"bad mode", func(c *Config) { c.Backend.Mode = "ftp" }, "backend.mode"},
		{"remote without url", func(c *Config) { c.Backend.URL = "" }, "backend.url"},
		{"local without dir", func(c *Config) { c.Backend.Mode = ModeLocal }, "library.dir"},
		{"negative margin", func(c *Config) { c.Reader.JumpMargin = -1 }, "jump_margin"},
		{"negative min delta", func(c *Config) { c.Reader.MinDelta = -1 }, "min_delta"},
		{"zero cache", func(c *Config) { c.Reader.CacheSize = 0 }, "cache_size"},
		{"bad theme", func(c *Config) { c.TUI.Theme = "neon" }, "tui.theme"},
		{"notes too wide", func(c *Config) { c.TUI.NotesWidth = 95 }, "notes_width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = "/tmp/marginalia"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Backend.Token = "secret"
	cfg.Reader.PageSize = 3000
	require.NoError(t, cfg.Write(path))

	got, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Backend.Token)
	assert.Equal(t, 3000, got.Reader.PageSize)
	assert.Equal(t, cfg.Backend.Timeout, got.Backend.Timeout)
}

func TestModeIsValid(t *testing.T) {
	assert.True(t, ModeRemote.IsValid())
	assert.True(t, ModeLocal.IsValid())
	assert.False(t, Mode("").IsValid())
	assert.False(t, Mode("REMOTE").IsValid())
}
