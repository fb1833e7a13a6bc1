// Package config handles configuration loading and validation for marginalia.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects where books, notes and bookmarks come from.
type Mode string

const (
	// ModeRemote reads from the workbench HTTP backend.
	ModeRemote Mode = "remote"
	// ModeLocal reads Markdown files from a directory and keeps anchors in
	// the local database.
	ModeLocal Mode = "local"
)

// IsValid checks if the mode is supported.
func (m Mode) IsValid() bool {
	switch m {
	case ModeRemote, ModeLocal:
		return true
	default:
		return false
	}
}

// Supported themes.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Config holds the application configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Library  LibraryConfig  `yaml:"library"`
	Reader   ReaderConfig   `yaml:"reader"`
	TUI      TUIConfig      `yaml:"tui"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// BackendConfig configures the HTTP backend.
type BackendConfig struct {
	Mode    Mode          `yaml:"mode"`
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// LibraryConfig configures the local library.
type LibraryConfig struct {
	Dir      string   `yaml:"dir"`
	Patterns []string `yaml:"patterns"` // doublestar globs relative to Dir
}

// ReaderConfig tunes pagination and scrolling.
type ReaderConfig struct {
	PageSize   int `yaml:"page_size"`   // target page length in UTF-16 code units
	JumpMargin int `yaml:"jump_margin"` // rows kept above a jump target
	MinDelta   int `yaml:"min_delta"`   // smallest mirrored scroll worth writing
	CacheSize  int `yaml:"cache_size"`  // rendered pages kept in memory
}

// TUIConfig configures the terminal interface.
type TUIConfig struct {
	Theme      string `yaml:"theme"`
	NotesWidth int    `yaml:"notes_width"` // percent of the terminal width
	Mouse      bool   `yaml:"mouse"`
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Mode:    ModeRemote,
			URL:     "http://localhost:8000",
			Timeout: 60 * time.Second,
		},
		Library: LibraryConfig{
			Patterns: []string{"**/*.md"},
		},
		Reader: ReaderConfig{
			PageSize:   5000,
			JumpMargin: 2,
			MinDelta:   0,
			CacheSize:  8,
		},
		TUI: TUIConfig{
			Theme:      ThemeAuto,
			NotesWidth: 35,
			Mouse:      true,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Write saves the configuration as YAML, creating parent directories.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Backend.Mode == "" {
		c.Backend.Mode = defaults.Backend.Mode
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = defaults.Backend.Timeout
	}
	if len(c.Library.Patterns) == 0 {
		c.Library.Patterns = defaults.Library.Patterns
	}
	if c.Reader.PageSize == 0 {
		c.Reader.PageSize = defaults.Reader.PageSize
	}
	if c.Reader.JumpMargin == 0 {
		c.Reader.JumpMargin = defaults.Reader.JumpMargin
	}
	if c.Reader.CacheSize == 0 {
		c.Reader.CacheSize = defaults.Reader.CacheSize
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.NotesWidth == 0 {
		c.TUI.NotesWidth = defaults.TUI.NotesWidth
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if !c.Backend.Mode.IsValid() {
		return fmt.Errorf("backend.mode %q must be %q or %q", c.Backend.Mode, ModeRemote, ModeLocal)
	}

	if c.Backend.Mode == ModeRemote && c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required in remote mode")
	}

	if c.Backend.Mode == ModeLocal && c.Library.Dir == "" {
		return fmt.Errorf("library.dir is required in local mode")
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout cannot be negative")
	}

	if c.Reader.PageSize < 100 {
		return fmt.Errorf("reader.page_size must be at least 100")
	}

	if c.Reader.JumpMargin < 0 {
		return fmt.Errorf("reader.jump_margin cannot be negative")
	}

	if c.Reader.MinDelta < 0 {
		return fmt.Errorf("reader.min_delta cannot be negative")
	}

	if c.Reader.CacheSize < 1 {
		return fmt.Errorf("reader.cache_size must be at least 1")
	}

	switch c.TUI.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("tui.theme %q must be one of auto, dark, light", c.TUI.Theme)
	}

	if c.TUI.NotesWidth < 10 || c.TUI.NotesWidth > 90 {
		return fmt.Errorf("tui.notes_width must be between 10 and 90")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	return nil
}

// DatabaseDir returns the directory holding the SQLite database.
func (c *Config) DatabaseDir() string {
	return c.DataDir
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "marginalia.log")
}
