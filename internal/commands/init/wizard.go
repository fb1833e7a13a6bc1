// Package initcmd implements the first-run setup wizard.
package initcmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/colonyops/marginalia/internal/core/config"
	"github.com/colonyops/marginalia/internal/core/doctor"
	"github.com/colonyops/marginalia/internal/core/styles"
	"github.com/colonyops/marginalia/internal/printer"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	DataDir    string
	Yes        bool // skip prompts, use defaults and presets
	Force      bool // overwrite existing config

	// Presets from flags. Empty values fall back to defaults.
	Mode    config.Mode
	URL     string
	Token   string
	Library string
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	return &Wizard{opts: opts}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	p := printer.Ctx(ctx)

	if ConfigExists(w.opts.ConfigPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(w.opts.ConfigPath + "\nOverwrite? (a backup will be created)").
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	cfg := w.Defaults()
	if !w.opts.Yes {
		if err := w.prompt(&cfg); err != nil {
			return err
		}
	}
	cfg.Library.Dir = expandHome(cfg.Library.Dir)

	if backupPath, err := BackupConfig(w.opts.ConfigPath); err != nil {
		return fmt.Errorf("backup config: %w", err)
	} else if backupPath != "" {
		p.Successf("Backed up config to: %s", backupPath)
	}

	if err := cfg.Write(w.opts.ConfigPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	p.Successf("Created config: %s", w.opts.ConfigPath)

	p.Printf("")
	result := doctor.NewConfigCheck(&cfg, w.opts.ConfigPath).Run(ctx)
	p.Section(result.Name)
	for _, item := range result.Items {
		switch item.Status {
		case doctor.StatusPass:
			p.CheckItem(item.Label, item.Detail)
		case doctor.StatusWarn:
			p.WarnItem(item.Label, item.Detail)
		case doctor.StatusFail:
			p.FailItem(item.Label, item.Detail)
		}
	}

	w.printNextSteps(p, cfg)
	return nil
}

// Defaults returns the config the wizard starts from: built-in defaults
// overlaid with any presets.
func (w *Wizard) Defaults() config.Config {
	cfg := config.DefaultConfig()
	cfg.DataDir = w.opts.DataDir

	if w.opts.Mode != "" {
		cfg.Backend.Mode = w.opts.Mode
	}
	if w.opts.URL != "" {
		cfg.Backend.URL = w.opts.URL
	}
	if w.opts.Token != "" {
		cfg.Backend.Token = w.opts.Token
	}
	if w.opts.Library != "" {
		cfg.Library.Dir = w.opts.Library
		if w.opts.Mode == "" {
			cfg.Backend.Mode = config.ModeLocal
		}
	}
	if cfg.Library.Dir == "" {
		home, _ := os.UserHomeDir()
		cfg.Library.Dir = filepath.Join(home, "Documents", "books")
	}
	return cfg
}

func (w *Wizard) prompt(cfg *config.Config) error {
	themes := []huh.Option[string]{huh.NewOption(config.ThemeAuto, config.ThemeAuto)}
	for _, name := range styles.ThemeNames() {
		themes = append(themes, huh.NewOption(name, name))
	}

	remote := func() bool { return cfg.Backend.Mode != config.ModeRemote }
	local := func() bool { return cfg.Backend.Mode != config.ModeLocal }

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[config.Mode]().
				Title("Where are your books?").
				Options(
					huh.NewOption("Workbench server", config.ModeRemote),
					huh.NewOption("Markdown files on this machine", config.ModeLocal),
				).
				Value(&cfg.Backend.Mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Validate(validateURL).
				Value(&cfg.Backend.URL),
			huh.NewInput().
				Title("API token").
				Description("Leave empty if the server does not require one").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Backend.Token),
		).WithHideFunc(remote),
		huh.NewGroup(
			huh.NewInput().
				Title("Library directory").
				Description("Markdown files below this directory are listed as books").
				Value(&cfg.Library.Dir),
		).WithHideFunc(local),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(themes...).
				Value(&cfg.TUI.Theme),
			huh.NewConfirm().
				Title("Enable mouse selection?").
				Value(&cfg.TUI.Mouse),
		),
	)

	return form.Run()
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL needs a host")
	}
	return nil
}

func (w *Wizard) printNextSteps(p *printer.Printer, cfg config.Config) {
	p.Printf("")
	p.Section("Next Steps")

	step := 1
	if cfg.Backend.Mode == config.ModeLocal {
		p.Printf("  %d. Put converted Markdown books in %s", step, cfg.Library.Dir)
		step++
	}
	p.Printf("  %d. Run 'marginalia doctor' to check the setup", step)
	step++
	p.Printf("  %d. Run 'marginalia' to pick a book and start reading", step)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
