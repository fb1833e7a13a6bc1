package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/marginalia/internal/commands"
	"github.com/colonyops/marginalia/internal/core/config"
	"github.com/colonyops/marginalia/internal/core/logging"
	"github.com/colonyops/marginalia/internal/core/styles"
	"github.com/colonyops/marginalia/internal/printer"
	"github.com/colonyops/marginalia/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

// kvSweepInterval is how often expired cache entries are deleted.
const kvSweepInterval = 5 * time.Minute

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	// .env in the working directory may carry MARGINALIA_* settings.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}

	var (
		logCloser   func()
		sweepCancel context.CancelFunc
		app         = &commands.App{}
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "marginalia",
		Usage:     "Read converted PDFs side by side with your notes",
		UsageText: "marginalia [global options] command [command options]",
		Description: `Marginalia is a terminal reading workbench for books converted from PDF to
Markdown. The book is paginated on the left; notes and bookmarks anchored to
exact character offsets sit on the right, and the two panes scroll together.

Run 'marginalia' with no arguments to pick a book and start reading.
Run 'marginalia init' to point it at a workbench server or a local library.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("MARGINALIA_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/marginalia.log)",
				Sources:     cli.EnvVars("MARGINALIA_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MARGINALIA_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("MARGINALIA_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the reader owns the terminal.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "marginalia.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile, logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			styles.SetTheme(styles.Resolve(cfg.TUI.Theme))

			a, err := commands.NewApp(cfg)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}
			// Commands already hold a pointer to app.
			*app = *a

			sweepCtx, cancel := context.WithCancel(context.Background())
			sweepCancel = cancel
			go app.KV.Sweep(sweepCtx, kvSweepInterval)

			return printer.With(ctx, printer.New(os.Stderr)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if sweepCancel != nil {
				sweepCancel()
			}

			if err := app.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	readCmd := commands.NewReadCmd(flags, app)

	root = readCmd.Register(root)
	root = commands.NewBooksCmd(flags, app).Register(root)
	root = commands.NewNotesCmd(flags, app).Register(root)
	root = commands.NewBookmarksCmd(flags, app).Register(root)
	root = commands.NewProgressCmd(flags, app).Register(root)
	root = commands.NewDoctorCmd(flags, app).Register(root)
	root = commands.NewConfigValidateCmd(flags).Register(root)
	root = commands.NewInitCmd(flags).Register(root)
	root.EnableShellCompletion = true

	// Register reader flags on root command
	root.Flags = append(root.Flags, readCmd.Flags()...)

	// Open the reader when no subcommand is provided
	root.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'marginalia read %s' to open a book", c.Args().First(), c.Args().First())
		}
		return readCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := root.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
