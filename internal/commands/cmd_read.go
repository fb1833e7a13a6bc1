package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/kv"
	"github.com/colonyops/marginalia/internal/core/logging"
	"github.com/colonyops/marginalia/internal/tui"
	"github.com/colonyops/marginalia/pkg/profiler"
)

// bookListTTL bounds how long the picker reuses a fetched book list.
const bookListTTL = 5 * time.Minute

type ReadCmd struct {
	flags *Flags
	app   *App

	src          Source
	offset       int
	page         int
	profilerPort int
}

// NewReadCmd creates the read command.
func NewReadCmd(flags *Flags, app *App) *ReadCmd {
	return &ReadCmd{flags: flags, app: app}
}

// Flags returns the reader flags, shared with the root command.
func (cmd *ReadCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Usage:       "read a single Markdown file",
			Destination: &cmd.src.File,
		},
		&cli.StringFlag{
			Name:        "library",
			Usage:       "read from a directory of Markdown files",
			Sources:     cli.EnvVars("MARGINALIA_LIBRARY"),
			Destination: &cmd.src.Library,
		},
		&cli.IntFlag{
			Name:        "offset",
			Usage:       "open at a global character offset (UTF-16 code units)",
			Value:       -1,
			Destination: &cmd.offset,
		},
		&cli.IntFlag{
			Name:        "page",
			Usage:       "open at a page number",
			Destination: &cmd.page,
		},
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof HTTP endpoint on specified port (e.g., 6060)",
			Sources:     cli.EnvVars("MARGINALIA_PROFILER_PORT"),
			Destination: &cmd.profilerPort,
		},
	}
}

// Register adds the read command to the application.
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "read",
		Usage:     "Open a book in the reading workbench",
		UsageText: "marginalia read [options] [book-id]",
		Description: `Opens the dual-pane reader: the book on the left, notes and bookmarks on
the right. Without a book ID an interactive picker lists the available books.

Use --file to read a single Markdown file, or --library for a directory of them.
Use --offset to open at a character offset, as in a shared deep link.`,
		Flags:         cmd.Flags(),
		ShellComplete: BookIDCompleter(cmd.app, &cmd.src),
		Action:        cmd.Run,
	})
	return app
}

// Run executes the reader. Exported for use as the default action.
func (cmd *ReadCmd) Run(ctx context.Context, c *cli.Command) error {
	backend, id, err := cmd.app.Backend(cmd.src)
	if err != nil {
		return err
	}

	if id == "" {
		id = c.Args().First()
	}
	if id == "" {
		id, err = cmd.pick(ctx, backend)
		if err != nil {
			return err
		}
	}

	if cmd.profilerPort > 0 {
		srv := profiler.New(cmd.profilerPort)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
	}

	cfg := cmd.app.Config
	opts := tui.Options{
		Backend:    backend,
		BookID:     id,
		Progress:   cmd.app.Progress,
		PageSize:   cfg.Reader.PageSize,
		Margin:     cfg.Reader.JumpMargin,
		MinDelta:   cfg.Reader.MinDelta,
		CacheSize:  cfg.Reader.CacheSize,
		NotesWidth: cfg.TUI.NotesWidth,
		Page:       cmd.page,
		Mouse:      cfg.TUI.Mouse,
		Logger:     logging.ForBook("reader", id),
	}
	if cmd.offset >= 0 {
		offset := cmd.offset
		opts.Offset = &offset
	}

	ctx = logging.WithBookID(ctx, id)
	log.Info().Ctx(ctx).Msg("opening reader")
	if err := tui.Run(ctx, opts); err != nil {
		return fmt.Errorf("run reader: %w", err)
	}
	return nil
}

// pick asks for a book when none was given.
func (cmd *ReadCmd) pick(ctx context.Context, backend book.Backend) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("a book ID is required when stdin is not a terminal")
	}

	books, err := cmd.books(ctx, backend)
	if err != nil {
		return "", err
	}
	if len(books) == 0 {
		return "", fmt.Errorf("no books found at %s", cmd.app.sourceLabel(cmd.src))
	}

	options := make([]huh.Option[string], 0, len(books))
	for _, b := range books {
		label := b.Title
		if b.Status != book.StatusCompleted {
			label += " (" + string(b.Status) + ")"
		}
		options = append(options, huh.NewOption(label, b.ID))
	}

	var id string
	err = huh.NewSelect[string]().
		Title("Open a book").
		Options(options...).
		Value(&id).
		Run()
	if err != nil {
		return "", err
	}
	return id, nil
}

// books lists the backend's books, reusing a recent list for the same
// source.
func (cmd *ReadCmd) books(ctx context.Context, backend book.Backend) ([]book.Book, error) {
	cache := kv.Scoped[[]book.Book](cmd.app.KV, "books")
	key := cmd.app.sourceLabel(cmd.src)

	if cached, err := cache.Get(ctx, key); err == nil {
		return cached, nil
	}

	books, err := backend.Books(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if err := cache.SetTTL(ctx, key, books, bookListTTL); err != nil {
		log.Debug().Err(err).Msg("failed to cache book list")
	}
	return books, nil
}
