package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/codeunit"
	"github.com/colonyops/marginalia/internal/core/paginate"
	"github.com/colonyops/marginalia/pkg/iojson"
)

type BookmarksCmd struct {
	flags *Flags
	app   *App

	src        Source
	jsonOutput bool

	// add
	name     string
	page     int
	fraction float64
}

// NewBookmarksCmd creates the bookmarks command.
func NewBookmarksCmd(flags *Flags, app *App) *BookmarksCmd {
	return &BookmarksCmd{flags: flags, app: app}
}

func (cmd *BookmarksCmd) libraryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "library",
		Usage:       "use a directory of Markdown files instead of the configured backend",
		Sources:     cli.EnvVars("MARGINALIA_LIBRARY"),
		Destination: &cmd.src.Library,
	}
}

// Register adds the bookmarks command to the application.
func (cmd *BookmarksCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "bookmarks",
		Aliases: []string{"bm"},
		Usage:   "Manage bookmarks",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List a book's bookmarks",
				UsageText: "marginalia bookmarks ls [--json] <book-id>",
				Flags: []cli.Flag{
					cmd.libraryFlag(),
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				ShellComplete: BookIDCompleter(cmd.app, &cmd.src),
				Action:        cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Bookmark a page",
				UsageText: "marginalia bookmarks add --page N [--name NAME] <book-id>",
				Description: `Creates a bookmark anchored at the start of the page. Pages are counted
with reader.page_size, as in the reader.`,
				Flags: []cli.Flag{
					cmd.libraryFlag(),
					&cli.IntFlag{
						Name:        "page",
						Usage:       "page number to bookmark",
						Required:    true,
						Destination: &cmd.page,
					},
					&cli.StringFlag{
						Name:        "name",
						Usage:       "bookmark name (defaults to \"Page N\")",
						Destination: &cmd.name,
					},
					&cli.FloatFlag{
						Name:        "fraction",
						Usage:       "scroll position within the page, 0 to 1",
						Destination: &cmd.fraction,
					},
				},
				ShellComplete: BookIDCompleter(cmd.app, &cmd.src),
				Action:        cmd.runAdd,
			},
			{
				Name:      "rm",
				Usage:     "Delete a bookmark",
				UsageText: "marginalia bookmarks rm <bookmark-id>",
				Flags:     []cli.Flag{cmd.libraryFlag()},
				Action:    cmd.runRemove,
			},
			{
				Name:      "rename",
				Usage:     "Rename a bookmark",
				UsageText: "marginalia bookmarks rename <bookmark-id> <name>",
				Flags:     []cli.Flag{cmd.libraryFlag()},
				Action:    cmd.runRename,
			},
		},
	})
	return app
}

func (cmd *BookmarksCmd) runList(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("book ID required")
	}

	backend, _, err := cmd.app.Backend(cmd.src)
	if err != nil {
		return err
	}

	bookmarks, err := backend.Bookmarks(ctx, id)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, bm := range bookmarks {
			if err := iojson.WriteLine(out, bm); err != nil {
				return fmt.Errorf("encode bookmark: %w", err)
			}
		}
		return nil
	}

	if len(bookmarks) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "No bookmarks")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPAGE\tPOSITION\tCREATED\tNAME")
	for _, bm := range bookmarks {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.0f%%\t%s\t%s\n",
			bm.ID, bm.PageNumber, bm.ScrollPercentage*100, humanize.Time(bm.CreatedAt), bm.Name)
	}
	return w.Flush()
}

func (cmd *BookmarksCmd) runAdd(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("book ID required")
	}
	if cmd.fraction < 0 || cmd.fraction > 1 {
		return fmt.Errorf("--fraction must be between 0 and 1, got %g", cmd.fraction)
	}

	backend, _, err := cmd.app.Backend(cmd.src)
	if err != nil {
		return err
	}

	b, err := backend.Book(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch book: %w", err)
	}
	if err := b.Check(); err != nil {
		return err
	}

	pages := paginate.Paginate(codeunit.NewText(b.Markdown), cmd.app.Config.Reader.PageSize)
	if cmd.page < 1 || cmd.page > len(pages) {
		return fmt.Errorf("enter a page between 1 and %d", len(pages))
	}

	name := cmd.name
	if name == "" {
		name = fmt.Sprintf("Page %d", cmd.page)
	}
	offset := pages[cmd.page-1].Start

	bm, err := backend.CreateBookmark(ctx, book.NewBookmark{
		BookID:           b.ID,
		Name:             name,
		PageNumber:       cmd.page,
		ScrollPercentage: cmd.fraction,
		GlobalOffset:     &offset,
		ContentHash:      book.ContentHash(b.Markdown),
	})
	if err != nil {
		return fmt.Errorf("create bookmark: %w", err)
	}
	return iojson.WriteLine(c.Root().Writer, bm)
}

func (cmd *BookmarksCmd) runRemove(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("bookmark ID required")
	}

	backend, _, err := cmd.app.Backend(cmd.src)
	if err != nil {
		return err
	}

	if err := backend.DeleteBookmark(ctx, id); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Deleted bookmark %s\n", id)
	return nil
}

func (cmd *BookmarksCmd) runRename(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return errors.New("usage: marginalia bookmarks rename <bookmark-id> <name>")
	}
	id, name := c.Args().Get(0), c.Args().Get(1)

	backend, _, err := cmd.app.Backend(cmd.src)
	if err != nil {
		return err
	}

	bm, err := backend.RenameBookmark(ctx, id, name)
	if err != nil {
		return fmt.Errorf("rename bookmark: %w", err)
	}
	return iojson.WriteLine(c.Root().Writer, bm)
}
