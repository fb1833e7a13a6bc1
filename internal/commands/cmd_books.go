package commands

import (
	"context"
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

type BooksCmd struct {
	flags *Flags
	app   *App

	src        Source
	jsonOutput bool
	pageSize   int
}

// NewBooksCmd creates the books and pages commands.
func NewBooksCmd(flags *Flags, app *App) *BooksCmd {
	return &BooksCmd{flags: flags, app: app}
}

func (cmd *BooksCmd) sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "library",
			Usage:       "list a directory of Markdown files instead of the configured backend",
			Sources:     cli.EnvVars("MARGINALIA_LIBRARY"),
			Destination: &cmd.src.Library,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON lines",
			Destination: &cmd.jsonOutput,
		},
	}
}

// Register adds the books and pages commands to the application.
func (cmd *BooksCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "books",
			Aliases:   []string{"ls"},
			Usage:     "List books",
			UsageText: "marginalia books [--json]",
			Flags:     cmd.sourceFlags(),
			Action:    cmd.runBooks,
		},
		&cli.Command{
			Name:      "pages",
			Usage:     "Show how a book is paginated",
			UsageText: "marginalia pages [options] <book-id>",
			Description: `Prints the code unit range of every page. Offsets are UTF-16 code units,
the same unit notes and bookmarks are anchored in.`,
			Flags: append(cmd.sourceFlags(), &cli.IntFlag{
				Name:        "page-size",
				Usage:       "target page length (defaults to reader.page_size)",
				Destination: &cmd.pageSize,
			}),
			ShellComplete: BookIDCompleter(cmd.app, &cmd.src),
			Action:        cmd.runPages,
		},
	)
	return app
}

// bookInfo is the JSON output format for marginalia books --json.
type bookInfo struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Status book.Status `json:"status"`
}

func (cmd *BooksCmd) runBooks(ctx context.Context, c *cli.Command) error {
	backend, _, err := cmd.app.Backend(cmd.src)
	if err != nil {
		return err
	}

	books, err := backend.Books(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, b := range books {
			if err := iojson.WriteLine(out, bookInfo{ID: b.ID, Title: b.Title, Status: b.Status}); err != nil {
				return fmt.Errorf("encode book: %w", err)
			}
		}
		return nil
	}

	if len(books) == 0 {
		_, _ = fmt.Fprintf(os.Stderr, "No books found at %s\n", cmd.app.sourceLabel(cmd.src))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tTITLE")
	for _, b := range books {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Status, b.Title)
	}
	return w.Flush()
}

// pageInfo is the JSON output format for marginalia pages --json.
type pageInfo struct {
	Page  int `json:"page"`
	Start int `json:"start"`
	End   int `json:"end"`
}

func (cmd *BooksCmd) runPages(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("book ID required")
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

	size := cmd.pageSize
	if size <= 0 {
		size = cmd.app.Config.Reader.PageSize
	}

	text := codeunit.NewText(b.Markdown)
	pages := paginate.Paginate(text, size)

	out := c.Root().Writer

	if cmd.jsonOutput {
		for i, p := range pages {
			if err := iojson.WriteLine(out, pageInfo{Page: i + 1, Start: p.Start, End: p.End}); err != nil {
				return fmt.Errorf("encode page: %w", err)
			}
		}
		return nil
	}

	_, _ = fmt.Fprintf(os.Stderr, "%s: %s code units in %s pages\n",
		b.Title, humanize.Comma(int64(text.Len())), humanize.Comma(int64(len(pages))))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "PAGE\tSTART\tEND\tLEN\t")
	for i, p := range pages {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%d\t%d\t\n", i+1, p.Start, p.End, p.Len())
	}
	return w.Flush()
}
