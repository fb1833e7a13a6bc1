package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/codeunit"
	"github.com/colonyops/marginalia/pkg/iojson"
)

// quoteWidth truncates quoted source text in tables.
const quoteWidth = 40

type NotesCmd struct {
	flags *Flags
	app   *App

	src        Source
	jsonOutput bool
	input      iojson.FileReader[[]book.NewNote]
}

// NewNotesCmd creates the notes command.
func NewNotesCmd(flags *Flags, app *App) *NotesCmd {
	return &NotesCmd{flags: flags, app: app}
}

func (cmd *NotesCmd) libraryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "library",
		Usage:       "use a directory of Markdown files instead of the configured backend",
		Sources:     cli.EnvVars("MARGINALIA_LIBRARY"),
		Destination: &cmd.src.Library,
	}
}

// Register adds the notes command to the application.
func (cmd *NotesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "notes",
		Usage: "Inspect and import notes",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List a book's notes",
				UsageText: "marginalia notes ls [--json] <book-id>",
				Description: `Lists notes in creation order. The RESOLVES column reports whether the note
can still be followed in the current text of the book.`,
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
				Name:      "import",
				Usage:     "Create notes from a JSON array",
				UsageText: "marginalia notes import [-f notes.json] <book-id>",
				Description: `Reads a JSON array of notes from --file or stdin and creates each one.
Offsets are checked against the current text of the book first.

Example:
  echo '[{"content":"Key claim","global_character_offset":1200}]' | marginalia notes import abc123`,
				Flags:         []cli.Flag{cmd.libraryFlag(), cmd.input.Flag()},
				ShellComplete: BookIDCompleter(cmd.app, &cmd.src),
				Action:        cmd.runImport,
			},
		},
	})
	return app
}

// loadBook fetches the book named by the first argument and checks it is
// readable.
func (cmd *NotesCmd) loadBook(ctx context.Context, c *cli.Command) (book.Backend, book.Book, error) {
	id := c.Args().First()
	if id == "" {
		return nil, book.Book{}, errors.New("book ID required")
	}

	backend, _, err := cmd.app.Backend(cmd.src)
	if err != nil {
		return nil, book.Book{}, err
	}

	b, err := backend.Book(ctx, id)
	if err != nil {
		return nil, book.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if err := b.Check(); err != nil {
		return nil, book.Book{}, err
	}
	return backend, b, nil
}

// noteInfo is the JSON output format for marginalia notes ls --json.
type noteInfo struct {
	book.Note
	Resolvable bool `json:"resolvable"`
}

func (cmd *NotesCmd) runList(ctx context.Context, c *cli.Command) error {
	backend, b, err := cmd.loadBook(ctx, c)
	if err != nil {
		return err
	}

	notes, err := backend.Notes(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	textLen := codeunit.Len(b.Markdown)
	hash := book.ContentHash(b.Markdown)
	resolves := func(n book.Note) bool {
		return book.Anchor{Kind: book.KindNote, Note: &n}.Resolvable(textLen, hash)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, n := range notes {
			if err := iojson.WriteLine(out, noteInfo{Note: n, Resolvable: resolves(n)}); err != nil {
				return fmt.Errorf("encode note: %w", err)
			}
		}
		return nil
	}

	if len(notes) == 0 {
		_, _ = fmt.Fprintf(os.Stderr, "No notes on %s\n", b.Title)
		return nil
	}

	unresolved := 0
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tOFFSET\tRESOLVES\tCREATED\tQUOTE\tCONTENT")
	for _, n := range notes {
		offset := "-"
		if n.GlobalOffset != nil {
			offset = fmt.Sprint(*n.GlobalOffset)
		}
		ok := resolves(n)
		if !ok {
			unresolved++
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			n.ID, offset, yesNo(ok), humanize.Time(n.CreatedAt), oneLine(n.SourceText, quoteWidth), oneLine(n.Content, quoteWidth))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if unresolved > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "\n%d note(s) point outside the current text and cannot be jumped to\n", unresolved)
	}
	return nil
}

func (cmd *NotesCmd) runImport(ctx context.Context, c *cli.Command) error {
	drafts, err := cmd.input.Read()
	if err != nil {
		return err
	}

	backend, b, err := cmd.loadBook(ctx, c)
	if err != nil {
		return err
	}

	textLen := codeunit.Len(b.Markdown)
	hash := book.ContentHash(b.Markdown)

	for i, d := range drafts {
		if strings.TrimSpace(d.Content) == "" {
			return fmt.Errorf("note %d: content is required", i)
		}
		if d.GlobalOffset != nil && (*d.GlobalOffset < 0 || *d.GlobalOffset > textLen) {
			return fmt.Errorf("note %d: offset %d is outside [0, %d]", i, *d.GlobalOffset, textLen)
		}
	}

	created := 0
	for i, d := range drafts {
		d.BookID = b.ID
		if d.GlobalOffset != nil {
			d.ContentHash = hash
		}
		note, err := backend.CreateNote(ctx, d)
		if err != nil {
			return fmt.Errorf("note %d: %w (%d created)", i, err, created)
		}
		created++
		if err := iojson.WriteLine(c.Root().Writer, note); err != nil {
			return fmt.Errorf("encode note: %w", err)
		}
	}

	_, _ = fmt.Fprintf(os.Stderr, "Imported %d note(s) into %s\n", created, b.Title)
	return nil
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// oneLine flattens s onto a single line of at most n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
