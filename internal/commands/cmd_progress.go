package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/marginalia/pkg/iojson"
)

type ProgressCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
}

// NewProgressCmd creates the progress command.
func NewProgressCmd(flags *Flags, app *App) *ProgressCmd {
	return &ProgressCmd{flags: flags, app: app}
}

// Register adds the progress command to the application.
func (cmd *ProgressCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "progress",
		Usage: "Show or clear where each book was left",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List saved reading positions, most recent first",
				UsageText: "marginalia progress ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:          "forget",
				Usage:         "Clear a book's saved position so it opens at page 1",
				UsageText:     "marginalia progress forget <book-id>",
				ShellComplete: BookIDCompleter(cmd.app, &Source{}),
				Action:        cmd.runForget,
			},
		},
	})
	return app
}

func (cmd *ProgressCmd) runList(ctx context.Context, c *cli.Command) error {
	saved, err := cmd.app.Progress.List(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, s := range saved {
			if err := iojson.WriteLine(out, s); err != nil {
				return fmt.Errorf("encode progress: %w", err)
			}
		}
		return nil
	}

	if len(saved) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "No saved positions")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BOOK\tPAGE\tPOSITION\tLAST READ")
	for _, s := range saved {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.0f%%\t%s\n", s.BookID, s.Page, s.Fraction*100, humanize.Time(s.UpdatedAt))
	}
	return w.Flush()
}

func (cmd *ProgressCmd) runForget(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("book ID required")
	}

	forgot, err := cmd.app.Progress.Forget(ctx, id)
	if err != nil {
		return fmt.Errorf("forget progress: %w", err)
	}
	if !forgot {
		return fmt.Errorf("no saved position for %q", id)
	}
	_, _ = fmt.Fprintf(os.Stderr, "Cleared saved position for %s\n", id)
	return nil
}
