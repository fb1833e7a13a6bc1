package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/marginalia/internal/core/book"
)

// completionTimeout bounds the backend call made while completing.
const completionTimeout = 3 * time.Second

// BookIDCompleter returns a ShellCompleteFunc that suggests readable book IDs
// as positional completions. src is read when completion runs, after flags
// are parsed.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func BookIDCompleter(app *App, src *Source) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Config == nil {
			return
		}

		backend, _, err := app.Backend(*src)
		if err != nil {
			return
		}

		ctx, cancel := context.WithTimeout(ctx, completionTimeout)
		defer cancel()

		books, err := backend.Books(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, b := range books {
			if b.Status != book.StatusCompleted {
				continue
			}
			_, _ = fmt.Fprintln(w, b.ID)
		}
	}
}
