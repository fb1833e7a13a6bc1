package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies book_id and anchor_id from an event's context onto the
// event.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if bookID := GetBookID(ctx); bookID != "" {
		e.Str("book_id", bookID)
	}

	if anchorID := GetAnchorID(ctx); anchorID != "" {
		e.Str("anchor_id", anchorID)
	}
}
