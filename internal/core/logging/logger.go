package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ForBook returns a component logger that tags every event with bookID.
func ForBook(name, bookID string) zerolog.Logger {
	return log.With().Str("cmp", name).Str("book_id", bookID).Logger()
}
