package logging

import "context"

type contextKey string

const (
	bookIDKey   contextKey = "book_id"
	anchorIDKey contextKey = "anchor_id"
)

// WithBookID adds the open book's ID to the context.
func WithBookID(ctx context.Context, bookID string) context.Context {
	return context.WithValue(ctx, bookIDKey, bookID)
}

// WithAnchorID adds a note or bookmark ID to the context.
func WithAnchorID(ctx context.Context, anchorID string) context.Context {
	return context.WithValue(ctx, anchorIDKey, anchorID)
}

// GetBookID retrieves the book ID from the context.
// Returns empty string if not present.
func GetBookID(ctx context.Context) string {
	if id, ok := ctx.Value(bookIDKey).(string); ok {
		return id
	}
	return ""
}

// GetAnchorID retrieves the anchor ID from the context.
// Returns empty string if not present.
func GetAnchorID(ctx context.Context) string {
	if id, ok := ctx.Value(anchorIDKey).(string); ok {
		return id
	}
	return ""
}
