package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithBookID(t *testing.T) {
	ctx := WithBookID(context.Background(), "book-123")
	assert.Equal(t, "book-123", GetBookID(ctx))
	assert.Empty(t, GetAnchorID(ctx))
}

func TestWithAnchorID(t *testing.T) {
	ctx := WithAnchorID(context.Background(), "note-456")
	assert.Equal(t, "note-456", GetAnchorID(ctx))
	assert.Empty(t, GetBookID(ctx))
}

func TestBothIDs(t *testing.T) {
	ctx := WithBookID(context.Background(), "b")
	ctx = WithAnchorID(ctx, "a")

	assert.Equal(t, "b", GetBookID(ctx))
	assert.Equal(t, "a", GetAnchorID(ctx))
}
