package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/marginalia/internal/core/book"
)

func ptr[T any](v T) *T { return &v }

func TestAnchorStore_Notes(t *testing.T) {
	ctx := context.Background()
	store := NewAnchorStore(openTestDB(t))
	base := time.Unix(1_700_000_000, 0)

	require.NoError(t, store.SaveNote(ctx, book.Note{
		ID:           "n2",
		BookID:       "b1",
		Content:      "later",
		GlobalOffset: ptr(40),
		CreatedAt:    base.Add(time.Second),
	}))
	require.NoError(t, store.SaveNote(ctx, book.Note{
		ID:               "n1",
		BookID:           "b1",
		Content:          "**first**",
		SourceText:       "gamma",
		ScrollPercentage: ptr(0.25),
		GlobalOffset:     ptr(11),
		ContentHash:      "abc",
		CreatedAt:        base,
	}))
	require.NoError(t, store.SaveNote(ctx, book.Note{ID: "other", BookID: "b2", CreatedAt: base}))

	notes, err := store.ListNotes(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, notes, 2)

	first := notes[0]
	assert.Equal(t, "n1", first.ID)
	assert.Equal(t, "gamma", first.SourceText)
	require.NotNil(t, first.GlobalOffset)
	assert.Equal(t, 11, *first.GlobalOffset)
	require.NotNil(t, first.ScrollPercentage)
	assert.InDelta(t, 0.25, *first.ScrollPercentage, 1e-9)
	assert.Equal(t, "abc", first.ContentHash)
	assert.True(t, first.CreatedAt.Equal(base))

	assert.Equal(t, "n2", notes[1].ID)
	assert.Nil(t, notes[1].ScrollPercentage)
}

func TestAnchorStore_ListEmpty(t *testing.T) {
	store := NewAnchorStore(openTestDB(t))

	notes, err := store.ListNotes(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, notes)

	bookmarks, err := store.ListBookmarks(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
}

func TestAnchorStore_Bookmarks(t *testing.T) {
	ctx := context.Background()
	store := NewAnchorStore(openTestDB(t))

	require.NoError(t, store.SaveBookmark(ctx, book.Bookmark{
		ID:               "bm1",
		BookID:           "b1",
		Name:             "chapter two",
		PageNumber:       2,
		ScrollPercentage: 0.5,
		CreatedAt:        time.Unix(1_700_000_000, 0),
	}))

	got, err := store.GetBookmark(ctx, "bm1")
	require.NoError(t, err)
	assert.Equal(t, "chapter two", got.Name)
	assert.Equal(t, 2, got.PageNumber)
	assert.Nil(t, got.GlobalOffset)

	require.NoError(t, store.RenameBookmark(ctx, "bm1", "renamed"))
	list, err := store.ListBookmarks(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "renamed", list[0].Name)

	require.NoError(t, store.DeleteBookmark(ctx, "bm1"))
	_, err = store.GetBookmark(ctx, "bm1")
	assert.ErrorIs(t, err, book.ErrNotFound)
}

func TestAnchorStore_MissingBookmark(t *testing.T) {
	ctx := context.Background()
	store := NewAnchorStore(openTestDB(t))

	assert.ErrorIs(t, store.DeleteBookmark(ctx, "nope"), book.ErrNotFound)
	assert.ErrorIs(t, store.RenameBookmark(ctx, "nope", "x"), book.ErrNotFound)
}
