package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_Check(t *testing.T) {
	tests := []struct {
		name string
		book Book
		want error
	}{
		{"ready", Book{Status: StatusCompleted, Markdown: "# Title"}, nil},
		{"pending", Book{Status: StatusPending}, ErrIncomplete},
		{"processing", Book{Status: StatusProcessing, Markdown: "partial"}, ErrIncomplete},
		{"empty", Book{Status: StatusCompleted, Markdown: "  \n"}, ErrIncomplete},
		{"failed", Book{Status: StatusFailed}, ErrUnavailable},
		{"error content", Book{Status: StatusCompleted, Markdown: "Error: PDF had no text"}, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.book.Check()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
	assert.Len(t, ContentHash(""), 64)
}

func ptr[T any](v T) *T { return &v }

func TestAnchors_SortedByCreation(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	notes := []Note{
		{ID: "n2", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "n1", CreatedAt: base},
	}
	bookmarks := []Bookmark{
		{ID: "b1", CreatedAt: base.Add(time.Minute)},
	}

	anchors := Anchors(notes, bookmarks)

	require.Len(t, anchors, 3)
	assert.Equal(t, []string{"n1", "b1", "n2"}, []string{anchors[0].ID(), anchors[1].ID(), anchors[2].ID()})
	assert.Equal(t, KindBookmark, anchors[1].Kind)
}

func TestAnchors_TiesKeepNotesFirst(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	notes := []Note{{ID: "n1", CreatedAt: at}, {ID: "n2", CreatedAt: at}}
	bookmarks := []Bookmark{{ID: "b1", CreatedAt: at}}

	anchors := Anchors(notes, bookmarks)

	require.Len(t, anchors, 3)
	assert.Equal(t, []string{"n1", "n2", "b1"}, []string{anchors[0].ID(), anchors[1].ID(), anchors[2].ID()})
}

func TestAnchor_Resolvable(t *testing.T) {
	hash := ContentHash("doc")

	tests := []struct {
		name   string
		anchor Anchor
		want   bool
	}{
		{"in range", Anchor{Kind: KindNote, Note: &Note{GlobalOffset: ptr(10)}}, true},
		{"at end", Anchor{Kind: KindNote, Note: &Note{GlobalOffset: ptr(100)}}, true},
		{"past end", Anchor{Kind: KindNote, Note: &Note{GlobalOffset: ptr(101)}}, false},
		{"note without offset", Anchor{Kind: KindNote, Note: &Note{}}, false},
		{"bookmark by page", Anchor{Kind: KindBookmark, Bookmark: &Bookmark{PageNumber: 2}}, true},
		{"same hash", Anchor{Kind: KindNote, Note: &Note{GlobalOffset: ptr(1), ContentHash: hash}}, true},
		{"changed content", Anchor{Kind: KindNote, Note: &Note{GlobalOffset: ptr(1), ContentHash: "stale"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.anchor.Resolvable(100, hash))
		})
	}
}

func TestSaveRejectedError(t *testing.T) {
	var err error = &SaveRejectedError{Status: 400, Detail: "Invalid book_id format: x"}

	var rejected *SaveRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 400, rejected.Status)
	assert.Equal(t, "Invalid book_id format: x", err.Error())
	assert.Equal(t, "save rejected (status 422)", (&SaveRejectedError{Status: 422}).Error())
}
