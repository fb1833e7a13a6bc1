package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/data/db"
)

// AnchorStore implements book.AnchorStore using SQLite.
type AnchorStore struct {
	db *db.DB
}

var _ book.AnchorStore = (*AnchorStore)(nil)

// NewAnchorStore creates a new SQLite-backed anchor store.
func NewAnchorStore(db *db.DB) *AnchorStore {
	return &AnchorStore{db: db}
}

// ListNotes returns a book's notes in creation order.
func (s *AnchorStore) ListNotes(ctx context.Context, bookID string) ([]book.Note, error) {
	rows, err := s.db.Queries().ListNotes(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]book.Note, len(rows))
	for i, row := range rows {
		notes[i] = rowToNote(row)
	}
	return notes, nil
}

// SaveNote inserts a note. The ID and creation time must be set.
func (s *AnchorStore) SaveNote(ctx context.Context, n book.Note) error {
	params := db.CreateNoteParams{
		ID:          n.ID,
		BookID:      n.BookID,
		Content:     n.Content,
		SourceText:  n.SourceText,
		ContentHash: n.ContentHash,
		CreatedAt:   n.CreatedAt.UnixNano(),
	}
	if n.ScrollPercentage != nil {
		params.ScrollPercentage = sql.NullFloat64{Float64: *n.ScrollPercentage, Valid: true}
	}
	params.GlobalOffset = nullOffset(n.GlobalOffset)

	err := retryBusy(ctx, func() error {
		return s.db.Queries().CreateNote(ctx, params)
	})
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// ListBookmarks returns a book's bookmarks in creation order.
func (s *AnchorStore) ListBookmarks(ctx context.Context, bookID string) ([]book.Bookmark, error) {
	rows, err := s.db.Queries().ListBookmarks(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	bookmarks := make([]book.Bookmark, len(rows))
	for i, row := range rows {
		bookmarks[i] = rowToBookmark(row)
	}
	return bookmarks, nil
}

// SaveBookmark inserts a bookmark. The ID and creation time must be set.
func (s *AnchorStore) SaveBookmark(ctx context.Context, b book.Bookmark) error {
	params := db.CreateBookmarkParams{
		ID:               b.ID,
		BookID:           b.BookID,
		Name:             b.Name,
		PageNumber:       int64(b.PageNumber),
		ScrollPercentage: b.ScrollPercentage,
		GlobalOffset:     nullOffset(b.GlobalOffset),
		ContentHash:      b.ContentHash,
		CreatedAt:        b.CreatedAt.UnixNano(),
	}

	err := retryBusy(ctx, func() error {
		return s.db.Queries().CreateBookmark(ctx, params)
	})
	if err != nil {
		return fmt.Errorf("failed to save bookmark: %w", err)
	}
	return nil
}

// GetBookmark returns a bookmark by ID, or book.ErrNotFound.
func (s *AnchorStore) GetBookmark(ctx context.Context, id string) (book.Bookmark, error) {
	row, err := s.db.Queries().GetBookmark(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return book.Bookmark{}, fmt.Errorf("bookmark %s: %w", id, book.ErrNotFound)
		}
		return book.Bookmark{}, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return rowToBookmark(row), nil
}

// DeleteBookmark removes a bookmark, or returns book.ErrNotFound.
func (s *AnchorStore) DeleteBookmark(ctx context.Context, id string) error {
	var n int64
	err := retryBusy(ctx, func() error {
		var err error
		n, err = s.db.Queries().DeleteBookmark(ctx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bookmark %s: %w", id, book.ErrNotFound)
	}
	return nil
}

// RenameBookmark changes a bookmark's name, or returns book.ErrNotFound.
func (s *AnchorStore) RenameBookmark(ctx context.Context, id, name string) error {
	var n int64
	err := retryBusy(ctx, func() error {
		var err error
		n, err = s.db.Queries().RenameBookmark(ctx, db.RenameBookmarkParams{Name: name, ID: id})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to rename bookmark: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bookmark %s: %w", id, book.ErrNotFound)
	}
	return nil
}

func nullOffset(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func offsetPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	g := int(v.Int64)
	return &g
}

func rowToNote(row db.Note) book.Note {
	n := book.Note{
		ID:           row.ID,
		BookID:       row.BookID,
		Content:      row.Content,
		SourceText:   row.SourceText,
		GlobalOffset: offsetPtr(row.GlobalOffset),
		CreatedAt:    time.Unix(0, row.CreatedAt),
		ContentHash:  row.ContentHash,
	}
	if row.ScrollPercentage.Valid {
		f := row.ScrollPercentage.Float64
		n.ScrollPercentage = &f
	}
	return n
}

func rowToBookmark(row db.Bookmark) book.Bookmark {
	return book.Bookmark{
		ID:               row.ID,
		BookID:           row.BookID,
		Name:             row.Name,
		PageNumber:       int(row.PageNumber),
		ScrollPercentage: row.ScrollPercentage,
		GlobalOffset:     offsetPtr(row.GlobalOffset),
		CreatedAt:        time.Unix(0, row.CreatedAt),
		ContentHash:      row.ContentHash,
	}
}
