package db

import (
	"context"
	"database/sql"
)

const noteColumns = `id, book_id, content, source_text, scroll_percentage, global_offset, content_hash, created_at`

const createNote = `INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateNoteParams struct {
	ID               string
	BookID           string
	Content          string
	SourceText       string
	ScrollPercentage sql.NullFloat64
	GlobalOffset     sql.NullInt64
	ContentHash      string
	CreatedAt        int64
}

func (q *Queries) CreateNote(ctx context.Context, arg CreateNoteParams) error {
	_, err := q.db.ExecContext(ctx, createNote,
		arg.ID,
		arg.BookID,
		arg.Content,
		arg.SourceText,
		arg.ScrollPercentage,
		arg.GlobalOffset,
		arg.ContentHash,
		arg.CreatedAt,
	)
	return err
}

const listNotes = `SELECT ` + noteColumns + ` FROM notes WHERE book_id = ? ORDER BY created_at, id`

func (q *Queries) ListNotes(ctx context.Context, bookID string) ([]Note, error) {
	rows, err := q.db.QueryContext(ctx, listNotes, bookID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Note
	for rows.Next() {
		var i Note
		if err := rows.Scan(
			&i.ID,
			&i.BookID,
			&i.Content,
			&i.SourceText,
			&i.ScrollPercentage,
			&i.GlobalOffset,
			&i.ContentHash,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const bookmarkColumns = `id, book_id, name, page_number, scroll_percentage, global_offset, content_hash, created_at`

const createBookmark = `INSERT INTO bookmarks (` + bookmarkColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateBookmarkParams struct {
	ID               string
	BookID           string
	Name             string
	PageNumber       int64
	ScrollPercentage float64
	GlobalOffset     sql.NullInt64
	ContentHash      string
	CreatedAt        int64
}

func (q *Queries) CreateBookmark(ctx context.Context, arg CreateBookmarkParams) error {
	_, err := q.db.ExecContext(ctx, createBookmark,
		arg.ID,
		arg.BookID,
		arg.Name,
		arg.PageNumber,
		arg.ScrollPercentage,
		arg.GlobalOffset,
		arg.ContentHash,
		arg.CreatedAt,
	)
	return err
}

func scanBookmark(s interface{ Scan(...any) error }) (Bookmark, error) {
	var i Bookmark
	err := s.Scan(
		&i.ID,
		&i.BookID,
		&i.Name,
		&i.PageNumber,
		&i.ScrollPercentage,
		&i.GlobalOffset,
		&i.ContentHash,
		&i.CreatedAt,
	)
	return i, err
}

const listBookmarks = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE book_id = ? ORDER BY created_at, id`

func (q *Queries) ListBookmarks(ctx context.Context, bookID string) ([]Bookmark, error) {
	rows, err := q.db.QueryContext(ctx, listBookmarks, bookID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Bookmark
	for rows.Next() {
		i, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getBookmark = `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE id = ?`

func (q *Queries) GetBookmark(ctx context.Context, id string) (Bookmark, error) {
	return scanBookmark(q.db.QueryRowContext(ctx, getBookmark, id))
}

const deleteBookmark = `DELETE FROM bookmarks WHERE id = ?`

func (q *Queries) DeleteBookmark(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteBookmark, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const renameBookmark = `UPDATE bookmarks SET name = ? WHERE id = ?`

type RenameBookmarkParams struct {
	Name string
	ID   string
}

func (q *Queries) RenameBookmark(ctx context.Context, arg RenameBookmarkParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, renameBookmark, arg.Name, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
