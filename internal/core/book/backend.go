package book

import "context"

// Backend is where books and their anchors live.
type Backend interface {
	// Book returns a book with its Markdown. Returns ErrNotFound if missing.
	Book(ctx context.Context, id string) (Book, error)

	// Books lists books without their content.
	Books(ctx context.Context) ([]Book, error)

	// Notes returns a book's notes in creation order.
	Notes(ctx context.Context, bookID string) ([]Note, error)

	// CreateNote persists a note. Validation failures return
	// *SaveRejectedError.
	CreateNote(ctx context.Context, note NewNote) (Note, error)

	// Bookmarks returns a book's bookmarks in creation order.
	Bookmarks(ctx context.Context, bookID string) ([]Bookmark, error)

	// CreateBookmark persists a bookmark.
	CreateBookmark(ctx context.Context, bm NewBookmark) (Bookmark, error)

	// DeleteBookmark removes a bookmark. Returns ErrNotFound if missing.
	DeleteBookmark(ctx context.Context, id string) error

	// RenameBookmark changes a bookmark's name.
	RenameBookmark(ctx context.Context, id, name string) (Bookmark, error)

	// Health checks that the backend is reachable.
	Health(ctx context.Context) error
}

// AnchorStore persists notes and bookmarks for backends that do not store
// them remotely.
type AnchorStore interface {
	ListNotes(ctx context.Context, bookID string) ([]Note, error)
	SaveNote(ctx context.Context, note Note) error
	ListBookmarks(ctx context.Context, bookID string) ([]Bookmark, error)
	SaveBookmark(ctx context.Context, bm Bookmark) error
	GetBookmark(ctx context.Context, id string) (Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
	RenameBookmark(ctx context.Context, id, name string) error
}
