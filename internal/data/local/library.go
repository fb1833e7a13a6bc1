// Package local is a backend that reads books from Markdown files on disk
// and keeps notes and bookmarks in a local anchor store.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/colonyops/marginalia/internal/core/book"
)

// DefaultPatterns selects every Markdown file below the library root.
var DefaultPatterns = []string{"**/*.md"}

// Library implements book.Backend over a directory. Book IDs are slash
// separated paths relative to the root.
type Library struct {
	root     string
	fsys     fs.FS
	patterns []string
	store    book.AnchorStore
	now      func() time.Time
}

var _ book.Backend = (*Library)(nil)

// New creates a Library over root. Empty patterns select DefaultPatterns.
func New(root string, patterns []string, store book.AnchorStore) *Library {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Library{
		root:     root,
		fsys:     os.DirFS(root),
		patterns: patterns,
		store:    store,
		now:      time.Now,
	}
}

// NewFile creates a Library holding the single file at p. Its book ID is the
// file's base name.
func NewFile(p string, store book.AnchorStore) (*Library, string) {
	dir, name := filepath.Split(p)
	if dir == "" {
		dir = "."
	}
	return New(dir, []string{escapeMeta(name)}, store), name
}

// WithClock replaces the clock used to stamp anchors.
func (l *Library) WithClock(now func() time.Time) *Library {
	l.now = now
	return l
}

// Root returns the library directory.
func (l *Library) Root() string {
	return l.root
}

// Books lists every matching file, sorted by ID.
func (l *Library) Books(ctx context.Context) ([]book.Book, error) {
	seen := make(map[string]bool)
	var ids []string

	for _, pattern := range l.patterns {
		matches, err := doublestar.Glob(l.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				ids = append(ids, m)
			}
		}
	}
	slices.Sort(ids)

	books := make([]book.Book, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := fs.ReadFile(l.fsys, id)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", id, err)
		}
		books = append(books, book.Book{
			ID:     id,
			Title:  title(id, string(data)),
			Status: book.StatusCompleted,
		})
	}
	return books, nil
}

// Book reads a book. IDs outside the library or not matching its patterns
// are not found.
func (l *Library) Book(_ context.Context, id string) (book.Book, error) {
	if !l.contains(id) {
		return book.Book{}, fmt.Errorf("book %s: %w", id, book.ErrNotFound)
	}

	data, err := fs.ReadFile(l.fsys, id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return book.Book{}, fmt.Errorf("book %s: %w", id, book.ErrNotFound)
		}
		return book.Book{}, fmt.Errorf("%w: %v", book.ErrUnavailable, err)
	}

	md := string(data)
	return book.Book{
		ID:       id,
		Title:    title(id, md),
		Status:   book.StatusCompleted,
		Markdown: md,
	}, nil
}

func (l *Library) contains(id string) bool {
	if !fs.ValidPath(id) || id == "." {
		return false
	}
	for _, pattern := range l.patterns {
		if ok, err := doublestar.Match(pattern, id); err == nil && ok {
			return true
		}
	}
	return false
}

// hash returns the content hash of a book, or a rejection when it does not
// exist.
func (l *Library) hash(ctx context.Context, bookID string) (string, error) {
	b, err := l.Book(ctx, bookID)
	if errors.Is(err, book.ErrNotFound) {
		return "", &book.SaveRejectedError{
			Status: http.StatusNotFound,
			Detail: fmt.Sprintf("Book with id %s not found", bookID),
		}
	}
	if err != nil {
		return "", err
	}
	return book.ContentHash(b.Markdown), nil
}

// Notes returns a book's notes in creation order.
func (l *Library) Notes(ctx context.Context, bookID string) ([]book.Note, error) {
	return l.store.ListNotes(ctx, bookID)
}

// CreateNote validates and stores a note. Notes are stamped with the hash
// of the content their offset was taken from.
func (l *Library) CreateNote(ctx context.Context, n book.NewNote) (book.Note, error) {
	if strings.TrimSpace(n.Content) == "" {
		return book.Note{}, &book.SaveRejectedError{Status: http.StatusUnprocessableEntity, Detail: "content: field required"}
	}
	if n.ScrollPercentage != nil && !validFraction(*n.ScrollPercentage) {
		return book.Note{}, &book.SaveRejectedError{Status: http.StatusUnprocessableEntity, Detail: "scroll_percentage must be between 0 and 1"}
	}

	hash, err := l.hash(ctx, n.BookID)
	if err != nil {
		return book.Note{}, err
	}
	if n.ContentHash != "" {
		hash = n.ContentHash
	}

	note := book.Note{
		ID:               uuid.NewString(),
		BookID:           n.BookID,
		Content:          n.Content,
		SourceText:       n.SourceText,
		ScrollPercentage: n.ScrollPercentage,
		GlobalOffset:     n.GlobalOffset,
		CreatedAt:        l.now().UTC(),
		ContentHash:      hash,
	}
	if err := l.store.SaveNote(ctx, note); err != nil {
		return book.Note{}, err
	}
	return note, nil
}

// Bookmarks returns a book's bookmarks in creation order.
func (l *Library) Bookmarks(ctx context.Context, bookID string) ([]book.Bookmark, error) {
	return l.store.ListBookmarks(ctx, bookID)
}

// CreateBookmark validates and stores a bookmark.
func (l *Library) CreateBookmark(ctx context.Context, b book.NewBookmark) (book.Bookmark, error) {
	switch {
	case strings.TrimSpace(b.Name) == "":
		return book.Bookmark{}, &book.SaveRejectedError{Status: http.StatusUnprocessableEntity, Detail: "name: field required"}
	case b.PageNumber < 1:
		return book.Bookmark{}, &book.SaveRejectedError{Status: http.StatusUnprocessableEntity, Detail: "page_number must be at least 1"}
	case !validFraction(b.ScrollPercentage):
		return book.Bookmark{}, &book.SaveRejectedError{Status: http.StatusUnprocessableEntity, Detail: "scroll_percentage must be between 0 and 1"}
	}

	hash, err := l.hash(ctx, b.BookID)
	if err != nil {
		return book.Bookmark{}, err
	}
	if b.ContentHash != "" {
		hash = b.ContentHash
	}

	bm := book.Bookmark{
		ID:               uuid.NewString(),
		BookID:           b.BookID,
		Name:             b.Name,
		PageNumber:       b.PageNumber,
		ScrollPercentage: b.ScrollPercentage,
		GlobalOffset:     b.GlobalOffset,
		CreatedAt:        l.now().UTC(),
		ContentHash:      hash,
	}
	if err := l.store.SaveBookmark(ctx, bm); err != nil {
		return book.Bookmark{}, err
	}
	return bm, nil
}

// DeleteBookmark removes a bookmark.
func (l *Library) DeleteBookmark(ctx context.Context, id string) error {
	return l.store.DeleteBookmark(ctx, id)
}

// RenameBookmark changes a bookmark's name.
func (l *Library) RenameBookmark(ctx context.Context, id, name string) (book.Bookmark, error) {
	if strings.TrimSpace(name) == "" {
		return book.Bookmark{}, &book.SaveRejectedError{Status: http.StatusBadRequest, Detail: "New name must be provided in 'name' field."}
	}
	if err := l.store.RenameBookmark(ctx, id, name); err != nil {
		return book.Bookmark{}, err
	}
	return l.store.GetBookmark(ctx, id)
}

// Health reports whether the library directory is readable.
func (l *Library) Health(_ context.Context) error {
	info, err := os.Stat(l.root)
	if err != nil {
		return fmt.Errorf("%w: %v", book.ErrUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", book.ErrUnavailable, l.root)
	}
	return nil
}

func validFraction(f float64) bool {
	return f >= 0 && f <= 1
}

// title is the first level-one heading, or the file name without extension.
func title(id, md string) string {
	for line := range strings.Lines(md) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if h, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(h)
		}
		break
	}
	base := path.Base(id)
	return strings.TrimSuffix(base, path.Ext(base))
}

func escapeMeta(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]{}\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
