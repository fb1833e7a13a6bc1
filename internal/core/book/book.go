// Package book holds the domain types of the reading workbench: books, the
// notes and bookmarks anchored into them, and the backend they come from.
package book

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status is the ingestion state of a book.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// errorPrefix marks content the converter wrote in place of a failed book.
const errorPrefix = "Error: "

// Book is a converted document.
type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Status    Status   `json:"status"`
	Markdown  string   `json:"markdown_content,omitempty"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// Check reports whether the book can be read. It returns ErrIncomplete while
// the book is processing or empty and ErrUnavailable when conversion failed.
func (b Book) Check() error {
	switch {
	case b.Status == StatusFailed:
		return fmt.Errorf("%w: conversion failed", ErrUnavailable)
	case b.Status != StatusCompleted:
		return fmt.Errorf("%w: status is %s", ErrIncomplete, b.Status)
	case strings.HasPrefix(b.Markdown, errorPrefix):
		return fmt.Errorf("%w: %s", ErrUnavailable, strings.TrimPrefix(b.Markdown, errorPrefix))
	case strings.TrimSpace(b.Markdown) == "":
		return fmt.Errorf("%w: no content", ErrIncomplete)
	}
	return nil
}

// ContentHash returns the SHA-256 of a book's Markdown.
func ContentHash(markdown string) string {
	sum := sha256.Sum256([]byte(markdown))
	return hex.EncodeToString(sum[:])
}

// Note is a comment anchored to a position in a book.
type Note struct {
	ID               string    `json:"id"`
	BookID           string    `json:"book_id"`
	Content          string    `json:"content"`
	SourceText       string    `json:"source_text,omitempty"`
	ScrollPercentage *float64  `json:"scroll_percentage,omitempty"`
	GlobalOffset     *int      `json:"global_character_offset,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	// ContentHash is the hash of the Markdown the offset refers to. Empty
	// when the backend does not track it.
	ContentHash string `json:"-"`
}

// NewNote is the payload for creating a note.
type NewNote struct {
	BookID           string   `json:"book_id"`
	Content          string   `json:"content"`
	SourceText       string   `json:"source_text,omitempty"`
	ScrollPercentage *float64 `json:"scroll_percentage,omitempty"`
	GlobalOffset     *int     `json:"global_character_offset,omitempty"`
	ContentHash      string   `json:"-"`
}

// Bookmark is a named position in a book.
type Bookmark struct {
	ID               string    `json:"id"`
	BookID           string    `json:"book_id"`
	Name             string    `json:"name"`
	PageNumber       int       `json:"page_number"`
	ScrollPercentage float64   `json:"scroll_percentage"`
	GlobalOffset     *int      `json:"global_character_offset,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ContentHash      string    `json:"-"`
}

// NewBookmark is the payload for creating a bookmark.
type NewBookmark struct {
	BookID           string  `json:"book_id"`
	Name             string  `json:"name"`
	PageNumber       int     `json:"page_number"`
	ScrollPercentage float64 `json:"scroll_percentage"`
	GlobalOffset     *int    `json:"global_character_offset,omitempty"`
	ContentHash      string  `json:"-"`
}

// Kind distinguishes anchor types.
type Kind int

const (
	KindNote Kind = iota
	KindBookmark
)

func (k Kind) String() string {
	if k == KindBookmark {
		return "bookmark"
	}
	return "note"
}

// Anchor is a note or bookmark in creation order.
type Anchor struct {
	Kind     Kind
	Note     *Note
	Bookmark *Bookmark
}

// ID returns the anchor's identifier.
func (a Anchor) ID() string {
	if a.Kind == KindBookmark {
		return a.Bookmark.ID
	}
	return a.Note.ID
}

// CreatedAt returns when the anchor was created.
func (a Anchor) CreatedAt() time.Time {
	if a.Kind == KindBookmark {
		return a.Bookmark.CreatedAt
	}
	return a.Note.CreatedAt
}

// Offset returns the anchor's global offset, if it has one.
func (a Anchor) Offset() (int, bool) {
	var p *int
	if a.Kind == KindBookmark {
		p = a.Bookmark.GlobalOffset
	} else {
		p = a.Note.GlobalOffset
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Hash returns the content hash recorded with the anchor.
func (a Anchor) Hash() string {
	if a.Kind == KindBookmark {
		return a.Bookmark.ContentHash
	}
	return a.Note.ContentHash
}

// Anchors merges notes and bookmarks sorted by creation time.
func Anchors(notes []Note, bookmarks []Bookmark) []Anchor {
	out := make([]Anchor, 0, len(notes)+len(bookmarks))
	for i := range notes {
		out = append(out, Anchor{Kind: KindNote, Note: &notes[i]})
	}
	for i := range bookmarks {
		out = append(out, Anchor{Kind: KindBookmark, Bookmark: &bookmarks[i]})
	}

	slices.SortStableFunc(out, func(a, b Anchor) int {
		return a.CreatedAt().Compare(b.CreatedAt())
	})
	return out
}

// Resolvable reports whether the anchor can be followed in a document of
// length textLen with content hash hash. Notes without an offset and
// anchors recorded against different content are not resolvable. Bookmarks
// resolve by page number when they carry no offset.
func (a Anchor) Resolvable(textLen int, hash string) bool {
	if h := a.Hash(); h != "" && hash != "" && h != hash {
		return false
	}

	g, ok := a.Offset()
	if !ok {
		return a.Kind == KindBookmark
	}
	return g >= 0 && g <= textLen
}
