package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/colonyops/marginalia/internal/core/book"
)

// timestamp accepts RFC 3339 and the zone-less ISO format the server writes
// for UTC times.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// ids come back as "id" or, from older servers, "_id".
type ids struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
}

func (i ids) get() string {
	if i.ID != "" {
		return i.ID
	}
	return i.MongoID
}

type bookDTO struct {
	ids
	Title           string      `json:"title"`
	Status          book.Status `json:"status"`
	MarkdownContent string      `json:"markdown_content"`
	ImageURLs       []string    `json:"image_urls"`
}

func (d bookDTO) toBook() book.Book {
	return book.Book{
		ID:        d.get(),
		Title:     d.Title,
		Status:    d.Status,
		Markdown:  d.MarkdownContent,
		ImageURLs: d.ImageURLs,
	}
}

type noteDTO struct {
	ids
	BookID           string    `json:"book_id"`
	Content          string    `json:"content"`
	SourceText       string    `json:"source_text"`
	ScrollPercentage *float64  `json:"scroll_percentage"`
	GlobalOffset     *int      `json:"global_character_offset"`
	CreatedAt        timestamp `json:"created_at"`
}

func (d noteDTO) toNote() book.Note {
	return book.Note{
		ID:               d.get(),
		BookID:           d.BookID,
		Content:          d.Content,
		SourceText:       d.SourceText,
		ScrollPercentage: d.ScrollPercentage,
		GlobalOffset:     d.GlobalOffset,
		CreatedAt:        d.CreatedAt.Time,
	}
}

type bookmarkDTO struct {
	ids
	BookID           string    `json:"book_id"`
	Name             string    `json:"name"`
	PageNumber       int       `json:"page_number"`
	ScrollPercentage float64   `json:"scroll_percentage"`
	GlobalOffset     *int      `json:"global_character_offset"`
	CreatedAt        timestamp `json:"created_at"`
}

func (d bookmarkDTO) toBookmark() book.Bookmark {
	return book.Bookmark{
		ID:               d.get(),
		BookID:           d.BookID,
		Name:             d.Name,
		PageNumber:       d.PageNumber,
		ScrollPercentage: d.ScrollPercentage,
		GlobalOffset:     d.GlobalOffset,
		CreatedAt:        d.CreatedAt.Time,
	}
}
