// Package api is the HTTP backend: books, notes and bookmarks served by the
// reading backend over JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/scroll"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 60 * time.Second

// Options configure a Client.
type Options struct {
	BaseURL string
	// Token is sent as a bearer credential. Empty sends no header.
	Token   string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Client implements book.Backend against the HTTP API. Requests are never
// retried: a failure is reported to the user as-is.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

var _ book.Backend = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	c := &Client{log: opts.Logger}
	c.http = resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		OnAfterResponse(c.logResponse)

	if opts.Token != "" {
		c.http.SetAuthToken(opts.Token)
	}
	return c
}

func (c *Client) logResponse(_ *resty.Client, r *resty.Response) error {
	c.log.Debug().
		Str("method", r.Request.Method).
		Str("url", r.Request.URL).
		Int("status", r.StatusCode()).
		Dur("took", r.Time()).
		Msg("api request")
	return nil
}

// Book fetches a book with its Markdown.
func (c *Client) Book(ctx context.Context, id string) (book.Book, error) {
	var dto bookDTO
	resp, err := c.request(ctx, &dto).
		SetPathParam("id", id).
		Get("/books/{id}")
	if err := check(resp, err, false); err != nil {
		return book.Book{}, fmt.Errorf("get book %s: %w", id, err)
	}
	return dto.toBook(), nil
}

// Books lists all books.
func (c *Client) Books(ctx context.Context) ([]book.Book, error) {
	var dtos []bookDTO
	resp, err := c.request(ctx, &dtos).Get("/books")
	if err := check(resp, err, false); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	books := make([]book.Book, len(dtos))
	for i, d := range dtos {
		books[i] = d.toBook()
		books[i].Markdown = ""
	}
	return books, nil
}

// Notes returns a book's notes in the order the server sent them.
func (c *Client) Notes(ctx context.Context, bookID string) ([]book.Note, error) {
	var dtos []noteDTO
	resp, err := c.request(ctx, &dtos).
		SetPathParam("bookID", bookID).
		Get("/notes/{bookID}")
	if err := check(resp, err, false); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes := make([]book.Note, len(dtos))
	for i, d := range dtos {
		notes[i] = d.toNote()
	}
	return notes, nil
}

// CreateNote persists a note.
func (c *Client) CreateNote(ctx context.Context, n book.NewNote) (book.Note, error) {
	if n.ScrollPercentage != nil {
		f := scroll.RoundFraction(*n.ScrollPercentage)
		n.ScrollPercentage = &f
	}

	var dto noteDTO
	resp, err := c.request(ctx, &dto).
		SetBody(n).
		Post("/notes")
	if err := check(resp, err, true); err != nil {
		return book.Note{}, fmt.Errorf("create note: %w", err)
	}

	note := dto.toNote()
	note.ContentHash = n.ContentHash
	return note, nil
}

// Bookmarks returns a book's bookmarks.
func (c *Client) Bookmarks(ctx context.Context, bookID string) ([]book.Bookmark, error) {
	var dtos []bookmarkDTO
	resp, err := c.request(ctx, &dtos).
		SetPathParam("bookID", bookID).
		Get("/bookmarks/book/{bookID}")
	if err := check(resp, err, false); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	bookmarks := make([]book.Bookmark, len(dtos))
	for i, d := range dtos {
		bookmarks[i] = d.toBookmark()
	}
	return bookmarks, nil
}

// CreateBookmark persists a bookmark.
func (c *Client) CreateBookmark(ctx context.Context, b book.NewBookmark) (book.Bookmark, error) {
	b.ScrollPercentage = scroll.RoundFraction(b.ScrollPercentage)

	var dto bookmarkDTO
	resp, err := c.request(ctx, &dto).
		SetBody(b).
		Post("/bookmarks")
	if err := check(resp, err, true); err != nil {
		return book.Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}

	bm := dto.toBookmark()
	bm.ContentHash = b.ContentHash
	return bm, nil
}

// DeleteBookmark removes a bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	resp, err := c.request(ctx, nil).
		SetPathParam("id", id).
		Delete("/bookmarks/{id}")
	if err := check(resp, err, true); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

// RenameBookmark changes a bookmark's name.
func (c *Client) RenameBookmark(ctx context.Context, id, name string) (book.Bookmark, error) {
	var dto bookmarkDTO
	resp, err := c.request(ctx, &dto).
		SetPathParam("id", id).
		SetBody(map[string]string{"name": name}).
		Put("/bookmarks/{id}/name")
	if err := check(resp, err, true); err != nil {
		return book.Bookmark{}, fmt.Errorf("rename bookmark: %w", err)
	}
	return dto.toBookmark(), nil
}

// Health checks that the backend answers.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	resp, err := c.request(ctx, &body).Get("/health")
	if err := check(resp, err, false); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("health: %w: status %q", book.ErrUnavailable, body.Status)
	}
	return nil
}

func (c *Client) request(ctx context.Context, result any) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if result != nil {
		req.SetResult(result)
	}
	return req
}

// check maps a response to the book error kinds. Writes that the server
// rejects with a 4xx carry the server's message verbatim.
func check(resp *resty.Response, err error, write bool) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", book.ErrUnavailable, err)
	}

	status := resp.StatusCode()
	if status < http.StatusBadRequest {
		return nil
	}

	detail := ""
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		detail = body.message()
	}

	switch {
	case status == http.StatusUnauthorized:
		return book.ErrUnauthenticated
	case status == http.StatusNotFound:
		if detail == "" {
			return book.ErrNotFound
		}
		return fmt.Errorf("%w: %s", book.ErrNotFound, detail)
	case write && status < http.StatusInternalServerError:
		return &book.SaveRejectedError{Status: status, Detail: detail}
	case detail != "":
		return fmt.Errorf("%w: status %d: %s", book.ErrUnavailable, status, detail)
	default:
		return fmt.Errorf("%w: status %d", book.ErrUnavailable, status)
	}
}

// errorBody is the server's error shape. Detail is a string for handled
// errors and a list of field errors for request validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func (e *errorBody) message() string {
	if len(e.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}

	var fields []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if len(f.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", f.Loc[len(f.Loc)-1], f.Msg))
				continue
			}
			msgs = append(msgs, f.Msg)
		}
		return strings.Join(msgs, "; ")
	}

	return string(e.Detail)
}
