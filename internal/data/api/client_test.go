package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/marginalia/internal/core/book"
)

const testToken = "secret"

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Not authenticated"}`)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return New(Options{BaseURL: srv.URL + "/", Token: testToken, Logger: zerolog.Nop()})
}

func TestClient_Book(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /books/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "b1", r.PathValue("id"))
		writeJSON(w, http.StatusOK, `{
			"_id": "b1",
			"title": "Dune",
			"status": "completed",
			"markdown_content": "# Dune\n\nA beginning is a very delicate time.",
			"image_urls": ["https://cdn/x/fig.png"]
		}`)
	})
	c := newTestClient(t, mux)

	b, err := c.Book(context.Background(), "b1")
	require.NoError(t, err)

	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, book.StatusCompleted, b.Status)
	assert.Equal(t, []string{"https://cdn/x/fig.png"}, b.ImageURLs)
	assert.NoError(t, b.Check())
}

func TestClient_ErrorKinds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /books/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "missing":
			writeJSON(w, http.StatusNotFound, `{"detail":"Book not found"}`)
		default:
			writeJSON(w, http.StatusInternalServerError, `{"detail":"boom"}`)
		}
	})
	c := newTestClient(t, mux)

	_, err := c.Book(context.Background(), "missing")
	require.ErrorIs(t, err, book.ErrNotFound)
	assert.Contains(t, err.Error(), "Book not found")

	_, err = c.Book(context.Background(), "broken")
	assert.ErrorIs(t, err, book.ErrUnavailable)

	anon := New(Options{BaseURL: c.http.BaseURL})
	_, err = anon.Book(context.Background(), "b1")
	require.ErrorIs(t, err, book.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "not authenticated, reload")
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, Token: testToken, Timeout: time.Second})

	_, err := c.Notes(context.Background(), "b1")
	assert.ErrorIs(t, err, book.ErrUnavailable)
}

func TestClient_NotesKeepServerOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notes/{bookID}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"id":"n2","book_id":"b1","content":"second","global_character_offset":40,"created_at":"2024-05-01T10:00:01.123456"},
			{"id":"n1","book_id":"b1","content":"first","scroll_percentage":0.25,"source_text":null,"created_at":"2024-05-01T10:00:00Z"}
		]`)
	})
	c := newTestClient(t, mux)

	notes, err := c.Notes(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, "n2", notes[0].ID)
	require.NotNil(t, notes[0].GlobalOffset)
	assert.Equal(t, 40, *notes[0].GlobalOffset)
	assert.True(t, time.Date(2024, 5, 1, 10, 0, 1, 123456000, time.UTC).Equal(notes[0].CreatedAt))

	assert.Nil(t, notes[1].GlobalOffset)
	require.NotNil(t, notes[1].ScrollPercentage)
	assert.Empty(t, notes[1].SourceText)
}

func TestClient_CreateNoteRoundsFraction(t *testing.T) {
	var got map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("POST /notes", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, `{"id":"n9","book_id":"b1","content":"hi","scroll_percentage":0.1235,"global_character_offset":11,"created_at":"2024-05-01T10:00:00"}`)
	})
	c := newTestClient(t, mux)

	f, g := 0.123456, 11
	note, err := c.CreateNote(context.Background(), book.NewNote{
		BookID:           "b1",
		Content:          "hi",
		SourceText:       "gamma",
		ScrollPercentage: &f,
		GlobalOffset:     &g,
		ContentHash:      "abc",
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.1235, got["scroll_percentage"], 1e-12)
	assert.Equal(t, float64(11), got["global_character_offset"])
	assert.Equal(t, "gamma", got["source_text"])
	assert.NotContains(t, got, "ContentHash")

	assert.Equal(t, "n9", note.ID)
	assert.Equal(t, "abc", note.ContentHash)
}

func TestClient_SaveRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bookmarks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"detail":"Invalid book_id format: nope"}`)
	})
	mux.HandleFunc("POST /notes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","content"],"msg":"field required","type":"value_error.missing"}]}`)
	})
	c := newTestClient(t, mux)

	_, err := c.CreateBookmark(context.Background(), book.NewBookmark{BookID: "nope", Name: "x"})
	var rejected *book.SaveRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.Status)
	assert.Equal(t, "Invalid book_id format: nope", rejected.Detail)

	_, err = c.CreateNote(context.Background(), book.NewNote{BookID: "b1"})
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "content: field required", rejected.Detail)
}

func TestClient_Bookmarks(t *testing.T) {
	var renamed string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /bookmarks/book/{bookID}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"id":"bm1","book_id":"b1","name":"ch2","page_number":2,"scroll_percentage":0.5,"created_at":"2024-05-01T10:00:00"}]`)
	})
	mux.HandleFunc("POST /bookmarks", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.InDelta(t, 0.3333, body["scroll_percentage"], 1e-12)
		writeJSON(w, http.StatusCreated, `{"id":"bm2","book_id":"b1","name":"new","page_number":3,"scroll_percentage":0.3333,"created_at":"2024-05-01T10:00:00"}`)
	})
	mux.HandleFunc("PUT /bookmarks/{id}/name", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		renamed = body.Name
		writeJSON(w, http.StatusOK, `{"id":"bm1","book_id":"b1","name":"`+body.Name+`","page_number":2,"scroll_percentage":0.5,"created_at":"2024-05-01T10:00:00"}`)
	})
	mux.HandleFunc("DELETE /bookmarks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "bm1" {
			writeJSON(w, http.StatusNotFound, `{"detail":"Bookmark not found"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	list, err := c.Bookmarks(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].PageNumber)

	bm, err := c.CreateBookmark(ctx, book.NewBookmark{BookID: "b1", Name: "new", PageNumber: 3, ScrollPercentage: 1.0 / 3})
	require.NoError(t, err)
	assert.Equal(t, "bm2", bm.ID)

	bm, err = c.RenameBookmark(ctx, "bm1", "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed)
	assert.Equal(t, "renamed", bm.Name)

	require.NoError(t, c.DeleteBookmark(ctx, "bm1"))
	assert.ErrorIs(t, c.DeleteBookmark(ctx, "bm9"), book.ErrNotFound)
}

func TestClient_Health(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"ok"}`)
	})
	c := newTestClient(t, mux)

	assert.NoError(t, c.Health(context.Background()))
}

func TestErrorBody_Message(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", ``, ""},
		{"string", `"bad thing"`, "bad thing"},
		{"fields", `[{"loc":["body","name"],"msg":"too short"},{"msg":"other"}]`, "name: too short; other"},
		{"object", `{"code":1}`, `{"code":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &errorBody{Detail: json.RawMessage(tt.raw)}
			assert.Equal(t, tt.want, e.message())
		})
	}
}
