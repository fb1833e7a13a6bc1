package reader

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/colonyops/marginalia/internal/core/kv"
)

// progressNamespace prefixes progress keys in the KV store.
const progressNamespace = "progress"

// KVProgress stores reading positions in a KV store, one key per book.
type KVProgress struct {
	kv *kv.TypedKV[Progress]
}

var _ ProgressStore = (*KVProgress)(nil)

// SavedProgress is a book's saved position and when it was last written.
type SavedProgress struct {
	BookID string `json:"book_id"`
	Progress
	UpdatedAt time.Time `json:"updated_at"`
}

// NewKVProgress creates a progress store over store.
func NewKVProgress(store kv.KV) *KVProgress {
	return &KVProgress{kv: kv.Scoped[Progress](store, progressNamespace)}
}

// Get returns the saved position of a book. A book never opened returns the
// zero Progress and no error.
func (p *KVProgress) Get(ctx context.Context, bookID string) (Progress, error) {
	return p.kv.GetOr(ctx, bookID, Progress{})
}

// Set saves the position of a book.
func (p *KVProgress) Set(ctx context.Context, bookID string, prog Progress) error {
	return p.kv.Set(ctx, bookID, prog)
}

// List returns every saved position, most recently read first.
func (p *KVProgress) List(ctx context.Context) ([]SavedProgress, error) {
	ids, err := p.kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	saved := make([]SavedProgress, 0, len(ids))
	for _, id := range ids {
		prog, err := p.kv.Get(ctx, id)
		if kv.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read progress %q: %w", id, err)
		}

		entry, err := p.kv.Entry(ctx, id)
		if kv.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read progress %q: %w", id, err)
		}

		saved = append(saved, SavedProgress{BookID: id, Progress: prog, UpdatedAt: entry.UpdatedAt})
	}

	slices.SortStableFunc(saved, func(a, b SavedProgress) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return saved, nil
}

// Forget deletes the saved position of a book and reports whether there
// was one.
func (p *KVProgress) Forget(ctx context.Context, bookID string) (bool, error) {
	ok, err := p.kv.Has(ctx, bookID)
	if err != nil || !ok {
		return false, err
	}
	return true, p.kv.Delete(ctx, bookID)
}
