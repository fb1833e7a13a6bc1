package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/marginalia/internal/core/kv"
	"github.com/colonyops/marginalia/internal/data/db"
	"github.com/colonyops/marginalia/internal/data/stores"
)

type position struct {
	Page     int     `json:"page"`
	Fraction float64 `json:"fraction"`
}

func newTestKV(t *testing.T) kv.KV {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewKVStore(database)
}

func TestTypedKV_SetAndGet(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[position](newTestKV(t), "progress")

	require.NoError(t, typed.Set(ctx, "book-1", position{Page: 3, Fraction: 0.25}))

	got, err := typed.Get(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, position{Page: 3, Fraction: 0.25}, got)
}

func TestTypedKV_GetMissing(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[position](newTestKV(t), "progress")

	_, err := typed.Get(ctx, "missing")
	assert.True(t, kv.IsNotFound(err))

	got, err := typed.GetOr(ctx, "missing", position{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Page)
}

func TestTypedKV_ScopedPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestKV(t)

	progress := kv.Scoped[int](store, "progress")
	other := kv.Scoped[int](store, "other")

	require.NoError(t, progress.Set(ctx, "a", 10))
	require.NoError(t, progress.Set(ctx, "b", 11))
	require.NoError(t, other.Set(ctx, "a", 20))

	a, err := progress.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, a)

	keys, err := progress.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	raw, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, raw, "other:a")
}

func TestTypedKV_DeleteAndHas(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[string](newTestKV(t), "ns")

	has, err := typed.Has(ctx, "key")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, typed.Set(ctx, "key", "val"))
	has, err = typed.Has(ctx, "key")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, typed.Delete(ctx, "key"))
	has, err = typed.Has(ctx, "key")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTypedKV_TTL(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[string](newTestKV(t), "ttl")

	require.NoError(t, typed.SetTTL(ctx, "temp", "gone", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := typed.Get(ctx, "temp")
	assert.True(t, kv.IsNotFound(err))
}
