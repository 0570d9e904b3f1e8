package testutil

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flexipdf/internal/flexi"
)

// RunStoreContract checks a KVStore backend against the key-value semantics
// and the collection persistence rules the library depends on.
// newStore must return an empty store.
func RunStoreContract(t *testing.T, newStore func(t *testing.T) flexi.KVStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get on absent key reports not found", func(t *testing.T) {
		kv := newStore(t)
		v, ok, err := kv.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("put overwrites and delete removes", func(t *testing.T) {
		kv := newStore(t)
		require.NoError(t, kv.Put(ctx, "k", "one"))
		require.NoError(t, kv.Put(ctx, "k", "two"))

		v, ok, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "two", v)

		require.NoError(t, kv.Delete(ctx, "k"))
		_, ok, err = kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, kv.Delete(ctx, "k"), "deleting an absent key")
	})

	t.Run("keys lists stored keys", func(t *testing.T) {
		kv := newStore(t)
		require.NoError(t, kv.Put(ctx, flexi.KeyDocuments, "[]"))
		require.NoError(t, kv.Put(ctx, flexi.KeyFolders, "[]"))

		keys, err := kv.Keys(ctx)
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{flexi.KeyFolders, flexi.KeyDocuments}, keys)
	})

	t.Run("rejects unsafe keys", func(t *testing.T) {
		kv := newStore(t)
		assert.Error(t, kv.Put(ctx, "../escape", "x"))
		assert.Error(t, kv.Put(ctx, ".hidden", "x"))
		assert.Error(t, kv.Put(ctx, "", "x"))
	})

	t.Run("round trip clears selection", func(t *testing.T) {
		kv := newStore(t)
		store := flexi.NewDocumentStore(kv, nil)
		parent := "folder-1"
		docs := []flexi.Document{
			{ID: "1", Locator: "file:///a.pdf", Name: "a.pdf", IsSelected: true},
			{ID: "2", Locator: "file:///b.pdf", Name: "b.pdf", LastModified: 42, IsFavorite: true, ParentFolderID: &parent},
		}
		require.NoError(t, store.Save(ctx, docs))

		got, err := store.Load(ctx)
		require.NoError(t, err)

		want := []flexi.Document{
			{ID: "1", Locator: "file:///a.pdf", Name: "a.pdf"},
			{ID: "2", Locator: "file:///b.pdf", Name: "b.pdf", LastModified: 42, IsFavorite: true, ParentFolderID: &parent},
		}
		assert.Equal(t, want, got)
		assert.True(t, docs[0].IsSelected, "Save must not modify the caller's records")
	})

	t.Run("absent key loads empty", func(t *testing.T) {
		kv := newStore(t)
		got, err := flexi.NewFolderStore(kv, nil).Load(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("corrupted value self heals", func(t *testing.T) {
		kv := newStore(t)
		require.NoError(t, kv.Put(ctx, flexi.KeyFolders, "{not json"))
		store := flexi.NewFolderStore(kv, nil)

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)

		_, ok, err := kv.Get(ctx, flexi.KeyFolders)
		require.NoError(t, err)
		assert.False(t, ok, "corrupted key should be deleted")

		got, err = store.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("persisted selection is reset on load", func(t *testing.T) {
		kv := newStore(t)
		raw := `[{"id":"f1","name":"Taxes","isSelected":true,"parentFolderId":null},` +
			`{"id":"f2","name":"2024","isSelected":true,"parentFolderId":"f1"}]`
		require.NoError(t, kv.Put(ctx, flexi.KeyFolders, raw))

		got, err := flexi.NewFolderStore(kv, nil).Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, f := range got {
			assert.False(t, f.IsSelected, "folder %s", f.ID)
		}
	})

	t.Run("save replaces the whole collection", func(t *testing.T) {
		kv := newStore(t)
		store := flexi.NewDocumentStore(kv, nil)
		require.NoError(t, store.Save(ctx, []flexi.Document{{ID: "1", Name: "a.pdf"}, {ID: "2", Name: "b.pdf"}}))
		require.NoError(t, store.Save(ctx, []flexi.Document{{ID: "3", Name: "c.pdf"}}))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []flexi.Document{{ID: "3", Name: "c.pdf"}}, got)
	})

	t.Run("scalar default then saved value", func(t *testing.T) {
		kv := newStore(t)
		cursor := flexi.NewStringScalar(kv, flexi.KeyCurrentFolder, flexi.RootFolderID, nil)

		got, err := cursor.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "root", got)

		require.NoError(t, cursor.Save(ctx, "folderA"))
		got, err = cursor.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "folderA", got)
	})
}
