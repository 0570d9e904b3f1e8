package flexi_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flexipdf/internal/flexi"
	"flexipdf/internal/testutil"
)

func TestListStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("json null loads empty", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		testutil.MustPut(t, kv, flexi.KeyDocuments, "null")

		got, err := flexi.NewDocumentStore(kv, nil).Load(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("tolerates unknown and missing fields", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		testutil.MustPut(t, kv, flexi.KeyDocuments, `[{"id":"1","uri":"content://a","name":"a.pdf","pageCount":12}]`)

		got, err := flexi.NewDocumentStore(kv, nil).Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "content://a", got[0].Locator)
		assert.Equal(t, flexi.RootFolderID, got[0].ParentID())
		assert.False(t, got[0].IsFavorite)
	})

	t.Run("wrong shape is treated as corrupted", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		testutil.MustPut(t, kv, flexi.KeyFolders, `{"id":"f1"}`)

		got, err := flexi.NewFolderStore(kv, nil).Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
		_, ok := testutil.MustGet(t, kv, flexi.KeyFolders)
		assert.False(t, ok)
	})

	t.Run("store read failure is reported", func(t *testing.T) {
		kv := testutil.NewFaultyStore(testutil.NewTestStore(t))
		kv.FailGets(true)

		_, err := flexi.NewFolderStore(kv, nil).Load(ctx)
		assert.ErrorIs(t, err, testutil.ErrInjected)
	})

	t.Run("failed cleanup of corrupted value is reported", func(t *testing.T) {
		kv := testutil.NewFaultyStore(testutil.NewTestStore(t))
		testutil.MustPut(t, kv, flexi.KeyFolders, "garbage")
		kv.FailDeletes(true)

		_, err := flexi.NewFolderStore(kv, nil).Load(ctx)
		assert.ErrorIs(t, err, testutil.ErrInjected)
	})
}

func TestListStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("top-level parent persists as null", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		err := flexi.NewFolderStore(kv, nil).Save(ctx, []flexi.Folder{{ID: "f1", Name: "Taxes", IsSelected: true}})
		require.NoError(t, err)

		raw, _ := testutil.MustGet(t, kv, flexi.KeyFolders)
		assert.JSONEq(t, `[{"id":"f1","name":"Taxes","isSelected":false,"parentFolderId":null}]`, raw)
	})

	t.Run("empty list persists as empty array", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		require.NoError(t, flexi.NewDocumentStore(kv, nil).Save(ctx, nil))

		raw, ok := testutil.MustGet(t, kv, flexi.KeyDocuments)
		require.True(t, ok)
		assert.Equal(t, "[]", raw)
	})

	t.Run("write failure is reported", func(t *testing.T) {
		kv := testutil.NewFaultyStore(testutil.NewTestStore(t))
		kv.FailPuts(true)

		err := flexi.NewDocumentStore(kv, nil).Save(ctx, []flexi.Document{{ID: "1"}})
		assert.ErrorIs(t, err, testutil.ErrInjected)
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		kv := testutil.NewFaultyStore(testutil.NewTestStore(t))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := flexi.NewDocumentStore(kv, nil).Save(cctx, []flexi.Document{{ID: "1"}})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, kv.Puts())
	})

	t.Run("cancellation mid-write leaves a complete value", func(t *testing.T) {
		inner := testutil.NewTestStore(t)
		kv := testutil.NewGatedStore(inner)
		store := flexi.NewDocumentStore(kv, nil)
		cctx, cancel := context.WithCancel(ctx)

		errc := make(chan error, 1)
		go func() {
			errc <- store.Save(cctx, []flexi.Document{{ID: "1", Name: "a.pdf"}})
		}()

		<-kv.Entered
		cancel()
		assert.ErrorIs(t, <-errc, context.Canceled)

		kv.Release()
		assert.Eventually(t, func() bool {
			raw, ok := testutil.MustGet(t, inner, flexi.KeyDocuments)
			return ok && raw == `[{"id":"1","uri":"","name":"a.pdf","isSelected":false,"lastModified":0,"isFavorite":false,"parentFolderId":null}]`
		}, time.Second, 5*time.Millisecond)
	})
}

func TestScalarStore(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupted int falls back to default and heals", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		testutil.MustPut(t, kv, "counter", "seven")
		s := flexi.NewScalarStore[int](kv, "counter", 3, flexi.IntCodec{}, nil)

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, got)
		_, ok := testutil.MustGet(t, kv, "counter")
		assert.False(t, ok)
	})

	t.Run("json codec round trip", func(t *testing.T) {
		type window struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		}
		kv := testutil.NewTestStore(t)
		s := flexi.NewScalarStore(kv, "window", window{}, flexi.JSONCodec[window]{}, nil)

		require.NoError(t, s.Save(ctx, window{Width: 800, Height: 600}))
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, window{Width: 800, Height: 600}, got)
	})

	t.Run("clear restores the default", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		s := flexi.NewStringScalar(kv, flexi.KeyTheme, flexi.ThemeSystem, nil)
		require.NoError(t, s.Save(ctx, flexi.ThemeDark))
		require.NoError(t, s.Clear(ctx))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, s.Default(), got)
	})

	t.Run("string is stored raw", func(t *testing.T) {
		kv := testutil.NewTestStore(t)
		s := flexi.NewStringScalar(kv, flexi.KeyCurrentFolder, flexi.RootFolderID, nil)
		require.NoError(t, s.Save(ctx, "folderA"))

		raw, _ := testutil.MustGet(t, kv, flexi.KeyCurrentFolder)
		assert.Equal(t, "folderA", raw)
	})

	t.Run("read failure returns default and error", func(t *testing.T) {
		kv := testutil.NewFaultyStore(testutil.NewTestStore(t))
		kv.FailGets(true)
		s := flexi.NewStringScalar(kv, flexi.KeyCurrentFolder, flexi.RootFolderID, nil)

		got, err := s.Load(ctx)
		assert.True(t, errors.Is(err, testutil.ErrInjected))
		assert.Equal(t, flexi.RootFolderID, got)
	})
}
