package flexi

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListStore persists a homogeneous collection of records as a JSON array
// under a single key. Every Save replaces the whole collection.
//
// The store does no locking; callers serialize mutations of the collection.
type ListStore[T any, P recordPtr[T]] struct {
	kv     KVStore
	key    string
	logger Logger
}

// DocumentStore persists documents under KeyDocuments.
type DocumentStore = ListStore[Document, *Document]

// FolderStore persists folders under KeyFolders.
type FolderStore = ListStore[Folder, *Folder]

// NewListStore creates a ListStore bound to key.
func NewListStore[T any, P recordPtr[T]](kv KVStore, key string, logger Logger) *ListStore[T, P] {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ListStore[T, P]{kv: kv, key: key, logger: logger}
}

// NewDocumentStore creates the document collection store.
func NewDocumentStore(kv KVStore, logger Logger) *DocumentStore {
	return NewListStore[Document](kv, KeyDocuments, logger)
}

// NewFolderStore creates the folder collection store.
func NewFolderStore(kv KVStore, logger Logger) *FolderStore {
	return NewListStore[Folder](kv, KeyFolders, logger)
}

// Key returns the store key the collection lives under.
func (s *ListStore[T, P]) Key() string {
	return s.key
}

// Load reads the collection. An absent key yields an empty list. A value
// that does not decode is logged, deleted from the store and reported as an
// empty list. Every returned record has its selection cleared.
//
// The error is non-nil only if the underlying store fails or ctx ends.
func (s *ListStore[T, P]) Load(ctx context.Context) ([]T, error) {
	return runIO(ctx, func(ctx context.Context) ([]T, error) {
		raw, ok, err := s.kv.Get(ctx, s.key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok {
			return []T{}, nil
		}

		var items []T
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			s.logger.Warn("dropping corrupted collection", "key", s.key, "error", err)
			if err := s.kv.Delete(ctx, s.key); err != nil {
				return nil, fmt.Errorf("deleting corrupted %s: %w", s.key, err)
			}
			return []T{}, nil
		}
		if items == nil {
			return []T{}, nil
		}

		for i := range items {
			P(&items[i]).SetSelected(false)
		}
		return items, nil
	})
}

// Save overwrites the stored collection with items. Records missing from
// items are gone from persistent state afterwards. Selection flags are
// never written as true.
func (s *ListStore[T, P]) Save(ctx context.Context, items []T) error {
	persisted := make([]T, len(items))
	copy(persisted, items)
	for i := range persisted {
		P(&persisted[i]).SetSelected(false)
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.key, err)
	}

	_, err = runIO(ctx, func(ctx context.Context) (struct{}, error) {
		if err := s.kv.Put(ctx, s.key, string(data)); err != nil {
			return struct{}{}, fmt.Errorf("writing %s: %w", s.key, err)
		}
		return struct{}{}, nil
	})
	return err
}
