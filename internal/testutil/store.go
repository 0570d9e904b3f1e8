package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"flexipdf/internal/flexi"
	"flexipdf/internal/kvstore"
)

// ErrInjected is the failure FaultyStore returns for a failing operation.
var ErrInjected = errors.New("injected store failure")

// NewTestStore creates an empty in-memory store closed when the test completes.
func NewTestStore(t *testing.T) *kvstore.MemoryStore {
	t.Helper()
	s := kvstore.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

// MustPut writes a raw value or fails the test.
func MustPut(t *testing.T, kv flexi.KVStore, key, value string) {
	t.Helper()
	if err := kv.Put(context.Background(), key, value); err != nil {
		t.Fatalf("Put(%q) error = %v", key, err)
	}
}

// MustGet reads a raw value or fails the test.
func MustGet(t *testing.T, kv flexi.KVStore, key string) (string, bool) {
	t.Helper()
	v, ok, err := kv.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", key, err)
	}
	return v, ok
}

// FaultyStore wraps a KVStore and fails chosen operations with ErrInjected.
type FaultyStore struct {
	flexi.KVStore

	mu         sync.Mutex
	failGet    bool
	failPut    bool
	failDelete bool
	puts       int
}

// NewFaultyStore wraps inner. No operation fails until configured to.
func NewFaultyStore(inner flexi.KVStore) *FaultyStore {
	return &FaultyStore{KVStore: inner}
}

// FailGets makes every Get fail while on is true.
func (f *FaultyStore) FailGets(on bool) { f.mu.Lock(); f.failGet = on; f.mu.Unlock() }

// FailPuts makes every Put fail while on is true.
func (f *FaultyStore) FailPuts(on bool) { f.mu.Lock(); f.failPut = on; f.mu.Unlock() }

// FailDeletes makes every Delete fail while on is true.
func (f *FaultyStore) FailDeletes(on bool) { f.mu.Lock(); f.failDelete = on; f.mu.Unlock() }

// Puts returns how many Put calls reached the wrapped store.
func (f *FaultyStore) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func (f *FaultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", false, ErrInjected
	}
	return f.KVStore.Get(ctx, key)
}

func (f *FaultyStore) Put(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.failPut
	if !fail {
		f.puts++
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KVStore.Put(ctx, key, value)
}

func (f *FaultyStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDelete
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.KVStore.Delete(ctx, key)
}

// GatedStore wraps a KVStore and holds every Put until Release is called.
// Entered receives a value each time a Put starts waiting.
type GatedStore struct {
	flexi.KVStore

	Entered chan struct{}
	gate    chan struct{}
	once    sync.Once
}

// NewGatedStore wraps inner with a closed-until-released gate on Put.
func NewGatedStore(inner flexi.KVStore) *GatedStore {
	return &GatedStore{
		KVStore: inner,
		Entered: make(chan struct{}, 16),
		gate:    make(chan struct{}),
	}
}

// Release lets every held and future Put proceed.
func (g *GatedStore) Release() {
	g.once.Do(func() { close(g.gate) })
}

func (g *GatedStore) Put(ctx context.Context, key, value string) error {
	g.Entered <- struct{}{}
	<-g.gate
	return g.KVStore.Put(ctx, key, value)
}
