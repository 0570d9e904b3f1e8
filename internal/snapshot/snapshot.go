// Package snapshot copies every key of a store to and from a single,
// optionally encrypted, JSON document.
package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"flexipdf/internal/encryption"
	"flexipdf/internal/flexi"
	"flexipdf/internal/kvstore"
)

// FormatVersion is written to every snapshot.
const FormatVersion = 1

// Snapshot is the exported form of a store.
type Snapshot struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Entries    map[string]string `json:"entries"`
}

// Keys returns the entry keys in sorted order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Entries))
	for k := range s.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Export writes every key of kv to w through sealer and returns the number
// of entries written.
func Export(ctx context.Context, kv flexi.KVStore, w io.Writer, sealer encryption.Sealer, now time.Time) (int, error) {
	keys, err := kv.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing keys: %w", err)
	}

	snap := Snapshot{
		Version:    FormatVersion,
		ExportedAt: now.UTC(),
		Entries:    make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		v, ok, err := kv.Get(ctx, k)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", k, err)
		}
		if ok {
			snap.Entries[k] = v
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encoding snapshot: %w", err)
	}
	if sealer == nil {
		sealer = encryption.PlainSealer{}
	}
	if err := sealer.Seal(bytes.NewReader(data), w); err != nil {
		return 0, fmt.Errorf("sealing snapshot: %w", err)
	}
	return len(snap.Entries), nil
}

// Read decodes a snapshot from r, opening it with sealer.
func Read(r io.Reader, sealer encryption.Sealer) (*Snapshot, error) {
	if sealer == nil {
		sealer = encryption.PlainSealer{}
	}
	var plain bytes.Buffer
	if err := sealer.Open(r, &plain); err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(plain.Bytes(), &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version < 1 || snap.Version > FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// validate checks every entry the store would refuse or the library could
// not read, so Import fails before it changes anything.
func (s *Snapshot) validate() error {
	for _, k := range s.Keys() {
		if err := kvstore.ValidateKey(k); err != nil {
			return fmt.Errorf("snapshot entry: %w", err)
		}
	}
	if raw, ok := s.Entries[flexi.KeySchemaVersion]; ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("snapshot schema version %q is not a number", raw)
		}
		if v > flexi.CurrentSchemaVersion {
			return fmt.Errorf("%w: snapshot is at version %d, binary supports %d", flexi.ErrSchemaTooNew, v, flexi.CurrentSchemaVersion)
		}
	}
	return nil
}

// Import writes the snapshot's entries into kv and returns how many were
// written. With replace set, keys in kv that the snapshot lacks are deleted
// once every entry has been written. A snapshot that fails to read or
// validate leaves kv untouched.
func Import(ctx context.Context, kv flexi.KVStore, r io.Reader, sealer encryption.Sealer, replace bool) (int, error) {
	snap, err := Read(r, sealer)
	if err != nil {
		return 0, err
	}

	var existing []string
	if replace {
		if existing, err = kv.Keys(ctx); err != nil {
			return 0, fmt.Errorf("listing keys: %w", err)
		}
	}

	for _, k := range snap.Keys() {
		if err := kv.Put(ctx, k, snap.Entries[k]); err != nil {
			return 0, fmt.Errorf("writing %s: %w", k, err)
		}
	}

	for _, k := range existing {
		if _, keep := snap.Entries[k]; keep {
			continue
		}
		if err := kv.Delete(ctx, k); err != nil {
			return len(snap.Entries), fmt.Errorf("deleting %s: %w", k, err)
		}
	}
	return len(snap.Entries), nil
}

// Sealed reports whether the data buffered in r is encrypted, so callers
// know to ask for a passphrase before Import.
func Sealed(r *bufio.Reader) (bool, error) {
	return encryption.IsSealed(r)
}
