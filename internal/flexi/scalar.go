package flexi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Codec converts a scalar to and from its stored string form.
type Codec[V any] interface {
	Encode(v V) (string, error)
	Decode(raw string) (V, error)
}

// StringCodec stores strings as-is.
type StringCodec struct{}

func (StringCodec) Encode(v string) (string, error)   { return v, nil }
func (StringCodec) Decode(raw string) (string, error) { return raw, nil }

// IntCodec stores integers in decimal.
type IntCodec struct{}

func (IntCodec) Encode(v int) (string, error)   { return strconv.Itoa(v), nil }
func (IntCodec) Decode(raw string) (int, error) { return strconv.Atoi(raw) }

// JSONCodec stores any JSON-encodable value.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (JSONCodec[V]) Decode(raw string) (V, error) {
	var v V
	err := json.Unmarshal([]byte(raw), &v)
	return v, err
}

// ScalarStore persists a single value under a key. It follows the same
// contract as ListStore: absence yields the default, and an undecodable
// value is deleted and reported as the default.
type ScalarStore[V any] struct {
	kv     KVStore
	key    string
	def    V
	codec  Codec[V]
	logger Logger
}

// NewScalarStore creates a ScalarStore bound to key.
func NewScalarStore[V any](kv KVStore, key string, def V, codec Codec[V], logger Logger) *ScalarStore[V] {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &ScalarStore[V]{kv: kv, key: key, def: def, codec: codec, logger: logger}
}

// NewStringScalar creates a ScalarStore holding a raw string.
func NewStringScalar(kv KVStore, key, def string, logger Logger) *ScalarStore[string] {
	return NewScalarStore[string](kv, key, def, StringCodec{}, logger)
}

// Key returns the store key the value lives under.
func (s *ScalarStore[V]) Key() string {
	return s.key
}

// Default returns the value reported when nothing usable is stored.
func (s *ScalarStore[V]) Default() V {
	return s.def
}

// Load reads the value, falling back to the default when the key is absent
// or its value does not decode.
func (s *ScalarStore[V]) Load(ctx context.Context) (V, error) {
	return runIO(ctx, func(ctx context.Context) (V, error) {
		raw, ok, err := s.kv.Get(ctx, s.key)
		if err != nil {
			return s.def, fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok {
			return s.def, nil
		}

		v, err := s.codec.Decode(raw)
		if err != nil {
			s.logger.Warn("dropping corrupted value", "key", s.key, "error", err)
			if err := s.kv.Delete(ctx, s.key); err != nil {
				return s.def, fmt.Errorf("deleting corrupted %s: %w", s.key, err)
			}
			return s.def, nil
		}
		return v, nil
	})
}

// Save overwrites the stored value.
func (s *ScalarStore[V]) Save(ctx context.Context, v V) error {
	raw, err := s.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.key, err)
	}

	_, err = runIO(ctx, func(ctx context.Context) (struct{}, error) {
		if err := s.kv.Put(ctx, s.key, raw); err != nil {
			return struct{}{}, fmt.Errorf("writing %s: %w", s.key, err)
		}
		return struct{}{}, nil
	})
	return err
}

// Clear deletes the stored value so the next Load reports the default.
func (s *ScalarStore[V]) Clear(ctx context.Context) error {
	_, err := runIO(ctx, func(ctx context.Context) (struct{}, error) {
		if err := s.kv.Delete(ctx, s.key); err != nil {
			return struct{}{}, fmt.Errorf("deleting %s: %w", s.key, err)
		}
		return struct{}{}, nil
	})
	return err
}
