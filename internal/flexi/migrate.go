package flexi

import (
	"context"
	"fmt"
)

// Migrate brings the store's key layout up to CurrentSchemaVersion.
//
// A store without a schema version is either fresh or was written by a build
// that used unversioned keys. Unversioned collections are copied into their
// _v1 keys (records without ids get one) unless the _v1 key already holds
// data, and the unversioned keys are deleted. A version newer than
// CurrentSchemaVersion is refused.
func Migrate(ctx context.Context, kv KVStore, logger Logger, idgen IDGenerator) error {
	if logger == nil {
		logger = NewNopLogger()
	}

	version := NewScalarStore[int](kv, KeySchemaVersion, 0, IntCodec{}, logger)
	current, err := version.Load(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	switch {
	case current == CurrentSchemaVersion:
		return nil
	case current > CurrentSchemaVersion:
		return fmt.Errorf("%w: store is at version %d, binary supports %d", ErrSchemaTooNew, current, CurrentSchemaVersion)
	}

	if err := migrateLegacyList[Document](ctx, kv, legacyKeyDocuments, KeyDocuments, logger, idgen); err != nil {
		return err
	}
	if err := migrateLegacyList[Folder](ctx, kv, legacyKeyFolders, KeyFolders, logger, idgen); err != nil {
		return err
	}
	if err := migrateLegacyScalar(ctx, kv, legacyKeyCurrentFolder, KeyCurrentFolder, logger); err != nil {
		return err
	}

	if err := version.Save(ctx, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("writing schema version: %w", err)
	}
	logger.Info("schema migrated", "from", current, "to", CurrentSchemaVersion)
	return nil
}

// migrateLegacyList moves a collection from an unversioned key to its versioned key.
func migrateLegacyList[T any, P recordPtr[T]](ctx context.Context, kv KVStore, from, to string, logger Logger, idgen IDGenerator) error {
	_, present, err := kv.Get(ctx, from)
	if err != nil {
		return fmt.Errorf("reading %s: %w", from, err)
	}
	if !present {
		return nil
	}

	_, taken, err := kv.Get(ctx, to)
	if err != nil {
		return fmt.Errorf("reading %s: %w", to, err)
	}

	if !taken {
		// Load applies the usual self-heal, so a corrupted legacy list migrates as empty.
		items, err := NewListStore[T, P](kv, from, logger).Load(ctx)
		if err != nil {
			return err
		}
		ensureIDs[T, P](items, idgen)
		if err := NewListStore[T, P](kv, to, logger).Save(ctx, items); err != nil {
			return err
		}
		logger.Info("collection migrated", "from", from, "to", to, "count", len(items))
	} else {
		logger.Warn("discarding legacy collection, versioned key already present", "from", from, "to", to)
	}

	if err := kv.Delete(ctx, from); err != nil {
		return fmt.Errorf("deleting %s: %w", from, err)
	}
	return nil
}

func migrateLegacyScalar(ctx context.Context, kv KVStore, from, to string, logger Logger) error {
	value, present, err := kv.Get(ctx, from)
	if err != nil {
		return fmt.Errorf("reading %s: %w", from, err)
	}
	if !present {
		return nil
	}

	_, taken, err := kv.Get(ctx, to)
	if err != nil {
		return fmt.Errorf("reading %s: %w", to, err)
	}
	if !taken {
		if err := kv.Put(ctx, to, NormalizeFolderID(value)); err != nil {
			return fmt.Errorf("writing %s: %w", to, err)
		}
		logger.Info("value migrated", "from", from, "to", to)
	}

	if err := kv.Delete(ctx, from); err != nil {
		return fmt.Errorf("deleting %s: %w", from, err)
	}
	return nil
}
