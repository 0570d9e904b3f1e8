package flexi

import (
	"context"
	"fmt"
	"sync"
)

// Library is the application layer over the persisted collections. It owns
// the in-memory documents, folders and folder cursor, serializes every
// mutation with its own lock, and re-saves a whole collection after each
// change.
type Library struct {
	mu sync.Mutex

	kv        KVStore
	documents *DocumentStore
	folders   *FolderStore
	cursor    *ScalarStore[string]

	granter  PermissionGranter
	notifier WidgetNotifier
	logger   Logger
	clock    Clock
	idgen    IDGenerator

	docs    []Document
	dirs    []Folder
	current string
	open    bool
}

// NewLibrary creates a Library over kv. A nil granter allows every locator
// and a nil notifier drops widget updates.
func NewLibrary(kv KVStore, granter PermissionGranter, notifier WidgetNotifier, logger Logger, clock Clock, idgen IDGenerator) *Library {
	if granter == nil {
		granter = allowAllGranter{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &Library{
		kv:        kv,
		documents: NewDocumentStore(kv, logger),
		folders:   NewFolderStore(kv, logger),
		cursor:    NewStringScalar(kv, KeyCurrentFolder, RootFolderID, logger),
		granter:   granter,
		notifier:  notifier,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// Open migrates the store layout and loads all collections into memory.
// Records without ids get one, records whose parent folder no longer exists
// move to the top level, and a cursor pointing at a missing folder resets to
// the top level. Any such repair is saved back.
func (l *Library) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := Migrate(ctx, l.kv, l.logger, l.idgen); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	dirs, err := l.folders.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading folders: %w", err)
	}
	docs, err := l.documents.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading documents: %w", err)
	}
	current, err := l.cursor.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading current folder: %w", err)
	}

	dirsChanged := ensureIDs[Folder](dirs, l.idgen)
	docsChanged := ensureIDs[Document](docs, l.idgen)

	known := make(map[string]bool, len(dirs))
	for _, f := range dirs {
		known[f.ID] = true
	}
	for i := range dirs {
		if p := dirs[i].ParentID(); !IsRoot(p) && (!known[p] || p == dirs[i].ID) {
			l.logger.Warn("folder parent missing, moving to top level", "folder", dirs[i].ID, "parent", p)
			dirs[i].ParentFolderID = nil
			dirsChanged = true
		}
	}
	if breakFolderCycles(dirs, l.logger) {
		dirsChanged = true
	}
	for i := range docs {
		if p := docs[i].ParentID(); !IsRoot(p) && !known[p] {
			l.logger.Warn("document folder missing, moving to top level", "document", docs[i].ID, "folder", p)
			docs[i].ParentFolderID = nil
			docsChanged = true
		}
	}

	if dirsChanged {
		if err := l.folders.Save(ctx, dirs); err != nil {
			return fmt.Errorf("saving repaired folders: %w", err)
		}
	}
	if docsChanged {
		if err := l.documents.Save(ctx, docs); err != nil {
			return fmt.Errorf("saving repaired documents: %w", err)
		}
	}

	current = NormalizeFolderID(current)
	if !IsRoot(current) && !known[current] {
		l.logger.Warn("current folder missing, resetting to top level", "folder", current)
		current = RootFolderID
		if err := l.cursor.Save(ctx, current); err != nil {
			return fmt.Errorf("resetting current folder: %w", err)
		}
	}

	l.docs = docs
	l.dirs = dirs
	l.current = current
	l.open = true

	l.logger.Debug("library opened", "documents", len(docs), "folders", len(dirs), "current", current)
	return nil
}

// breakFolderCycles moves to the top level one folder of every parent chain
// that loops back on itself, so each folder is reachable from the top level.
// Parents must already be known folders or the top level.
func breakFolderCycles(dirs []Folder, logger Logger) bool {
	index := make(map[string]int, len(dirs))
	for i := range dirs {
		index[dirs[i].ID] = i
	}

	changed := false
	reachable := make(map[string]bool, len(dirs))
	for i := range dirs {
		chain := make(map[string]bool)
		for j := i; ; {
			id := dirs[j].ID
			if reachable[id] {
				break
			}
			if chain[id] {
				logger.Warn("folder cycle, moving to top level", "folder", id, "parent", dirs[j].ParentID())
				dirs[j].ParentFolderID = nil
				changed = true
				break
			}
			chain[id] = true

			next, ok := index[dirs[j].ParentID()]
			if !ok {
				break
			}
			j = next
		}
		for id := range chain {
			reachable[id] = true
		}
	}
	return changed
}

func (l *Library) checkOpen() error {
	if !l.open {
		return ErrNotOpen
	}
	return nil
}

// checkWritable gates a mutation: the library must be open and ctx live.
// Once a mutation starts writing it runs to completion, see commitDocuments.
func (l *Library) checkWritable(ctx context.Context) error {
	if err := l.checkOpen(); err != nil {
		return err
	}
	return ctx.Err()
}

// commitDocuments persists next and swaps it in once the write succeeds.
// The write is waited out even if ctx ends meanwhile, so memory always
// matches what landed in the store.
func (l *Library) commitDocuments(ctx context.Context, next []Document) error {
	if err := l.documents.Save(context.WithoutCancel(ctx), next); err != nil {
		return fmt.Errorf("saving documents: %w", err)
	}
	l.docs = next
	return nil
}

func (l *Library) commitFolders(ctx context.Context, next []Folder) error {
	if err := l.folders.Save(context.WithoutCancel(ctx), next); err != nil {
		return fmt.Errorf("saving folders: %w", err)
	}
	l.dirs = next
	return nil
}

func (l *Library) commitCursor(ctx context.Context, folderID string) error {
	folderID = NormalizeFolderID(folderID)
	if err := l.cursor.Save(context.WithoutCancel(ctx), folderID); err != nil {
		return fmt.Errorf("saving current folder: %w", err)
	}
	l.current = folderID
	return nil
}

func (l *Library) documentIndex(id string) int {
	for i := range l.docs {
		if l.docs[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Library) folderIndex(id string) int {
	for i := range l.dirs {
		if l.dirs[i].ID == id {
			return i
		}
	}
	return -1
}

// folderExists reports whether id is the top level or a known folder.
func (l *Library) folderExists(id string) bool {
	return IsRoot(id) || l.folderIndex(id) >= 0
}

// cloneDocuments copies the slice so callers can't reach the library's state.
// Parent pointers are shared but never written through.
func cloneDocuments(docs []Document) []Document {
	out := make([]Document, len(docs))
	copy(out, docs)
	return out
}

func cloneFolders(dirs []Folder) []Folder {
	out := make([]Folder, len(dirs))
	copy(out, dirs)
	return out
}
