package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"flexipdf/internal/config"
	"flexipdf/internal/encryption"
	"flexipdf/internal/flexi"
	"flexipdf/internal/fs"
	"flexipdf/internal/kvstore"
	"flexipdf/internal/output"
	"flexipdf/internal/query"
	"flexipdf/internal/snapshot"
	"flexipdf/internal/widget"
)

// FlexiApp is the application layer between the CLI and the library.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw paths and folder references, and releases the store on Close.
type FlexiApp struct {
	cfg      *config.Config
	kv       flexi.KVStore
	library  *flexi.Library
	settings *flexi.Settings
	picker   *fs.OSPicker
	clock    flexi.Clock
	logger   flexi.Logger
	op       *Operation
	logFile  *os.File
}

// Options overrides collaborators for tests. Zero values use the real ones.
type Options struct {
	Clock flexi.Clock
	IDs   flexi.IDGenerator
	// Store replaces the configured store. FlexiApp still closes it.
	Store flexi.KVStore
}

// NewFlexiApp creates a fully wired FlexiApp from the given config and
// opens the library. operation names the CLI command being run.
// The caller must call Close when done.
func NewFlexiApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*FlexiApp, error) {
	clock := opts.Clock
	if clock == nil {
		clock = flexi.RealClock{}
	}
	op := NewOperation(operation, clock.Now())

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger.With("op", op.Name)}

	kv := opts.Store
	if kv == nil {
		kv, err = kvstore.NewStoreFromConfig(ctx, cfg.Store)
		if err != nil {
			logFile.Close()
			return nil, fmt.Errorf("creating store: %w", err)
		}
	}

	if m, ok := kv.(kvstore.Migrator); ok {
		if err := m.CheckMigrations(); err != nil {
			kv.Close()
			logFile.Close()
			return nil, fmt.Errorf("store schema out of date (run 'flexipdf store migrate'): %w", err)
		}
	}

	notifier, err := widget.NewNotifierFromConfig(cfg.Widget, clock)
	if err != nil {
		kv.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating widget notifier: %w", err)
	}

	picker := fs.NewOSPicker(cfg.Import.Ignore)
	library := flexi.NewLibrary(kv, picker, notifier, logger, clock, opts.IDs)
	if err := library.Open(ctx); err != nil {
		kv.Close()
		logFile.Close()
		return nil, fmt.Errorf("opening library: %w", err)
	}

	return &FlexiApp{
		cfg:      cfg,
		kv:       kv,
		library:  library,
		settings: flexi.NewSettings(kv, logger),
		picker:   picker,
		clock:    clock,
		logger:   logger,
		op:       op,
		logFile:  logFile,
	}, nil
}

// MigrateStore applies pending store schema migrations and then upgrades
// the key layout. It does not need the schema to be current beforehand.
func MigrateStore(ctx context.Context, cfg *config.Config) error {
	kv, err := kvstore.NewStoreFromConfig(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer kv.Close()

	if m, ok := kv.(kvstore.Migrator); ok {
		if err := m.MigrateUp(); err != nil {
			return fmt.Errorf("migrating store schema: %w", err)
		}
	}
	if err := flexi.Migrate(ctx, kv, nil, flexi.UUIDGenerator{}); err != nil {
		return fmt.Errorf("migrating key layout: %w", err)
	}
	return nil
}

// Library returns the opened library.
func (a *FlexiApp) Library() *flexi.Library {
	return a.library
}

// Settings returns the display preferences.
func (a *FlexiApp) Settings() *flexi.Settings {
	return a.settings
}

// Fail records err as the outcome of the operation and returns it.
func (a *FlexiApp) Fail(err error) error {
	return a.op.Fail(err)
}

// Import resolves raw paths into PDFs and adds them to the current folder.
func (a *FlexiApp) Import(ctx context.Context, rawPaths []string, recursive bool) (*flexi.ImportResult, error) {
	picks, err := a.picker.Pick(rawPaths, recursive)
	if err != nil {
		return nil, a.op.Fail(fmt.Errorf("picking files: %w", err))
	}
	res, err := a.library.Import(ctx, picks)
	return res, a.op.Fail(err)
}

// ResolveFolder accepts a folder id, "root", "/" or a slash-separated path
// of folder names such as "Taxes/2024". Relative paths start at the current
// folder; ".." steps up.
func (a *FlexiApp) ResolveFolder(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "/" || flexi.IsRoot(ref) {
		return flexi.RootFolderID, nil
	}
	if _, err := a.library.FindFolder(ref); err == nil {
		return ref, nil
	}

	cur := flexi.RootFolderID
	if !strings.HasPrefix(ref, "/") {
		c, err := a.library.CurrentFolder()
		if err != nil {
			return "", err
		}
		cur = c
	}

	for _, part := range strings.Split(strings.Trim(ref, "/"), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			if flexi.IsRoot(cur) {
				continue
			}
			f, err := a.library.FindFolder(cur)
			if err != nil {
				return "", err
			}
			cur = f.ParentID()
			continue
		}

		children, err := a.library.Folders(cur)
		if err != nil {
			return "", err
		}
		next := ""
		for _, c := range children {
			if c.Name == part {
				if next != "" {
					return "", fmt.Errorf("folder name %q is ambiguous", part)
				}
				next = c.ID
			}
		}
		if next == "" {
			return "", fmt.Errorf("folder %q: %w", ref, flexi.ErrNotFound)
		}
		cur = next
	}
	return cur, nil
}

// ResolveDocument accepts a document id or a document name. A name must be
// unique among the documents in the current folder, or else in the library.
func (a *FlexiApp) ResolveDocument(ref string) (flexi.Document, error) {
	if d, err := a.library.FindDocument(ref); err == nil {
		return d, nil
	}

	current, err := a.library.CurrentFolder()
	if err != nil {
		return flexi.Document{}, err
	}
	here, err := a.library.Documents(current)
	if err != nil {
		return flexi.Document{}, err
	}
	all, err := a.library.AllDocuments()
	if err != nil {
		return flexi.Document{}, err
	}

	for _, scope := range [][]flexi.Document{here, all} {
		var found []flexi.Document
		for _, d := range scope {
			if d.Name == ref {
				found = append(found, d)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return flexi.Document{}, fmt.Errorf("document name %q is ambiguous; use its id", ref)
		}
	}
	return flexi.Document{}, fmt.Errorf("document %q: %w", ref, flexi.ErrNotFound)
}

// FolderPath returns the display path of a folder, "/" for the top level.
func (a *FlexiApp) FolderPath(id string) (string, error) {
	path, err := a.library.Path(id)
	if err != nil {
		return "", err
	}
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.Name
	}
	return "/" + strings.Join(names, "/"), nil
}

// ListOptions selects the documents returned by ListDocuments.
type ListOptions struct {
	// Folder is a folder reference; empty means the current folder.
	Folder    string
	All       bool
	Favorites bool
	// Where is an optional filter expression, see package query.
	Where string
}

// ListDocuments returns documents sorted by name.
func (a *FlexiApp) ListDocuments(opts ListOptions) ([]flexi.Document, error) {
	var filter *query.Filter
	if opts.Where != "" {
		f, err := query.Compile(opts.Where)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	var docs []flexi.Document
	var err error
	switch {
	case opts.All:
		docs, err = a.library.AllDocuments()
	case opts.Favorites:
		docs, err = a.library.Favorites()
	default:
		var folderID string
		if opts.Folder == "" {
			folderID, err = a.library.CurrentFolder()
		} else {
			folderID, err = a.ResolveFolder(opts.Folder)
		}
		if err != nil {
			return nil, err
		}
		docs, err = a.library.Documents(folderID)
	}
	if err != nil {
		return nil, err
	}

	if filter != nil {
		docs, err = filter.Apply(docs, a.clock.Now())
		if err != nil {
			return nil, err
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return strings.ToLower(docs[i].Name) < strings.ToLower(docs[j].Name)
	})
	return docs, nil
}

// Tree renders the whole library as a text tree.
func (a *FlexiApp) Tree() (string, error) {
	folders, err := a.library.AllFolders()
	if err != nil {
		return "", err
	}
	docs, err := a.library.AllDocuments()
	if err != nil {
		return "", err
	}
	return output.RenderLibrary("/", folders, docs), nil
}

// WidgetStatus reads back the widget state file.
func (a *FlexiApp) WidgetStatus() (widget.State, error) {
	if a.cfg.Widget.Type != "statefile" {
		return widget.State{}, fmt.Errorf("widget type %q keeps no state", a.cfg.Widget.Type)
	}
	return widget.Read(a.cfg.Widget.StatePath)
}

// BackupStore copies the SQLite database to destPath.
func (a *FlexiApp) BackupStore(destPath string) error {
	s, ok := a.kv.(*kvstore.SQLiteStore)
	if !ok {
		return a.op.Fail(fmt.Errorf("backup needs the sqlite store; use 'snapshot export' instead"))
	}
	absPath, err := filepath.Abs(destPath)
	if err != nil {
		return a.op.Fail(fmt.Errorf("resolving path: %w", err))
	}
	if err := s.BackupTo(absPath); err != nil {
		return a.op.Fail(err)
	}
	a.logger.Info("store backed up", "path", absPath)
	return nil
}

// ExportSnapshot writes every store key to path, sealed as configured.
func (a *FlexiApp) ExportSnapshot(ctx context.Context, path string, passphrase encryption.PassphraseFunc) (int, error) {
	sealer, err := encryption.NewSealerFromConfig(a.cfg.Encryption, passphrase)
	if err != nil {
		return 0, a.op.Fail(err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return 0, a.op.Fail(fmt.Errorf("creating snapshot file: %w", err))
	}
	n, err := snapshot.Export(ctx, a.kv, f, sealer, a.clock.Now())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, a.op.Fail(err)
	}

	a.logger.Info("snapshot exported", "path", path, "entries", n)
	return n, nil
}

// ImportSnapshot restores store keys from path and reloads the library.
// An encrypted snapshot asks for the passphrase whatever the configured
// encryption type.
func (a *FlexiApp) ImportSnapshot(ctx context.Context, path string, passphrase encryption.PassphraseFunc, replace bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, a.op.Fail(fmt.Errorf("opening snapshot file: %w", err))
	}
	defer f.Close()

	r := bufio.NewReader(f)
	sealed, err := snapshot.Sealed(r)
	if err != nil {
		return 0, a.op.Fail(err)
	}

	var sealer encryption.Sealer = encryption.PlainSealer{}
	if sealed {
		cfg := a.cfg.Encryption
		cfg.Type = "age"
		if sealer, err = encryption.NewSealerFromConfig(cfg, passphrase); err != nil {
			return 0, a.op.Fail(err)
		}
	}

	n, err := snapshot.Import(ctx, a.kv, r, sealer, replace)
	if err != nil {
		return 0, a.op.Fail(err)
	}
	if err := a.library.Open(ctx); err != nil {
		return n, a.op.Fail(fmt.Errorf("reloading library: %w", err))
	}

	a.logger.Info("snapshot imported", "path", path, "entries", n, "replace", replace)
	return n, nil
}

// Close logs the outcome of the operation and releases the store.
func (a *FlexiApp) Close() error {
	a.logger.Debug("operation finished", "status", a.op.Status, "elapsed", a.op.Elapsed(a.clock.Now()))

	var errs []error
	if err := a.kv.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
	}
	return errors.Join(errs...)
}
