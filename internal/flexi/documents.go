package flexi

import (
	"context"
	"fmt"
	"strings"
)

// Pick is one file chosen by the user for import.
type Pick struct {
	Locator      string
	Name         string
	LastModified int64
}

// DeniedPick is a pick the PermissionGranter refused.
type DeniedPick struct {
	Locator string
	Err     error
}

// ImportResult summarizes an Import call.
type ImportResult struct {
	Added      []Document
	Duplicates []string
	Denied     []DeniedPick
}

// Import adds picks to the current folder. Locators already in the library,
// or repeated within picks, are reported as duplicates. Each new locator is
// passed to the PermissionGranter first; refused picks are reported and
// skipped.
func (l *Library) Import(ctx context.Context, picks []Pick) (*ImportResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(l.docs)+len(picks))
	for _, d := range l.docs {
		seen[d.Locator] = true
	}

	result := &ImportResult{}
	next := cloneDocuments(l.docs)
	for _, p := range picks {
		if seen[p.Locator] {
			result.Duplicates = append(result.Duplicates, p.Locator)
			continue
		}
		seen[p.Locator] = true

		if err := l.granter.Grant(ctx, p.Locator); err != nil {
			l.logger.Warn("read access refused", "locator", p.Locator, "error", err)
			result.Denied = append(result.Denied, DeniedPick{Locator: p.Locator, Err: err})
			continue
		}

		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = p.Locator
		}
		doc := Document{
			ID:             l.idgen.New(),
			Locator:        p.Locator,
			Name:           name,
			LastModified:   p.LastModified,
			ParentFolderID: parentRef(l.current),
		}
		next = append(next, doc)
		result.Added = append(result.Added, doc)
	}

	if len(result.Added) == 0 {
		return result, nil
	}
	if err := l.commitDocuments(ctx, next); err != nil {
		return nil, err
	}

	l.logger.Info("documents imported", "added", len(result.Added), "duplicates", len(result.Duplicates), "denied", len(result.Denied))
	return result, nil
}

// AllDocuments returns every document in the library.
func (l *Library) AllDocuments() ([]Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	return cloneDocuments(l.docs), nil
}

// Documents returns the documents directly inside folderID.
func (l *Library) Documents(folderID string) ([]Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	folderID = NormalizeFolderID(folderID)
	if !l.folderExists(folderID) {
		return nil, fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}

	var out []Document
	for i := range l.docs {
		if l.docs[i].ParentID() == folderID {
			out = append(out, l.docs[i])
		}
	}
	return out, nil
}

// Favorites returns every document marked as favorite, wherever it lives.
func (l *Library) Favorites() ([]Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	var out []Document
	for _, d := range l.docs {
		if d.IsFavorite {
			out = append(out, d)
		}
	}
	return out, nil
}

// FindDocument returns the document with the given id.
func (l *Library) FindDocument(id string) (Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return Document{}, err
	}
	i := l.documentIndex(id)
	if i < 0 {
		return Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return l.docs[i], nil
}

// updateDocument applies fn to a copy of the document with the given id and
// commits the result.
func (l *Library) updateDocument(ctx context.Context, id string, fn func(d *Document) error) (Document, error) {
	if err := l.checkWritable(ctx); err != nil {
		return Document{}, err
	}
	i := l.documentIndex(id)
	if i < 0 {
		return Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	next := cloneDocuments(l.docs)
	if err := fn(&next[i]); err != nil {
		return Document{}, err
	}
	if err := l.commitDocuments(ctx, next); err != nil {
		return Document{}, err
	}
	return next[i], nil
}

// RenameDocument changes a document's display name.
func (l *Library) RenameDocument(ctx context.Context, id, name string) (Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return Document{}, fmt.Errorf("renaming document %s: %w", id, ErrInvalidName)
	}
	return l.updateDocument(ctx, id, func(d *Document) error {
		d.Name = name
		return nil
	})
}

// ToggleFavorite flips a document's favorite flag.
func (l *Library) ToggleFavorite(ctx context.Context, id string) (Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.updateDocument(ctx, id, func(d *Document) error {
		d.IsFavorite = !d.IsFavorite
		return nil
	})
}

// MoveDocument places a document in folderID.
func (l *Library) MoveDocument(ctx context.Context, id, folderID string) (Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open && !l.folderExists(folderID) {
		return Document{}, fmt.Errorf("moving document %s: folder %s: %w", id, folderID, ErrNotFound)
	}
	return l.updateDocument(ctx, id, func(d *Document) error {
		d.ParentFolderID = parentRef(folderID)
		return nil
	})
}

// RemoveDocuments drops documents from the library. Unknown ids are ignored.
// Files behind the locators are left alone. Returns how many were removed.
func (l *Library) RemoveDocuments(ctx context.Context, ids ...string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return l.removeDocumentsWhere(ctx, func(d *Document) bool { return drop[d.ID] })
}

func (l *Library) removeDocumentsWhere(ctx context.Context, match func(d *Document) bool) (int, error) {
	next := make([]Document, 0, len(l.docs))
	for i := range l.docs {
		if !match(&l.docs[i]) {
			next = append(next, l.docs[i])
		}
	}
	removed := len(l.docs) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := l.commitDocuments(ctx, next); err != nil {
		return 0, err
	}
	l.logger.Info("documents removed", "count", removed)
	return removed, nil
}

// OpenDocument marks a document as opened: its LastModified becomes the
// current time and the widget is told which document is showing.
func (l *Library) OpenDocument(ctx context.Context, id string) (Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.updateDocument(ctx, id, func(d *Document) error {
		d.LastModified = l.clock.Now().UnixMilli()
		return nil
	})
	if err != nil {
		return Document{}, err
	}

	l.notify(ctx, WidgetState{DocumentOpen: true, Name: doc.Name})
	return doc, nil
}

// CloseDocument tells the widget no document is showing.
func (l *Library) CloseDocument(ctx context.Context) {
	l.notify(ctx, WidgetState{})
}

func (l *Library) notify(ctx context.Context, state WidgetState) {
	if err := l.notifier.Notify(ctx, state); err != nil {
		l.logger.Warn("widget notification failed", "error", err)
	}
}
