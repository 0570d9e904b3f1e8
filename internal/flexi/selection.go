package flexi

import (
	"context"
	"fmt"
)

// Selection lives only in memory. Saves never write it and loads clear it.

// Select marks documents or folders as selected.
func (l *Library) Select(ids ...string) error {
	return l.setSelected(true, ids)
}

// Deselect clears the selection on documents or folders.
func (l *Library) Deselect(ids ...string) error {
	return l.setSelected(false, ids)
}

func (l *Library) setSelected(selected bool, ids []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return err
	}
	for _, id := range ids {
		if i := l.documentIndex(id); i >= 0 {
			l.docs[i].SetSelected(selected)
			continue
		}
		if i := l.folderIndex(id); i >= 0 {
			l.dirs[i].SetSelected(selected)
			continue
		}
		return fmt.Errorf("selecting %s: %w", id, ErrNotFound)
	}
	return nil
}

// SelectAll selects every document directly inside folderID.
func (l *Library) SelectAll(folderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return err
	}
	folderID = NormalizeFolderID(folderID)
	if !l.folderExists(folderID) {
		return fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
	}
	for i := range l.docs {
		if l.docs[i].ParentID() == folderID {
			l.docs[i].SetSelected(true)
		}
	}
	return nil
}

// ClearSelection deselects everything.
func (l *Library) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.docs {
		l.docs[i].SetSelected(false)
	}
	for i := range l.dirs {
		l.dirs[i].SetSelected(false)
	}
}

// Selected returns the selected documents and folders.
func (l *Library) Selected() ([]Document, []Folder) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var docs []Document
	for _, d := range l.docs {
		if d.IsSelected {
			docs = append(docs, d)
		}
	}
	var dirs []Folder
	for _, f := range l.dirs {
		if f.IsSelected {
			dirs = append(dirs, f)
		}
	}
	return docs, dirs
}

// RemoveSelected drops every selected document from the library.
func (l *Library) RemoveSelected(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return 0, err
	}
	return l.removeDocumentsWhere(ctx, func(d *Document) bool { return d.IsSelected })
}
