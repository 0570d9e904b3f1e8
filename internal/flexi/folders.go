package flexi

import (
	"context"
	"fmt"
	"strings"
)

// AllFolders returns every folder in the library.
func (l *Library) AllFolders() ([]Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	return cloneFolders(l.dirs), nil
}

// Folders returns the folders directly inside parentID.
func (l *Library) Folders(parentID string) ([]Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	parentID = NormalizeFolderID(parentID)
	if !l.folderExists(parentID) {
		return nil, fmt.Errorf("folder %s: %w", parentID, ErrNotFound)
	}

	var out []Folder
	for i := range l.dirs {
		if l.dirs[i].ParentID() == parentID {
			out = append(out, l.dirs[i])
		}
	}
	return out, nil
}

// FindFolder returns the folder with the given id.
func (l *Library) FindFolder(id string) (Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return Folder{}, err
	}
	i := l.folderIndex(id)
	if i < 0 {
		return Folder{}, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	return l.dirs[i], nil
}

// CreateFolder adds a folder named name inside parentID.
func (l *Library) CreateFolder(ctx context.Context, name, parentID string) (Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return Folder{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, fmt.Errorf("creating folder: %w", ErrInvalidName)
	}
	if !l.folderExists(parentID) {
		return Folder{}, fmt.Errorf("creating folder: parent %s: %w", parentID, ErrNotFound)
	}

	folder := Folder{
		ID:             l.idgen.New(),
		Name:           name,
		ParentFolderID: parentRef(parentID),
	}
	next := append(cloneFolders(l.dirs), folder)
	if err := l.commitFolders(ctx, next); err != nil {
		return Folder{}, err
	}

	l.logger.Info("folder created", "id", folder.ID, "name", name, "parent", folder.ParentID())
	return folder, nil
}

// RenameFolder changes a folder's display name.
func (l *Library) RenameFolder(ctx context.Context, id, name string) (Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return Folder{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, fmt.Errorf("renaming folder %s: %w", id, ErrInvalidName)
	}
	i := l.folderIndex(id)
	if i < 0 {
		return Folder{}, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}

	next := cloneFolders(l.dirs)
	next[i].Name = name
	if err := l.commitFolders(ctx, next); err != nil {
		return Folder{}, err
	}
	return next[i], nil
}

// MoveFolder re-parents a folder. Moving a folder into itself or into one of
// its descendants fails with ErrInvalidMove.
func (l *Library) MoveFolder(ctx context.Context, id, parentID string) (Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return Folder{}, err
	}
	i := l.folderIndex(id)
	if i < 0 {
		return Folder{}, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	if !l.folderExists(parentID) {
		return Folder{}, fmt.Errorf("moving folder %s: parent %s: %w", id, parentID, ErrNotFound)
	}
	if l.subtree(id)[NormalizeFolderID(parentID)] {
		return Folder{}, fmt.Errorf("moving folder %s into %s: %w", id, parentID, ErrInvalidMove)
	}

	next := cloneFolders(l.dirs)
	next[i].ParentFolderID = parentRef(parentID)
	if err := l.commitFolders(ctx, next); err != nil {
		return Folder{}, err
	}
	return next[i], nil
}

// DeleteFolder removes a folder, every folder below it and every document
// inside any of them. If the current folder was among them, the cursor moves
// to the deleted folder's parent. Returns the number of documents removed.
func (l *Library) DeleteFolder(ctx context.Context, id string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return 0, err
	}
	i := l.folderIndex(id)
	if i < 0 {
		return 0, fmt.Errorf("folder %s: %w", id, ErrNotFound)
	}
	parent := l.dirs[i].ParentID()
	doomed := l.subtree(id)

	// Documents go first: if the folder save then fails, the folders are
	// merely empty rather than the documents being orphaned.
	removed, err := l.removeDocumentsWhere(ctx, func(d *Document) bool { return doomed[d.ParentID()] })
	if err != nil {
		return 0, err
	}

	next := make([]Folder, 0, len(l.dirs))
	for _, f := range l.dirs {
		if !doomed[f.ID] {
			next = append(next, f)
		}
	}
	if err := l.commitFolders(ctx, next); err != nil {
		return removed, err
	}

	if doomed[l.current] {
		if err := l.commitCursor(ctx, parent); err != nil {
			return removed, err
		}
	}

	l.logger.Info("folder deleted", "id", id, "folders", len(doomed), "documents", removed)
	return removed, nil
}

// subtree returns the ids of folder id and all of its descendants.
func (l *Library) subtree(id string) map[string]bool {
	children := make(map[string][]string, len(l.dirs))
	for _, f := range l.dirs {
		p := f.ParentID()
		children[p] = append(children[p], f.ID)
	}

	out := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if !out[child] {
				out[child] = true
				queue = append(queue, child)
			}
		}
	}
	return out
}

// CurrentFolder returns the folder the user is browsing, RootFolderID at the top level.
func (l *Library) CurrentFolder() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return "", err
	}
	return l.current, nil
}

// EnterFolder makes id the current folder.
func (l *Library) EnterFolder(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return err
	}
	if !l.folderExists(id) {
		return fmt.Errorf("entering folder %s: %w", id, ErrNotFound)
	}
	return l.commitCursor(ctx, id)
}

// LeaveFolder moves the cursor to the current folder's parent.
// At the top level it does nothing.
func (l *Library) LeaveFolder(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkWritable(ctx); err != nil {
		return "", err
	}
	if IsRoot(l.current) {
		return RootFolderID, nil
	}
	i := l.folderIndex(l.current)
	if i < 0 {
		return "", fmt.Errorf("folder %s: %w", l.current, ErrNotFound)
	}
	parent := l.dirs[i].ParentID()
	if err := l.commitCursor(ctx, parent); err != nil {
		return "", err
	}
	return parent, nil
}

// Path returns the folders from the top level down to id, inclusive.
// The top level itself is not part of the result.
func (l *Library) Path(id string) ([]Folder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	var path []Folder
	visited := make(map[string]bool)
	for cur := NormalizeFolderID(id); !IsRoot(cur); {
		if visited[cur] {
			return nil, fmt.Errorf("folder %s: cycle in folder tree: %w", id, ErrInvalidMove)
		}
		visited[cur] = true
		i := l.folderIndex(cur)
		if i < 0 {
			return nil, fmt.Errorf("folder %s: %w", cur, ErrNotFound)
		}
		path = append([]Folder{l.dirs[i]}, path...)
		cur = l.dirs[i].ParentID()
	}
	return path, nil
}
