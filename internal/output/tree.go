package output

import (
	"sort"
	"strings"

	"github.com/disiqueira/gotree/v3"

	"flexipdf/internal/flexi"
)

// FavoritePrefix marks favorite documents in the tree.
const FavoritePrefix = "* "

// LibraryTree renders folders and documents as a text tree.
type LibraryTree struct {
	tree     gotree.Tree
	children map[string][]flexi.Folder
	docs     map[string][]flexi.Document
}

// NewLibraryTree indexes folders and docs by parent folder.
func NewLibraryTree(rootLabel string, folders []flexi.Folder, docs []flexi.Document) LibraryTree {
	t := LibraryTree{
		tree:     gotree.New(rootLabel),
		children: make(map[string][]flexi.Folder),
		docs:     make(map[string][]flexi.Document),
	}
	for _, f := range folders {
		p := f.ParentID()
		t.children[p] = append(t.children[p], f)
	}
	for _, d := range docs {
		p := d.ParentID()
		t.docs[p] = append(t.docs[p], d)
	}
	for _, fs := range t.children {
		sort.Slice(fs, func(i, j int) bool { return strings.ToLower(fs[i].Name) < strings.ToLower(fs[j].Name) })
	}
	for _, ds := range t.docs {
		sort.Slice(ds, func(i, j int) bool { return strings.ToLower(ds[i].Name) < strings.ToLower(ds[j].Name) })
	}
	return t
}

// Render draws the tree starting at the top level.
func (t LibraryTree) Render() string {
	t.fill(t.tree, flexi.RootFolderID, map[string]bool{})
	return t.tree.Print()
}

func (t LibraryTree) fill(node gotree.Tree, folderID string, visited map[string]bool) {
	visited[folderID] = true
	for _, f := range t.children[folderID] {
		if visited[f.ID] {
			continue
		}
		t.fill(node.Add(f.Name+"/"), f.ID, visited)
	}
	for _, d := range t.docs[folderID] {
		label := d.Name
		if d.IsFavorite {
			label = FavoritePrefix + label
		}
		node.Add(label)
	}
}

// RenderLibrary is a shorthand for NewLibraryTree(...).Render().
func RenderLibrary(rootLabel string, folders []flexi.Folder, docs []flexi.Document) string {
	return NewLibraryTree(rootLabel, folders, docs).Render()
}
