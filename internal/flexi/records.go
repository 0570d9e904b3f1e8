package flexi

// RootFolderID is the folder id used for the top level. A nil parent and
// RootFolderID mean the same thing.
const RootFolderID = "root"

// IsRoot reports whether id denotes the top level.
func IsRoot(id string) bool {
	return id == "" || id == RootFolderID
}

// NormalizeFolderID maps both top-level markers to RootFolderID.
func NormalizeFolderID(id string) string {
	if IsRoot(id) {
		return RootFolderID
	}
	return id
}

// parentRef returns the persisted form of a parent folder id: nil for the top level.
func parentRef(id string) *string {
	if IsRoot(id) {
		return nil
	}
	return &id
}

// Record is the capability set shared by documents and folders.
type Record interface {
	// RecordID returns the record's unique id within its collection.
	RecordID() string
	DisplayName() string
	// ParentID returns the containing folder id, RootFolderID at the top level.
	ParentID() string
	Selected() bool
	SetSelected(selected bool)
}

// recordPtr constrains the store's element types to the two record variants.
type recordPtr[T any] interface {
	*T
	Record
	// assignID replaces the record's id.
	assignID(id string)
}

// Document is an imported PDF.
type Document struct {
	ID string `json:"id"`
	// Locator identifies the underlying file resource. Opaque to the store.
	Locator        string  `json:"uri"`
	Name           string  `json:"name"`
	IsSelected     bool    `json:"isSelected"`
	LastModified   int64   `json:"lastModified"`
	IsFavorite     bool    `json:"isFavorite"`
	ParentFolderID *string `json:"parentFolderId"`
}

func (d *Document) RecordID() string          { return d.ID }
func (d *Document) DisplayName() string       { return d.Name }
func (d *Document) ParentID() string          { return derefParent(d.ParentFolderID) }
func (d *Document) Selected() bool            { return d.IsSelected }
func (d *Document) SetSelected(selected bool) { d.IsSelected = selected }

func (d *Document) assignID(id string) { d.ID = id }

// Folder groups documents and other folders into a tree.
type Folder struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	IsSelected     bool    `json:"isSelected"`
	ParentFolderID *string `json:"parentFolderId"`
}

func (f *Folder) RecordID() string          { return f.ID }
func (f *Folder) DisplayName() string       { return f.Name }
func (f *Folder) ParentID() string          { return derefParent(f.ParentFolderID) }
func (f *Folder) Selected() bool            { return f.IsSelected }
func (f *Folder) SetSelected(selected bool) { f.IsSelected = selected }

func (f *Folder) assignID(id string) { f.ID = id }

func derefParent(p *string) string {
	if p == nil {
		return RootFolderID
	}
	return NormalizeFolderID(*p)
}

// ensureIDs gives a fresh id to every record that has none or repeats an id
// an earlier record holds. It reports whether anything changed.
func ensureIDs[T any, P recordPtr[T]](items []T, idgen IDGenerator) bool {
	changed := false
	seen := make(map[string]bool, len(items))
	for i := range items {
		p := P(&items[i])
		if id := p.RecordID(); id != "" && !seen[id] {
			seen[id] = true
			continue
		}
		id := idgen.New()
		p.assignID(id)
		seen[id] = true
		changed = true
	}
	return changed
}

var (
	_ Record = (*Document)(nil)
	_ Record = (*Folder)(nil)
)
