package flexi

// Store keys. The _v1 suffix namespaces the layout written by schema version 1.
const (
	KeyFolders       = "folders_v1"
	KeyDocuments     = "pdfFiles_v1"
	KeyCurrentFolder = "currentFolderId_v1"
	KeyLanguage      = "language_v1"
	KeyTheme         = "theme_v1"

	// KeySchemaVersion records which key layout the store holds.
	KeySchemaVersion = "schemaVersion"
)

// Unversioned keys written before the layout was namespaced.
const (
	legacyKeyFolders       = "folders"
	legacyKeyDocuments     = "pdfFiles"
	legacyKeyCurrentFolder = "currentFolderId"
)

// CurrentSchemaVersion is the key layout this binary reads and writes.
const CurrentSchemaVersion = 1
