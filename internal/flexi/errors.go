package flexi

import "errors"

var (
	// ErrNotFound is returned when a document or folder id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrInvalidName is returned for blank display names.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidMove is returned when a move would break the folder tree.
	ErrInvalidMove = errors.New("invalid move")

	// ErrInvalidSetting is returned for unsupported language or theme values.
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrSchemaTooNew is returned when the store was written by a newer binary.
	ErrSchemaTooNew = errors.New("stored schema is newer than supported")

	// ErrNotOpen is returned when a Library is used before Open.
	ErrNotOpen = errors.New("library not open")
)
