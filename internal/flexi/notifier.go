package flexi

import "context"

// WidgetState is what a home-screen style widget shows: whether a document
// is open and, if so, its display name.
type WidgetState struct {
	DocumentOpen bool   `json:"documentOpen"`
	Name         string `json:"name"`
}

// WidgetNotifier tells an out-of-band consumer about the open document.
// Delivery is best effort; failures never undo the library change.
type WidgetNotifier interface {
	Notify(ctx context.Context, state WidgetState) error
}

// PermissionGranter secures lasting read access to a newly chosen locator.
// It is called once per locator the library has not seen before.
type PermissionGranter interface {
	Grant(ctx context.Context, locator string) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, WidgetState) error { return nil }

type allowAllGranter struct{}

func (allowAllGranter) Grant(context.Context, string) error { return nil }
