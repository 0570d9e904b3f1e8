package testutil

import (
	"context"
	"sync"

	"flexipdf/internal/flexi"
)

// RecordingNotifier remembers every widget state it is sent.
type RecordingNotifier struct {
	mu     sync.Mutex
	states []flexi.WidgetState
	Err    error
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Notify(_ context.Context, state flexi.WidgetState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
	return n.Err
}

// States returns the states received so far, oldest first.
func (n *RecordingNotifier) States() []flexi.WidgetState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]flexi.WidgetState(nil), n.states...)
}

// StubGranter refuses the locators listed in Deny and records every call.
type StubGranter struct {
	mu      sync.Mutex
	Deny    map[string]error
	granted []string
}

func NewStubGranter() *StubGranter {
	return &StubGranter{Deny: make(map[string]error)}
}

func (g *StubGranter) Grant(_ context.Context, locator string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.Deny[locator]; ok {
		return err
	}
	g.granted = append(g.granted, locator)
	return nil
}

// Granted returns the locators granted so far, in call order.
func (g *StubGranter) Granted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.granted...)
}
