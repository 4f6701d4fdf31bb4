package credential

import (
	"context"
	"sync"
)

// InMemoryGuard is the single-process Guard used with the memory store.
type InMemoryGuard struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewInMemoryGuard() *InMemoryGuard {
	return &InMemoryGuard{entries: make(map[string]string)}
}

func (g *InMemoryGuard) Claim(_ context.Context, sessionID string) (bool, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	vc, exists := g.entries[sessionID]
	if !exists {
		g.entries[sessionID] = ""
		return true, "", nil
	}
	return false, vc, nil
}

func (g *InMemoryGuard) Complete(_ context.Context, sessionID, vc string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[sessionID] = vc
	return nil
}

func (g *InMemoryGuard) Release(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.entries[sessionID] == "" {
		delete(g.entries, sessionID)
	}
	return nil
}

func (g *InMemoryGuard) Lookup(_ context.Context, sessionID string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	vc, found := g.entries[sessionID]
	return vc, found, nil
}
