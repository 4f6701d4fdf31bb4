package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"f2f-cri/internal/session/models"
	"f2f-cri/pkg/platform/sentinel"
)

// InMemoryStore keeps sessions in a map for tests and local runs.
// Callers always receive copies.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s exists: %w", session.ID, sentinel.ErrConflict)
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[id]; ok {
		return session.Clone(), nil
	}
	return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByAuthorizationCode(_ context.Context, code string) (*models.Session, error) {
	return s.findBy(func(sess *models.Session) bool {
		return code != "" && sess.AuthorizationCode == code
	})
}

func (s *InMemoryStore) FindByVendorSessionID(_ context.Context, vendorSessionID string) (*models.Session, error) {
	return s.findBy(func(sess *models.Session) bool {
		return vendorSessionID != "" && sess.VendorSessionID == vendorSessionID
	})
}

func (s *InMemoryStore) findBy(match func(*models.Session) bool) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if match(session) {
			return session.Clone(), nil
		}
	}
	return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Execute(_ context.Context, id string, validate ValidateFunc, mutate MutateFunc) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.sessions[id] = working
	return working.Clone(), nil
}

// ListByStates returns matches oldest first.
func (s *InMemoryStore) ListByStates(_ context.Context, states []models.State, createdBefore int64) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Session
	for _, session := range s.sessions {
		if session.ExpiryNotified || session.CreatedDate > createdBefore {
			continue
		}
		if slices.Contains(states, session.State) {
			out = append(out, session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedDate < out[j].CreatedDate })
	return out, nil
}
