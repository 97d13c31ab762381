package store

import (
	"context"
	"sync"

	"cartera/internal/pass/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
)

// InMemoryPassStore provides a thread-safe in-memory implementation of PassStore.
type InMemoryPassStore struct {
	mu      sync.RWMutex
	byToken map[string]*models.Pass
}

func NewInMemoryPassStore() *InMemoryPassStore {
	return &InMemoryPassStore{byToken: make(map[string]*models.Pass)}
}

func (s *InMemoryPassStore) Create(_ context.Context, pass *models.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[pass.PassToken]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.byToken {
		if existing.SerialNumber == pass.SerialNumber {
			return sentinel.ErrConflict
		}
	}
	s.byToken[pass.PassToken] = clone(pass)
	return nil
}

func (s *InMemoryPassStore) FindByToken(_ context.Context, passToken string) (*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pass, ok := s.byToken[passToken]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(pass), nil
}

func (s *InMemoryPassStore) FindBySerial(_ context.Context, serialNumber string) (*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, pass := range s.byToken {
		if pass.SerialNumber == serialNumber {
			return clone(pass), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryPassStore) FindByClaimCode(_ context.Context, claimCode string) (*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if claimCode == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, pass := range s.byToken {
		if pass.ClaimCode == claimCode {
			return clone(pass), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryPassStore) ListByProject(_ context.Context, projectID id.ProjectID) ([]*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Pass
	for _, pass := range s.byToken {
		if pass.ProjectID == projectID {
			out = append(out, clone(pass))
		}
	}
	return out, nil
}

func (s *InMemoryPassStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Pass
	for _, pass := range s.byToken {
		if pass.UserID == userID {
			out = append(out, clone(pass))
		}
	}
	return out, nil
}

func (s *InMemoryPassStore) Update(_ context.Context, pass *models.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[pass.PassToken]; !ok {
		return sentinel.ErrNotFound
	}
	s.byToken[pass.PassToken] = clone(pass)
	return nil
}

func clone(pass *models.Pass) *models.Pass {
	copied := *pass
	if pass.Metadata != nil {
		copied.Metadata = make(map[string]string, len(pass.Metadata))
		for k, v := range pass.Metadata {
			copied.Metadata[k] = v
		}
	}
	if pass.ExpiresAt != nil {
		expiresAt := *pass.ExpiresAt
		copied.ExpiresAt = &expiresAt
	}
	return &copied
}
