package store

import (
	"context"
	"sort"
	"sync"

	"cartera/internal/visit/models"
	id "cartera/pkg/domain"
)

// InMemoryVisitStore provides a thread-safe in-memory implementation of VisitStore.
type InMemoryVisitStore struct {
	mu     sync.RWMutex
	visits []*models.Visit
}

func NewInMemoryVisitStore() *InMemoryVisitStore {
	return &InMemoryVisitStore{}
}

func (s *InMemoryVisitStore) Record(_ context.Context, visit *models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *visit
	s.visits = append(s.visits, &copied)
	return nil
}

func (s *InMemoryVisitStore) ListByProject(_ context.Context, projectID id.ProjectID, limit int) ([]*models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Visit
	for _, visit := range s.visits {
		if visit.ProjectID == projectID {
			copied := *visit
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitedAt.After(out[j].VisitedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryVisitStore) ListByPass(_ context.Context, passID id.PassID) ([]*models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Visit
	for _, visit := range s.visits {
		if visit.PassID == passID {
			copied := *visit
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VisitedAt.After(out[j].VisitedAt) })
	return out, nil
}
