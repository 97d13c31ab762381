package store

import (
	"context"
	"sort"
	"sync"

	"cartera/internal/project/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
)

// InMemory keeps projects and locations in maps for tests and single-node
// development.
type InMemory struct {
	mu        sync.RWMutex
	projects  map[id.ProjectID]models.Project
	locations map[id.LocationID]models.Location
}

func NewInMemory() *InMemory {
	return &InMemory{
		projects:  make(map[id.ProjectID]models.Project),
		locations: make(map[id.LocationID]models.Location),
	}
}

func (s *InMemory) Create(_ context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; ok {
		return sentinel.ErrConflict
	}
	s.projects[project.ID] = *project
	return nil
}

func (s *InMemory) FindByID(_ context.Context, projectID id.ProjectID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if project, ok := s.projects[projectID]; ok {
		copied := project
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Project, 0, len(s.projects))
	for _, project := range s.projects {
		copied := project
		out = append(out, &copied)
	}
	// Newest first, matching the dashboard ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.projects[project.ID] = *project
	return nil
}

func (s *InMemory) Delete(_ context.Context, projectID id.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.projects, projectID)
	for locID, loc := range s.locations {
		if loc.ProjectID == projectID {
			delete(s.locations, locID)
		}
	}
	return nil
}

func (s *InMemory) Add(_ context.Context, location *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[location.ProjectID]; !ok {
		return sentinel.ErrNotFound
	}
	s.locations[location.ID] = *location
	return nil
}

func (s *InMemory) ListByProject(_ context.Context, projectID id.ProjectID) ([]*models.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Location, 0)
	for _, loc := range s.locations {
		if loc.ProjectID == projectID {
			copied := loc
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *InMemory) Remove(_ context.Context, locationID id.LocationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[locationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.locations, locationID)
	return nil
}
