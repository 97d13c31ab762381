package store

import (
	"context"
	"sync"

	"cartera/internal/customer/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
)

// InMemoryCustomerStore provides a thread-safe in-memory implementation
// of CustomerStore. Visit aggregates can be fed in directly for tests.
type InMemoryCustomerStore struct {
	mu        sync.RWMutex
	customers map[string]*models.Customer
	visits    map[string]visitAggregate
}

type visitAggregate struct {
	count  int
	points int
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		customers: make(map[string]*models.Customer),
		visits:    make(map[string]visitAggregate),
	}
}

func key(projectID id.ProjectID, googleSub string) string {
	return projectID.String() + "/" + googleSub
}

func (s *InMemoryCustomerStore) Upsert(_ context.Context, customer *models.Customer) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(customer.ProjectID, customer.GoogleSub)
	if existing, ok := s.customers[k]; ok {
		existing.Name = customer.Name
		existing.Email = customer.Email
		copied := *existing
		return &copied, nil
	}
	copied := *customer
	s.customers[k] = &copied
	out := copied
	return &out, nil
}

func (s *InMemoryCustomerStore) FindBySubject(_ context.Context, projectID id.ProjectID, googleSub string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customers[key(projectID, googleSub)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *customer
	return &copied, nil
}

func (s *InMemoryCustomerStore) ListWithVisits(_ context.Context, projectID id.ProjectID) ([]*models.CustomerWithVisits, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.CustomerWithVisits
	for k, customer := range s.customers {
		if customer.ProjectID != projectID {
			continue
		}
		aggregate := s.visits[k]
		out = append(out, &models.CustomerWithVisits{
			Customer:      *customer,
			VisitCount:    aggregate.count,
			CurrentPoints: aggregate.points,
		})
	}
	return out, nil
}

// SetVisitAggregate seeds visit counts for a customer. Test helper.
func (s *InMemoryCustomerStore) SetVisitAggregate(projectID id.ProjectID, googleSub string, count, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[key(projectID, googleSub)] = visitAggregate{count: count, points: points}
}
