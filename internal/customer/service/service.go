package service

import (
	"context"

	"github.com/google/uuid"

	"cartera/internal/customer/models"
	"cartera/internal/customer/store"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/requestcontext"
)

// Service maintains the project-scoped customer registry.
type Service struct {
	customers store.CustomerStore
}

func New(customers store.CustomerStore) *Service {
	return &Service{customers: customers}
}

// SyncFromClaim records the claimer as a customer of the project. Called
// on every completed claim; repeat claims refresh name and email.
func (s *Service) SyncFromClaim(ctx context.Context, projectID id.ProjectID, googleSub, name, email string) (*models.Customer, error) {
	if googleSub == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "google subject is required")
	}
	customer, err := s.customers.Upsert(ctx, &models.Customer{
		ID:        id.CustomerID(uuid.New()),
		ProjectID: projectID,
		GoogleSub: googleSub,
		Name:      name,
		Email:     email,
		CreatedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync customer")
	}
	return customer, nil
}

// ListWithVisits returns the dashboard view of a project's customers.
func (s *Service) ListWithVisits(ctx context.Context, projectID id.ProjectID) ([]*models.CustomerWithVisits, error) {
	customers, err := s.customers.ListWithVisits(ctx, projectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers")
	}
	return customers, nil
}
