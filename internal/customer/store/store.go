package store

import (
	"context"

	"cartera/internal/customer/models"
	id "cartera/pkg/domain"
)

// CustomerStore persists project-scoped customers.
//
// Upsert is keyed by (project, google subject): claiming a second pass in
// the same project updates the existing row instead of duplicating it.
type CustomerStore interface {
	Upsert(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	FindBySubject(ctx context.Context, projectID id.ProjectID, googleSub string) (*models.Customer, error)
	ListWithVisits(ctx context.Context, projectID id.ProjectID) ([]*models.CustomerWithVisits, error)
}
