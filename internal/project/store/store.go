package store

import (
	"context"

	"cartera/internal/project/models"
	id "cartera/pkg/domain"
)

// ProjectStore persists projects. Not-found is signaled with
// sentinel.ErrNotFound so services translate uniformly.
type ProjectStore interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, projectID id.ProjectID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, projectID id.ProjectID) error
}

// LocationStore persists project locations.
type LocationStore interface {
	Add(ctx context.Context, location *models.Location) error
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Location, error)
	Remove(ctx context.Context, locationID id.LocationID) error
}
