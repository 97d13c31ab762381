package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"cartera/internal/project/models"
	"cartera/internal/project/store"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/platform/sentinel"
	"cartera/pkg/requestcontext"
)

// Service owns project and location lifecycle.
type Service struct {
	projects  store.ProjectStore
	locations store.LocationStore
}

func New(projects store.ProjectStore, locations store.LocationStore) *Service {
	return &Service{projects: projects, locations: locations}
}

func (s *Service) Create(ctx context.Context, in models.CreateProjectInput) (*models.Project, error) {
	project, err := models.NewProject(id.ProjectID(uuid.New()), strings.TrimSpace(in.Name), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	project.LogoURL = strings.TrimSpace(in.LogoURL)
	project.ClaimURLTemplate = strings.TrimSpace(in.ClaimURLTemplate)
	project.QRPayloadTemplate = strings.TrimSpace(in.QRPayloadTemplate)

	if err := s.projects.Create(ctx, project); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "project already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create project")
	}
	return project, nil
}

func (s *Service) Get(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load project")
	}
	return project, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projects")
	}
	return projects, nil
}

func (s *Service) Update(ctx context.Context, projectID id.ProjectID, patch models.Patch) (*models.Project, error) {
	project, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := project.Apply(patch, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update project")
	}
	return project, nil
}

func (s *Service) Delete(ctx context.Context, projectID id.ProjectID) error {
	if err := s.projects.Delete(ctx, projectID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete project")
	}
	return nil
}

func (s *Service) AddLocation(ctx context.Context, in models.AddLocationInput) (*models.Location, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, dErrors.New(dErrors.CodeInvalidPayload, "location label is required")
	}
	if _, err := s.Get(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	location := &models.Location{
		ID:        id.LocationID(uuid.New()),
		ProjectID: in.ProjectID,
		Label:     label,
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.locations.Add(ctx, location); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add location")
	}
	return location, nil
}

func (s *Service) ListLocations(ctx context.Context, projectID id.ProjectID) ([]*models.Location, error) {
	locations, err := s.locations.ListByProject(ctx, projectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list locations")
	}
	return locations, nil
}

func (s *Service) RemoveLocation(ctx context.Context, locationID id.LocationID) error {
	if err := s.locations.Remove(ctx, locationID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove location")
	}
	return nil
}
