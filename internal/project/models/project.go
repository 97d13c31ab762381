package models

import (
	"time"

	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
)

// Project is the aggregate root for an establishment that issues passes.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - VisitWindow of zero means "use the platform default"
//   - CreatedAt is immutable after construction
type Project struct {
	ID                id.ProjectID  `json:"id"`
	Name              string        `json:"name"`
	LogoURL           string        `json:"logo_url,omitempty"`
	ClaimURLTemplate  string        `json:"claim_url_template,omitempty"`
	QRPayloadTemplate string        `json:"qr_payload_template,omitempty"`
	VisitWindow       time.Duration `json:"visit_window,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func NewProject(projectID id.ProjectID, name string, now time.Time) (*Project, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project name must be 128 characters or less")
	}
	return &Project{
		ID:        projectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CreateProjectInput carries the fields needed to register a new project.
type CreateProjectInput struct {
	Name              string
	LogoURL           string
	ClaimURLTemplate  string
	QRPayloadTemplate string
}

// AddLocationInput carries the fields needed to attach a location to a project.
type AddLocationInput struct {
	ProjectID id.ProjectID
	Label     string
	Address   string
}

// Patch carries optional updates applied to a project.
type Patch struct {
	Name              *string        `json:"name,omitempty"`
	LogoURL           *string        `json:"logo_url,omitempty"`
	ClaimURLTemplate  *string        `json:"claim_url_template,omitempty"`
	QRPayloadTemplate *string        `json:"qr_payload_template,omitempty"`
	VisitWindow       *time.Duration `json:"visit_window,omitempty"`
}

// Apply mutates the project with the non-nil patch fields.
func (p *Project) Apply(patch Patch, now time.Time) error {
	if patch.Name != nil {
		if *patch.Name == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "project name cannot be empty")
		}
		p.Name = *patch.Name
	}
	if patch.LogoURL != nil {
		p.LogoURL = *patch.LogoURL
	}
	if patch.ClaimURLTemplate != nil {
		p.ClaimURLTemplate = *patch.ClaimURLTemplate
	}
	if patch.QRPayloadTemplate != nil {
		p.QRPayloadTemplate = *patch.QRPayloadTemplate
	}
	if patch.VisitWindow != nil {
		p.VisitWindow = *patch.VisitWindow
	}
	p.UpdatedAt = now
	return nil
}

// Location is a physical site belonging to a project.
type Location struct {
	ID        id.LocationID `json:"id"`
	ProjectID id.ProjectID  `json:"project_id"`
	Label     string        `json:"label"`
	Address   string        `json:"address,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
