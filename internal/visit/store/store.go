package store

import (
	"context"

	"cartera/internal/visit/models"
	id "cartera/pkg/domain"
)

// VisitStore persists the append-only visit log.
type VisitStore interface {
	Record(ctx context.Context, visit *models.Visit) error
	ListByProject(ctx context.Context, projectID id.ProjectID, limit int) ([]*models.Visit, error)
	ListByPass(ctx context.Context, passID id.PassID) ([]*models.Visit, error)
}
