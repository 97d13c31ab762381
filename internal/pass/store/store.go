package store

import (
	"context"

	"cartera/internal/pass/models"
	id "cartera/pkg/domain"
)

// PassStore persists wallet passes.
//
// Implementations return sentinel.ErrNotFound when a pass does not
// exist and sentinel.ErrConflict on duplicate tokens or serials.
type PassStore interface {
	Create(ctx context.Context, pass *models.Pass) error
	FindByToken(ctx context.Context, passToken string) (*models.Pass, error)
	FindByClaimCode(ctx context.Context, claimCode string) (*models.Pass, error)
	FindBySerial(ctx context.Context, serialNumber string) (*models.Pass, error)
	ListByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Pass, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Pass, error)
	Update(ctx context.Context, pass *models.Pass) error
}
