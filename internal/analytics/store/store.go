package store

import (
	"context"
	"time"

	"cartera/internal/analytics/models"
	id "cartera/pkg/domain"
)

// AnalyticsStore answers the aggregate queries behind the KPI endpoints.
// A nil project ID scopes a query globally.
type AnalyticsStore interface {
	CountProjects(ctx context.Context) (int, error)
	CountCustomers(ctx context.Context, projectID id.ProjectID) (int, error)
	CountPasses(ctx context.Context, projectID id.ProjectID) (issued, claimed int, err error)
	CountVisits(ctx context.Context, projectID id.ProjectID, since time.Time) (int, error)
	VisitTimeseries(ctx context.Context, projectID id.ProjectID, since time.Time, bucket time.Duration) ([]*models.TimeseriesPoint, error)
}
