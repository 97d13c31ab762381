package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"cartera/internal/analytics/models"
	"cartera/internal/analytics/store"
	id "cartera/pkg/domain"
	dErrors "cartera/pkg/domain-errors"
	"cartera/pkg/requestcontext"
)

// Service computes dashboard KPIs. The independent aggregates behind one
// KPI block are fanned out concurrently; the first failure cancels the
// rest.
type Service struct {
	analytics store.AnalyticsStore
}

func New(analytics store.AnalyticsStore) *Service {
	return &Service{analytics: analytics}
}

func (s *Service) ProjectKPIs(ctx context.Context, projectID id.ProjectID) (*models.ProjectKPIs, error) {
	now := requestcontext.Now(ctx)
	var kpis models.ProjectKPIs

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.analytics.CountCustomers(gctx, projectID)
		kpis.Customers = count
		return err
	})
	g.Go(func() error {
		issued, claimed, err := s.analytics.CountPasses(gctx, projectID)
		kpis.PassesIssued = issued
		kpis.PassesClaimed = claimed
		return err
	})
	g.Go(func() error {
		count, err := s.analytics.CountVisits(gctx, projectID, time.Time{})
		kpis.VisitsTotal = count
		return err
	})
	g.Go(func() error {
		count, err := s.analytics.CountVisits(gctx, projectID, now.AddDate(0, 0, -7))
		kpis.VisitsLastWeek = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute project KPIs")
	}
	return &kpis, nil
}

func (s *Service) GlobalKPIs(ctx context.Context) (*models.GlobalKPIs, error) {
	var kpis models.GlobalKPIs

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.analytics.CountProjects(gctx)
		kpis.Projects = count
		return err
	})
	g.Go(func() error {
		count, err := s.analytics.CountCustomers(gctx, id.ProjectID{})
		kpis.Customers = count
		return err
	})
	g.Go(func() error {
		issued, claimed, err := s.analytics.CountPasses(gctx, id.ProjectID{})
		kpis.PassesIssued = issued
		kpis.PassesClaimed = claimed
		return err
	})
	g.Go(func() error {
		count, err := s.analytics.CountVisits(gctx, id.ProjectID{}, time.Time{})
		kpis.VisitsTotal = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute global KPIs")
	}
	return &kpis, nil
}

// VisitTimeseries returns bucketed visit counts for charting. The bucket
// defaults to one day and never drops below one hour.
func (s *Service) VisitTimeseries(ctx context.Context, projectID id.ProjectID, since time.Time, bucket time.Duration) ([]*models.TimeseriesPoint, error) {
	if bucket <= 0 {
		bucket = 24 * time.Hour
	}
	if bucket < time.Hour {
		bucket = time.Hour
	}
	if since.IsZero() {
		since = requestcontext.Now(ctx).AddDate(0, -1, 0)
	}
	points, err := s.analytics.VisitTimeseries(ctx, projectID, since, bucket)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute visit timeseries")
	}
	return points, nil
}
