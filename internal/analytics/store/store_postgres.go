package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cartera/internal/analytics/models"
	id "cartera/pkg/domain"
)

// PostgresAnalyticsStore runs KPI aggregates via pgx.
type PostgresAnalyticsStore struct {
	pool *pgxpool.Pool
}

func NewPostgresAnalyticsStore(pool *pgxpool.Pool) *PostgresAnalyticsStore {
	return &PostgresAnalyticsStore{pool: pool}
}

func (s *PostgresAnalyticsStore) CountProjects(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

func (s *PostgresAnalyticsStore) CountCustomers(ctx context.Context, projectID id.ProjectID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM customers
		WHERE $1::uuid IS NULL OR project_id = $1`,
		projectParam(projectID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}

func (s *PostgresAnalyticsStore) CountPasses(ctx context.Context, projectID id.ProjectID) (int, int, error) {
	var issued, claimed int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE user_id IS NOT NULL)
		FROM user_passes
		WHERE $1::uuid IS NULL OR project_id = $1`,
		projectParam(projectID),
	).Scan(&issued, &claimed)
	if err != nil {
		return 0, 0, fmt.Errorf("count passes: %w", err)
	}
	return issued, claimed, nil
}

func (s *PostgresAnalyticsStore) CountVisits(ctx context.Context, projectID id.ProjectID, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM visits
		WHERE ($1::uuid IS NULL OR project_id = $1) AND visited_at >= $2`,
		projectParam(projectID), since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return count, nil
}

func (s *PostgresAnalyticsStore) VisitTimeseries(ctx context.Context, projectID id.ProjectID, since time.Time, bucket time.Duration) ([]*models.TimeseriesPoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_timestamp(floor(extract(epoch FROM visited_at) / $3) * $3) AS bucket, COUNT(*)
		FROM visits
		WHERE ($1::uuid IS NULL OR project_id = $1) AND visited_at >= $2
		GROUP BY bucket ORDER BY bucket`,
		projectParam(projectID), since, int64(bucket.Seconds()),
	)
	if err != nil {
		return nil, fmt.Errorf("visit timeseries: %w", err)
	}
	defer rows.Close()

	var out []*models.TimeseriesPoint
	for rows.Next() {
		var point models.TimeseriesPoint
		if err := rows.Scan(&point.Bucket, &point.Visits); err != nil {
			return nil, fmt.Errorf("scan timeseries point: %w", err)
		}
		out = append(out, &point)
	}
	return out, rows.Err()
}

func projectParam(projectID id.ProjectID) *string {
	if projectID.IsNil() {
		return nil
	}
	value := projectID.String()
	return &value
}
