package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cartera/internal/visit/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/tx"
)

// PostgresVisitStore persists visits via pgx.
type PostgresVisitStore struct {
	pool *pgxpool.Pool
}

func NewPostgresVisitStore(pool *pgxpool.Pool) *PostgresVisitStore {
	return &PostgresVisitStore{pool: pool}
}

// execer is satisfied by both the pool and a pgx transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Record joins a caller transaction when one rides the context, so the
// visit row commits with the pass update and the staged event.
func (s *PostgresVisitStore) Record(ctx context.Context, visit *models.Visit) error {
	var db execer = s.pool
	if txn, ok := tx.From(ctx); ok {
		db = txn
	}
	_, err := db.Exec(ctx, `
		INSERT INTO visits (id, project_id, pass_id, points, reset, visited_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		visit.ID.String(), visit.ProjectID.String(), visit.PassID.String(),
		visit.Points, visit.Reset, visit.VisitedAt,
	)
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

func (s *PostgresVisitStore) ListByProject(ctx context.Context, projectID id.ProjectID, limit int) ([]*models.Visit, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, pass_id, points, reset, visited_at
		FROM visits WHERE project_id = $1 ORDER BY visited_at DESC LIMIT $2`,
		projectID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list visits by project: %w", err)
	}
	return collectVisits(rows)
}

func (s *PostgresVisitStore) ListByPass(ctx context.Context, passID id.PassID) ([]*models.Visit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, pass_id, points, reset, visited_at
		FROM visits WHERE pass_id = $1 ORDER BY visited_at DESC`,
		passID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list visits by pass: %w", err)
	}
	return collectVisits(rows)
}

func collectVisits(rows pgx.Rows) ([]*models.Visit, error) {
	defer rows.Close()
	var out []*models.Visit
	for rows.Next() {
		var (
			visit                          models.Visit
			rawID, rawProjectID, rawPassID string
		)
		err := rows.Scan(&rawID, &rawProjectID, &rawPassID, &visit.Points, &visit.Reset, &visit.VisitedAt)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		if visit.ID, err = id.ParseVisitID(rawID); err != nil {
			return nil, err
		}
		if visit.ProjectID, err = id.ParseProjectID(rawProjectID); err != nil {
			return nil, err
		}
		if visit.PassID, err = id.ParsePassID(rawPassID); err != nil {
			return nil, err
		}
		out = append(out, &visit)
	}
	return out, rows.Err()
}
