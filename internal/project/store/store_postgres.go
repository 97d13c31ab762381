package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cartera/internal/project/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
)

// Postgres persists projects and locations via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, project *models.Project) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO projects (id, name, logo_url, claim_url_template, qr_payload_template, visit_window, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		project.ID.String(), project.Name, project.LogoURL,
		project.ClaimURLTemplate, project.QRPayloadTemplate,
		int64(project.VisitWindow), project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, logo_url, claim_url_template, qr_payload_template, visit_window, created_at, updated_at
		FROM projects WHERE id = $1`,
		projectID.String(),
	)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return project, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, logo_url, claim_url_template, qr_payload_template, visit_window, created_at, updated_at
		FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, project)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, project *models.Project) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE projects
		SET name = $2, logo_url = $3, claim_url_template = $4, qr_payload_template = $5, visit_window = $6, updated_at = $7
		WHERE id = $1`,
		project.ID.String(), project.Name, project.LogoURL,
		project.ClaimURLTemplate, project.QRPayloadTemplate,
		int64(project.VisitWindow), project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, projectID id.ProjectID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, projectID.String())
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Add(ctx context.Context, location *models.Location) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO locations (id, project_id, label, address, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		location.ID.String(), location.ProjectID.String(), location.Label, location.Address, location.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add location: %w", err)
	}
	return nil
}

func (s *Postgres) ListByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Location, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, label, address, created_at
		FROM locations WHERE project_id = $1 ORDER BY label`,
		projectID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []*models.Location
	for rows.Next() {
		var (
			loc                 models.Location
			rawID, rawProjectID string
		)
		if err := rows.Scan(&rawID, &rawProjectID, &loc.Label, &loc.Address, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		if loc.ID, err = id.ParseLocationID(rawID); err != nil {
			return nil, err
		}
		if loc.ProjectID, err = id.ParseProjectID(rawProjectID); err != nil {
			return nil, err
		}
		out = append(out, &loc)
	}
	return out, rows.Err()
}

func (s *Postgres) Remove(ctx context.Context, locationID id.LocationID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, locationID.String())
	if err != nil {
		return fmt.Errorf("remove location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var (
		project     models.Project
		rawID       string
		visitWindow int64
	)
	err := row.Scan(&rawID, &project.Name, &project.LogoURL,
		&project.ClaimURLTemplate, &project.QRPayloadTemplate,
		&visitWindow, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}
	project.VisitWindow = time.Duration(visitWindow)
	if project.ID, err = id.ParseProjectID(rawID); err != nil {
		return nil, err
	}
	return &project, nil
}
