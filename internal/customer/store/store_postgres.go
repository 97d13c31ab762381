package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cartera/internal/customer/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
)

// PostgresCustomerStore persists customers via pgx.
type PostgresCustomerStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCustomerStore(pool *pgxpool.Pool) *PostgresCustomerStore {
	return &PostgresCustomerStore{pool: pool}
}

func (s *PostgresCustomerStore) Upsert(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, project_id, google_sub, name, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, google_sub)
		DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email
		RETURNING id, project_id, google_sub, name, email, created_at`,
		customer.ID.String(), customer.ProjectID.String(), customer.GoogleSub,
		customer.Name, customer.Email, customer.CreatedAt,
	)
	return scanCustomer(row, "upsert customer")
}

func (s *PostgresCustomerStore) FindBySubject(ctx context.Context, projectID id.ProjectID, googleSub string) (*models.Customer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, project_id, google_sub, name, email, created_at
		FROM customers WHERE project_id = $1 AND google_sub = $2`,
		projectID.String(), googleSub,
	)
	customer, err := scanCustomer(row, "find customer")
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *PostgresCustomerStore) ListWithVisits(ctx context.Context, projectID id.ProjectID) ([]*models.CustomerWithVisits, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.project_id, c.google_sub, c.name, c.email, c.created_at,
		       COUNT(v.id) AS visit_count,
		       COALESCE(MAX(p.points), 0) AS current_points,
		       MAX(v.visited_at) AS last_visit_at
		FROM customers c
		LEFT JOIN user_passes p ON p.project_id = c.project_id AND p.metadata->>'google_sub' = c.google_sub
		LEFT JOIN visits v ON v.pass_id = p.id
		WHERE c.project_id = $1
		GROUP BY c.id, c.project_id, c.google_sub, c.name, c.email, c.created_at
		ORDER BY MAX(v.visited_at) DESC NULLS LAST`,
		projectID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list customers with visits: %w", err)
	}
	defer rows.Close()

	var out []*models.CustomerWithVisits
	for rows.Next() {
		var (
			item                models.CustomerWithVisits
			rawID, rawProjectID string
		)
		err := rows.Scan(&rawID, &rawProjectID, &item.GoogleSub, &item.Name, &item.Email,
			&item.CreatedAt, &item.VisitCount, &item.CurrentPoints, &item.LastVisitAt)
		if err != nil {
			return nil, fmt.Errorf("scan customer with visits: %w", err)
		}
		if item.ID, err = id.ParseCustomerID(rawID); err != nil {
			return nil, err
		}
		if item.ProjectID, err = id.ParseProjectID(rawProjectID); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

func scanCustomer(row pgx.Row, op string) (*models.Customer, error) {
	var (
		customer            models.Customer
		rawID, rawProjectID string
	)
	err := row.Scan(&rawID, &rawProjectID, &customer.GoogleSub, &customer.Name, &customer.Email, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if customer.ID, err = id.ParseCustomerID(rawID); err != nil {
		return nil, err
	}
	if customer.ProjectID, err = id.ParseProjectID(rawProjectID); err != nil {
		return nil, err
	}
	return &customer, nil
}
