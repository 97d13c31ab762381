package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cartera/internal/auth/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
)

// PostgresMemberStore persists staff accounts in Postgres.
type PostgresMemberStore struct {
	pool *pgxpool.Pool
}

func NewPostgresMemberStore(pool *pgxpool.Pool) *PostgresMemberStore {
	return &PostgresMemberStore{pool: pool}
}

func (s *PostgresMemberStore) Save(ctx context.Context, member *models.Member) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO members (id, project_id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role`,
		member.ID.String(), member.ProjectID.String(), strings.ToLower(member.Email),
		member.PasswordHash, member.Role, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

func (s *PostgresMemberStore) FindByEmail(ctx context.Context, projectID id.ProjectID, email string) (*models.Member, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, project_id, email, password_hash, role, created_at
		FROM members
		WHERE project_id = $1 AND email = $2`,
		projectID.String(), strings.ToLower(email),
	)

	var (
		member              models.Member
		rawID, rawProjectID string
	)
	err := row.Scan(&rawID, &rawProjectID, &member.Email, &member.PasswordHash, &member.Role, &member.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	if member.ID, err = id.ParseUserID(rawID); err != nil {
		return nil, fmt.Errorf("member id: %w", err)
	}
	if member.ProjectID, err = id.ParseProjectID(rawProjectID); err != nil {
		return nil, fmt.Errorf("member project id: %w", err)
	}
	return &member, nil
}
