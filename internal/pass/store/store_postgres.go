package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cartera/internal/pass/models"
	id "cartera/pkg/domain"
	"cartera/pkg/platform/sentinel"
	"cartera/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresPassStore persists passes via pgx.
type PostgresPassStore struct {
	pool *pgxpool.Pool
}

func NewPostgresPassStore(pool *pgxpool.Pool) *PostgresPassStore {
	return &PostgresPassStore{pool: pool}
}

// querier is satisfied by both the pool and a pgx transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q joins a caller transaction when one rides the context.
func (s *PostgresPassStore) q(ctx context.Context) querier {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.pool
}

const passColumns = `id, project_id, pass_token, serial_number, claim_code, platform, user_id, points, expires_at, metadata, created_at, updated_at`

func (s *PostgresPassStore) Create(ctx context.Context, pass *models.Pass) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO user_passes (`+passColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		pass.ID.String(), pass.ProjectID.String(), pass.PassToken, pass.SerialNumber,
		pass.ClaimCode, string(pass.Platform), nullableUserID(pass.UserID),
		pass.Points, pass.ExpiresAt, metadataOrEmpty(pass.Metadata),
		pass.CreatedAt, pass.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create pass: %w", err)
	}
	return nil
}

func (s *PostgresPassStore) FindByToken(ctx context.Context, passToken string) (*models.Pass, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+passColumns+` FROM user_passes WHERE pass_token = $1`, passToken)
	return scanPass(row, "find pass by token")
}

func (s *PostgresPassStore) FindBySerial(ctx context.Context, serialNumber string) (*models.Pass, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+passColumns+` FROM user_passes WHERE serial_number = $1`, serialNumber)
	return scanPass(row, "find pass by serial")
}

func (s *PostgresPassStore) FindByClaimCode(ctx context.Context, claimCode string) (*models.Pass, error) {
	if claimCode == "" {
		return nil, sentinel.ErrNotFound
	}
	row := s.q(ctx).QueryRow(ctx, `SELECT `+passColumns+` FROM user_passes WHERE claim_code = $1`, claimCode)
	return scanPass(row, "find pass by claim code")
}

func (s *PostgresPassStore) ListByProject(ctx context.Context, projectID id.ProjectID) ([]*models.Pass, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT `+passColumns+` FROM user_passes WHERE project_id = $1 ORDER BY created_at DESC`,
		projectID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list passes by project: %w", err)
	}
	return collectPasses(rows)
}

func (s *PostgresPassStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Pass, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT `+passColumns+` FROM user_passes WHERE user_id = $1 ORDER BY created_at DESC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list passes by user: %w", err)
	}
	return collectPasses(rows)
}

func (s *PostgresPassStore) Update(ctx context.Context, pass *models.Pass) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE user_passes
		SET claim_code = $2, platform = $3, user_id = $4, points = $5, expires_at = $6, metadata = $7, updated_at = $8
		WHERE pass_token = $1`,
		pass.PassToken, pass.ClaimCode, string(pass.Platform), nullableUserID(pass.UserID),
		pass.Points, pass.ExpiresAt, metadataOrEmpty(pass.Metadata), pass.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update pass: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func collectPasses(rows pgx.Rows) ([]*models.Pass, error) {
	defer rows.Close()
	var out []*models.Pass
	for rows.Next() {
		pass, err := scanPass(rows, "scan pass")
		if err != nil {
			return nil, err
		}
		out = append(out, pass)
	}
	return out, rows.Err()
}

func scanPass(row pgx.Row, op string) (*models.Pass, error) {
	var (
		pass                models.Pass
		rawID, rawProjectID string
		rawUserID           *string
		platform            string
	)
	err := row.Scan(&rawID, &rawProjectID, &pass.PassToken, &pass.SerialNumber,
		&pass.ClaimCode, &platform, &rawUserID, &pass.Points,
		&pass.ExpiresAt, &pass.Metadata, &pass.CreatedAt, &pass.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	pass.Platform = models.Platform(platform)
	if pass.ID, err = id.ParsePassID(rawID); err != nil {
		return nil, err
	}
	if pass.ProjectID, err = id.ParseProjectID(rawProjectID); err != nil {
		return nil, err
	}
	if rawUserID != nil {
		if pass.UserID, err = id.ParseUserID(*rawUserID); err != nil {
			return nil, err
		}
	}
	return &pass, nil
}

func nullableUserID(userID id.UserID) *string {
	if userID.IsNil() {
		return nil
	}
	value := userID.String()
	return &value
}

func metadataOrEmpty(metadata map[string]string) map[string]string {
	if metadata == nil {
		return map[string]string{}
	}
	return metadata
}
