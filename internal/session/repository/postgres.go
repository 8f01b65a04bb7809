package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pos-pairing-core/internal/session/domain"
)

// PostgresRepository persists sessions in the sessions table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, principal_id, access_token_hash, refresh_token_hash, access_expires_at, refresh_expires_at, status, ip_address, user_agent, last_activity_at, created_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

func (r *PostgresRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE access_token_hash = $1 OR refresh_token_hash = $1 LIMIT 1`, hash)
	return scanSession(row)
}

func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions
		 (id, principal_id, access_token_hash, refresh_token_hash, access_expires_at,
		  refresh_expires_at, status, ip_address, user_agent, last_activity_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.PrincipalID, s.AccessTokenHash, s.RefreshTokenHash, s.AccessExpiresAt,
		s.RefreshExpiresAt, string(s.Status), nullString(s.IPAddress), nullString(s.UserAgent),
		s.LastActivityAt, s.CreatedAt)
	return err
}

func (r *PostgresRepository) UpdateAccessToken(ctx context.Context, id, accessHash string, accessExpiresAt, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET access_token_hash = $2, access_expires_at = $3, last_activity_at = $4
		 WHERE id = $1`, id, accessHash, accessExpiresAt, at)
	return err
}

func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'REVOKED', last_activity_at = $2
		 WHERE id = $1 AND status <> 'REVOKED'`, id, at)
	return err
}

func (r *PostgresRepository) RevokeAllForPrincipal(ctx context.Context, principalID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'REVOKED', last_activity_at = $2
		 WHERE principal_id = $1 AND status = 'ACTIVE'`, principalID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'EXPIRED'
		 WHERE status = 'ACTIVE' AND refresh_expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var (
		s         domain.Session
		status    string
		ipAddress sql.NullString
		userAgent sql.NullString
	)
	err := row.Scan(&s.ID, &s.PrincipalID, &s.AccessTokenHash, &s.RefreshTokenHash,
		&s.AccessExpiresAt, &s.RefreshExpiresAt, &status, &ipAddress, &userAgent,
		&s.LastActivityAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.Status = domain.SessionStatus(status)
	s.IPAddress = ipAddress.String
	s.UserAgent = userAgent.String
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
