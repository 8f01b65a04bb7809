package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"pos-pairing-core/internal/activation/domain"
)

const pgUniqueViolation = "23505"

// PostgresRepository persists activation codes in the activation_codes
// table. Bind relies on a conditional UPDATE plus the partial unique index
// on (fingerprint) WHERE status='BOUND' for its atomicity guarantees.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an activation-code repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const codeColumns = `code, device_ref, fingerprint, attempts, max_attempts, status, issued_at, expires_at, bound_at, created_by, updated_at`

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.ActivationCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM activation_codes WHERE code = $1`, code)
	return scanCode(row)
}

func (r *PostgresRepository) GetUnusedByDevice(ctx context.Context, deviceRef string) (*domain.ActivationCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM activation_codes
		 WHERE device_ref = $1 AND status = 'UNUSED'
		 ORDER BY issued_at DESC LIMIT 1`, deviceRef)
	return scanCode(row)
}

func (r *PostgresRepository) FindBoundByFingerprint(ctx context.Context, fingerprint string) (*domain.ActivationCode, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+codeColumns+` FROM activation_codes
		 WHERE fingerprint = $1 AND status = 'BOUND' LIMIT 1`, fingerprint)
	return scanCode(row)
}

func (r *PostgresRepository) Create(ctx context.Context, c *domain.ActivationCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activation_codes
		 (code, device_ref, attempts, max_attempts, status, issued_at, expires_at, created_by, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.Code, nullString(c.DeviceRef), c.Attempts, c.MaxAttempts, string(c.Status),
		c.IssuedAt, c.ExpiresAt, nullString(c.CreatedBy), c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

// Bind performs the UNUSED->BOUND transition and the fingerprint reservation
// as one statement. The NOT EXISTS guard rejects an already-bound
// fingerprint; the partial unique index closes the race between two
// concurrent binds of the same fingerprint through different codes.
func (r *PostgresRepository) Bind(ctx context.Context, code, fingerprint string, at time.Time) (*domain.ActivationCode, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE activation_codes
		 SET status = 'BOUND', fingerprint = $2, bound_at = $3, updated_at = $3
		 WHERE code = $1 AND status = 'UNUSED'
		   AND NOT EXISTS (
		     SELECT 1 FROM activation_codes b
		     WHERE b.fingerprint = $2 AND b.status = 'BOUND'
		   )
		 RETURNING `+codeColumns, code, fingerprint, at)
	bound, err := scanCode(row)
	if isUniqueViolation(err) {
		return nil, ErrFingerprintBound
	}
	if err != nil {
		return nil, err
	}
	if bound != nil {
		return bound, nil
	}
	// Zero rows updated: decide which precondition failed.
	current, err := r.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if current == nil || current.Status != domain.CodeStatusUnused {
		return nil, ErrNotUnused
	}
	return nil, ErrFingerprintBound
}

func (r *PostgresRepository) IncrementAttempts(ctx context.Context, code string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activation_codes SET attempts = attempts + 1, updated_at = $2 WHERE code = $1`,
		code, at)
	return err
}

func (r *PostgresRepository) MarkExpired(ctx context.Context, code string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE activation_codes SET status = 'EXPIRED', updated_at = $2
		 WHERE code = $1 AND status <> 'EXPIRED'`, code, at)
	return err
}

func (r *PostgresRepository) ExpireAllForDevice(ctx context.Context, deviceRef string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE activation_codes SET status = 'EXPIRED', updated_at = $2
		 WHERE device_ref = $1 AND status IN ('UNUSED', 'BOUND')`, deviceRef, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE activation_codes SET status = 'EXPIRED', updated_at = $1
		 WHERE status = 'UNUSED' AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanCode(row *sql.Row) (*domain.ActivationCode, error) {
	var (
		c           domain.ActivationCode
		deviceRef   sql.NullString
		fingerprint sql.NullString
		status      string
		boundAt     sql.NullTime
		createdBy   sql.NullString
	)
	err := row.Scan(&c.Code, &deviceRef, &fingerprint, &c.Attempts, &c.MaxAttempts,
		&status, &c.IssuedAt, &c.ExpiresAt, &boundAt, &createdBy, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.DeviceRef = deviceRef.String
	c.Fingerprint = fingerprint.String
	c.Status = domain.CodeStatus(status)
	c.CreatedBy = createdBy.String
	if boundAt.Valid {
		c.BoundAt = &boundAt.Time
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
