package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"pos-pairing-core/internal/merchant/domain"
)

// PostgresRepository persists merchants in the merchants table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a merchant repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const merchantColumns = `id, email, business_name, password_hash, status, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, id)
	return scanMerchant(row)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants WHERE email = $1`, email)
	return scanMerchant(row)
}

func (r *PostgresRepository) Create(ctx context.Context, m *domain.Merchant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO merchants (id, email, business_name, password_hash, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Email, m.BusinessName, m.PasswordHash, string(m.Status), m.CreatedAt, m.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

func scanMerchant(row *sql.Row) (*domain.Merchant, error) {
	var (
		m      domain.Merchant
		status string
	)
	err := row.Scan(&m.ID, &m.Email, &m.BusinessName, &m.PasswordHash, &status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Status = domain.MerchantStatus(status)
	return &m, nil
}
