package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) Save(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (
  id, username, password_hash, api_key, role, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6
) ON CONFLICT (id) DO UPDATE SET
  username=$2, password_hash=$3, api_key=$4, role=$5;
`
	_, err := r.pool.Exec(ctx, q, u.ID, u.Username, u.PasswordHash, u.APIKey, string(u.Role), u.CreatedAt)
	return err
}

func (r *PostgresUserRepo) FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	const q = `
SELECT id, username, password_hash, api_key, role, created_at
  FROM users WHERE api_key=$1 LIMIT 1;
`
	return r.scanOne(r.pool.QueryRow(ctx, q, apiKey))
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `
SELECT id, username, password_hash, api_key, role, created_at
  FROM users WHERE username=$1 LIMIT 1;
`
	return r.scanOne(r.pool.QueryRow(ctx, q, username))
}

func (r *PostgresUserRepo) scanOne(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.APIKey, &role, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
