package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/domain"
)

type usersRepo struct {
	db  *sql.DB
	now func() time.Time
}

const selectUser = `SELECT id, email, name, created_at, updated_at FROM users`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.CreatedAt, now,
	)
	return mapErr(err)
}

func (r *usersRepo) scanOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	return u, nil
}
