package sqlite

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
	return r.scanOne(ctx, selectUser+` WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanOne(ctx, selectUser+` WHERE email = ?`, email)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := r.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, toMillis(u.CreatedAt), toMillis(now),
	)
	return mapErr(err)
}

func (r *usersRepo) scanOne(ctx context.Context, query string, arg any) (domain.User, error) {
	var (
		u                  domain.User
		created, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &created, &updatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}
