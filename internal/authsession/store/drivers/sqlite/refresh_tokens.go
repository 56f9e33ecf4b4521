package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/authsession/internal/authsession/domain"
	"github.com/aussiebroadwan/authsession/pkg/idx"
)

type refreshTokensRepo struct {
	db  *sql.DB
	now func() time.Time
}

// PutRefreshToken relies on the UNIQUE(subject_id) constraint for upsert.
// The row id survives overwrites so created_at stays meaningful.
func (r *refreshTokensRepo) PutRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := r.now()
	if t.ID == "" {
		t.ID = idx.NewAt(now).String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, subject_id, token_hash, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (subject_id) DO UPDATE SET
			token_hash = excluded.token_hash,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		t.ID, t.SubjectID, t.TokenHash, toMillis(t.ExpiresAt), toMillis(now), toMillis(now),
	)
	return mapErr(err)
}

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, subjectID string) (domain.RefreshToken, error) {
	var (
		t                          domain.RefreshToken
		expires, created, modified int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, subject_id, token_hash, expires_at, created_at, updated_at
		FROM refresh_tokens WHERE subject_id = ?`, subjectID,
	).Scan(&t.ID, &t.SubjectID, &t.TokenHash, &expires, &created, &modified)
	if err != nil {
		return domain.RefreshToken{}, mapErr(err)
	}

	t.ExpiresAt = fromMillis(expires)
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(modified)
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, subjectID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE subject_id = ?`, subjectID)
	return mapErr(err)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
