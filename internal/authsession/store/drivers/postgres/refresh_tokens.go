package postgres

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

const upsertRefreshToken = `
INSERT INTO refresh_tokens (id, subject_id, token_hash, expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (subject_id) DO UPDATE SET
    token_hash = EXCLUDED.token_hash,
    expires_at = EXCLUDED.expires_at,
    created_at = EXCLUDED.created_at,
    updated_at = EXCLUDED.updated_at`

func (r *refreshTokensRepo) PutRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	now := r.now().UTC()
	if t.ID == "" {
		t.ID = idx.NewAt(now).String()
	}
	_, err := r.db.ExecContext(ctx, upsertRefreshToken, t.ID, t.SubjectID, t.TokenHash, t.ExpiresAt.UTC(), now)
	return mapErr(err)
}

const selectRefreshToken = `
SELECT id, subject_id, token_hash, expires_at, created_at, updated_at
FROM refresh_tokens
WHERE subject_id = $1`

func (r *refreshTokensRepo) GetRefreshToken(ctx context.Context, subjectID string) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx, selectRefreshToken, subjectID).
		Scan(&t.ID, &t.SubjectID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapErr(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, subjectID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE subject_id = $1`, subjectID)
	return mapErr(err)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}
