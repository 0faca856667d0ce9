package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

type GrantRepo struct {
	pool *pgxpool.Pool
}

func NewGrantRepo(pool *pgxpool.Pool) *GrantRepo {
	return &GrantRepo{pool: pool}
}

// Upsert stores the limits for a (media, user) pair. Re-granting
// replaces max_views and expires_at but never touches the accumulated
// view counter.
func (r *GrantRepo) Upsert(ctx context.Context, mediaID, userID int64, maxViews *int, expiresAt *time.Time) (model.AccessGrant, error) {
	if r.pool == nil {
		return model.AccessGrant{}, fmt.Errorf("postgres pool is nil")
	}
	if mediaID <= 0 || userID <= 0 {
		return model.AccessGrant{}, fmt.Errorf("invalid grant payload")
	}

	grant := model.AccessGrant{
		MediaID: mediaID,
		UserID:  userID,
	}
	err := r.pool.QueryRow(ctx, `
INSERT INTO access_grants (media_id, user_id, views, max_views, expires_at, granted_at, updated_at)
VALUES ($1, $2, 0, $3, $4, NOW(), NOW())
ON CONFLICT (media_id, user_id) DO UPDATE SET
	max_views = EXCLUDED.max_views,
	expires_at = EXCLUDED.expires_at,
	updated_at = NOW()
RETURNING views, max_views, expires_at, granted_at, updated_at
`, mediaID, userID, maxViews, expiresAt).
		Scan(&grant.Views, &grant.MaxViews, &grant.ExpiresAt, &grant.GrantedAt, &grant.UpdatedAt)
	if err != nil {
		return model.AccessGrant{}, fmt.Errorf("upsert access grant: %w", err)
	}

	return grant, nil
}

func (r *GrantRepo) Get(ctx context.Context, mediaID, userID int64) (*model.AccessGrant, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var grant model.AccessGrant
	err := r.pool.QueryRow(ctx, `
SELECT media_id, user_id, views, max_views, expires_at, granted_at, updated_at
FROM access_grants
WHERE media_id = $1 AND user_id = $2
`, mediaID, userID).
		Scan(&grant.MediaID, &grant.UserID, &grant.Views, &grant.MaxViews, &grant.ExpiresAt, &grant.GrantedAt, &grant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get access grant: %w", err)
	}

	return &grant, nil
}

// ConsumeView is the single conditional increment behind every
// successful media view: the counter moves only while the grant is
// unexpired and below its ceiling, so concurrent viewers cannot
// overshoot. Returns false when no row qualified.
func (r *GrantRepo) ConsumeView(ctx context.Context, mediaID, userID int64, now time.Time) (int, bool, error) {
	if r.pool == nil {
		return 0, false, fmt.Errorf("postgres pool is nil")
	}
	if mediaID <= 0 || userID <= 0 {
		return 0, false, fmt.Errorf("invalid view consume payload")
	}

	var views int
	err := r.pool.QueryRow(ctx, `
UPDATE access_grants
SET views = views + 1, updated_at = $3
WHERE media_id = $1 AND user_id = $2
  AND (expires_at IS NULL OR expires_at > $3)
  AND (max_views IS NULL OR views < max_views)
RETURNING views
`, mediaID, userID, now.UTC()).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("consume grant view: %w", err)
	}

	return views, true, nil
}

func (r *GrantRepo) Delete(ctx context.Context, mediaID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM access_grants
WHERE media_id = $1 AND user_id = $2
`, mediaID, userID)
	if err != nil {
		return false, fmt.Errorf("delete access grant: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *GrantRepo) ListByMedia(ctx context.Context, mediaID int64) ([]model.AccessGrant, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT media_id, user_id, views, max_views, expires_at, granted_at, updated_at
FROM access_grants
WHERE media_id = $1
ORDER BY granted_at ASC, user_id ASC
`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	defer rows.Close()

	grants := make([]model.AccessGrant, 0)
	for rows.Next() {
		var grant model.AccessGrant
		if err := rows.Scan(&grant.MediaID, &grant.UserID, &grant.Views, &grant.MaxViews, &grant.ExpiresAt, &grant.GrantedAt, &grant.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan access grant: %w", err)
		}
		grants = append(grants, grant)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate access grants: %w", rows.Err())
	}

	return grants, nil
}

func (r *GrantRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM access_grants
WHERE expires_at IS NOT NULL AND expires_at < $1
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired access grants: %w", err)
	}

	return tag.RowsAffected(), nil
}
