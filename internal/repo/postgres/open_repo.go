package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

// ErrDuplicateOpen is raised by the (bottle_id, user_id) uniqueness
// constraint; it backstops the in-transaction exclusivity check when two
// submissions race.
var ErrDuplicateOpen = errors.New("bottle already opened by user")

type OpenRepo struct {
	pool *pgxpool.Pool
}

func NewOpenRepo(pool *pgxpool.Pool) *OpenRepo {
	return &OpenRepo{pool: pool}
}

func (r *OpenRepo) ExistsForBottleUser(ctx context.Context, tx pgx.Tx, bottleID, userID int64) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	err := tx.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM bottle_opens
  WHERE bottle_id = $1 AND user_id = $2
)
`, bottleID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check bottle open exists: %w", err)
	}

	return exists, nil
}

func (r *OpenRepo) ExistsForUserBetween(ctx context.Context, tx pgx.Tx, userID int64, from, until time.Time) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var exists bool
	err := tx.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM bottle_opens
  WHERE user_id = $1 AND opened_at >= $2 AND opened_at < $3
)
`, userID, from, until).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check daily bottle open exists: %w", err)
	}

	return exists, nil
}

func (r *OpenRepo) Create(ctx context.Context, tx pgx.Tx, bottleID, userID, journalID int64, openedAt time.Time) (model.BottleOpen, error) {
	if tx == nil {
		return model.BottleOpen{}, fmt.Errorf("transaction is required")
	}

	open := model.BottleOpen{
		BottleID:  bottleID,
		UserID:    userID,
		JournalID: journalID,
	}
	err := tx.QueryRow(ctx, `
INSERT INTO bottle_opens (bottle_id, user_id, journal_id, opened_at)
VALUES ($1, $2, $3, $4)
RETURNING id, opened_at
`, bottleID, userID, journalID, openedAt.UTC()).Scan(&open.ID, &open.OpenedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.BottleOpen{}, ErrDuplicateOpen
		}
		return model.BottleOpen{}, fmt.Errorf("insert bottle open: %w", err)
	}

	return open, nil
}

func (r *OpenRepo) ListByUser(ctx context.Context, userID int64) ([]model.BottleOpen, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, bottle_id, user_id, COALESCE(journal_id, 0), opened_at
FROM bottle_opens
WHERE user_id = $1
ORDER BY opened_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bottle opens: %w", err)
	}
	defer rows.Close()

	opens := make([]model.BottleOpen, 0)
	for rows.Next() {
		var open model.BottleOpen
		if err := rows.Scan(&open.ID, &open.BottleID, &open.UserID, &open.JournalID, &open.OpenedAt); err != nil {
			return nil, fmt.Errorf("scan bottle open: %w", err)
		}
		opens = append(opens, open)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate bottle opens: %w", rows.Err())
	}

	return opens, nil
}
