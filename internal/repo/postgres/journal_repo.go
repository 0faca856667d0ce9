package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

type JournalRepo struct {
	pool *pgxpool.Pool
}

func NewJournalRepo(pool *pgxpool.Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

func (r *JournalRepo) Create(ctx context.Context, tx pgx.Tx, userID int64, body string, createdAt time.Time) (model.JournalEntry, error) {
	if tx == nil {
		return model.JournalEntry{}, fmt.Errorf("transaction is required")
	}

	entry := model.JournalEntry{
		UserID: userID,
		Body:   body,
	}
	err := tx.QueryRow(ctx, `
INSERT INTO journal_entries (user_id, body, created_at)
VALUES ($1, $2, $3)
RETURNING id, created_at
`, userID, body, createdAt.UTC()).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("insert journal entry: %w", err)
	}

	return entry, nil
}

func (r *JournalRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.JournalEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, body, created_at
FROM journal_entries
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.JournalEntry, 0)
	for rows.Next() {
		var entry model.JournalEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Body, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", rows.Err())
	}

	return entries, nil
}

// DeleteOwned removes an entry only when the caller owns it. A linked
// bottle open keeps existing with its journal reference nulled, so the
// one-open-per-bottle-per-user history survives entry deletion.
func (r *JournalRepo) DeleteOwned(ctx context.Context, userID, entryID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM journal_entries
WHERE id = $1 AND user_id = $2
`, entryID, userID)
	if err != nil {
		return false, fmt.Errorf("delete journal entry: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
