package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

type BottleRepo struct {
	pool *pgxpool.Pool
}

// BottleCandidate is a retrieval hit: a bottle with mood metadata plus
// its distance to the query embedding.
type BottleCandidate struct {
	BottleID int64
	Name     string
	MoodText string
	Distance float64
}

func NewBottleRepo(pool *pgxpool.Pool) *BottleRepo {
	return &BottleRepo{pool: pool}
}

func (r *BottleRepo) Create(ctx context.Context, bottle model.Bottle, moodEmbedding []float32) (model.Bottle, error) {
	if r.pool == nil {
		return model.Bottle{}, fmt.Errorf("postgres pool is nil")
	}

	content, err := json.Marshal(bottle.Content)
	if err != nil {
		return model.Bottle{}, fmt.Errorf("marshal bottle content: %w", err)
	}

	var embedding any
	if len(moodEmbedding) > 0 {
		embedding = pgvector.NewVector(moodEmbedding)
	}

	err = r.pool.QueryRow(ctx, `
INSERT INTO bottles (creator_id, recipient_id, name, content, mood_text, mood_embedding, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING id, created_at
`, bottle.CreatorID, bottle.RecipientID, bottle.Name, content, bottle.MoodText, embedding).
		Scan(&bottle.ID, &bottle.CreatedAt)
	if err != nil {
		return model.Bottle{}, fmt.Errorf("insert bottle: %w", err)
	}

	return bottle, nil
}

func (r *BottleRepo) Get(ctx context.Context, bottleID int64) (*model.Bottle, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var (
		bottle  model.Bottle
		content []byte
	)
	err := r.pool.QueryRow(ctx, `
SELECT id, creator_id, recipient_id, name, content, mood_text, created_at
FROM bottles
WHERE id = $1
`, bottleID).Scan(&bottle.ID, &bottle.CreatorID, &bottle.RecipientID, &bottle.Name, &content, &bottle.MoodText, &bottle.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bottle: %w", err)
	}

	if err := json.Unmarshal(content, &bottle.Content); err != nil {
		return nil, fmt.Errorf("unmarshal bottle content: %w", err)
	}

	return &bottle, nil
}

// NearestUnopened returns up to limit bottles ordered by ascending
// cosine distance between the stored mood embedding and query. Bottles
// without a mood description or already opened by the user never
// qualify; with assignedOnly the pool is further restricted to bottles
// assigned to the user.
func (r *BottleRepo) NearestUnopened(ctx context.Context, query []float32, userID int64, assignedOnly bool, limit int) ([]BottleCandidate, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(query) == 0 || userID <= 0 {
		return nil, fmt.Errorf("invalid candidate query payload")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.pool.Query(ctx, `
SELECT b.id, b.name, b.mood_text, b.mood_embedding <=> $1 AS distance
FROM bottles b
WHERE b.mood_text IS NOT NULL
  AND b.mood_embedding IS NOT NULL
  AND ($3::boolean = false OR b.recipient_id = $2)
  AND NOT EXISTS (
    SELECT 1 FROM bottle_opens o
    WHERE o.bottle_id = b.id AND o.user_id = $2
  )
ORDER BY distance ASC, b.id ASC
LIMIT $4
`, pgvector.NewVector(query), userID, assignedOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest bottles: %w", err)
	}
	defer rows.Close()

	candidates := make([]BottleCandidate, 0, limit)
	for rows.Next() {
		var cand BottleCandidate
		if err := rows.Scan(&cand.BottleID, &cand.Name, &cand.MoodText, &cand.Distance); err != nil {
			return nil, fmt.Errorf("scan bottle candidate: %w", err)
		}
		candidates = append(candidates, cand)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate bottle candidates: %w", rows.Err())
	}

	return candidates, nil
}

func (r *BottleRepo) ListByCreator(ctx context.Context, creatorID int64) ([]model.Bottle, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, creator_id, recipient_id, name, content, mood_text, created_at
FROM bottles
WHERE creator_id = $1
ORDER BY created_at DESC, id DESC
`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list bottles by creator: %w", err)
	}
	defer rows.Close()

	bottles := make([]model.Bottle, 0)
	for rows.Next() {
		var (
			bottle  model.Bottle
			content []byte
		)
		if err := rows.Scan(&bottle.ID, &bottle.CreatorID, &bottle.RecipientID, &bottle.Name, &content, &bottle.MoodText, &bottle.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bottle: %w", err)
		}
		if err := json.Unmarshal(content, &bottle.Content); err != nil {
			return nil, fmt.Errorf("unmarshal bottle content: %w", err)
		}
		bottles = append(bottles, bottle)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate bottles: %w", rows.Err())
	}

	return bottles, nil
}
