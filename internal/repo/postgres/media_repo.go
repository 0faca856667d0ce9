package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

type MediaRepo struct {
	pool *pgxpool.Pool
}

func NewMediaRepo(pool *pgxpool.Pool) *MediaRepo {
	return &MediaRepo{pool: pool}
}

func (r *MediaRepo) Create(ctx context.Context, uploaderID int64, objectKey, contentType string, sizeBytes int64) (model.MediaObject, error) {
	if r.pool == nil {
		return model.MediaObject{}, fmt.Errorf("postgres pool is nil")
	}

	object := model.MediaObject{
		UploaderID:  uploaderID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
	}
	err := r.pool.QueryRow(ctx, `
INSERT INTO media_objects (uploader_id, object_key, content_type, size_bytes, created_at)
VALUES ($1, $2, $3, $4, NOW())
RETURNING id, created_at
`, uploaderID, objectKey, contentType, sizeBytes).Scan(&object.ID, &object.CreatedAt)
	if err != nil {
		return model.MediaObject{}, fmt.Errorf("insert media object: %w", err)
	}

	return object, nil
}

func (r *MediaRepo) Get(ctx context.Context, mediaID int64) (*model.MediaObject, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	var object model.MediaObject
	err := r.pool.QueryRow(ctx, `
SELECT id, uploader_id, object_key, content_type, size_bytes, created_at
FROM media_objects
WHERE id = $1
`, mediaID).Scan(&object.ID, &object.UploaderID, &object.ObjectKey, &object.ContentType, &object.SizeBytes, &object.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get media object: %w", err)
	}

	return &object, nil
}
