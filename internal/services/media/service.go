package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

const maxUploadBytes = 64 << 20

var ErrValidation = errors.New("validation error")

type Store interface {
	Create(ctx context.Context, uploaderID int64, objectKey, contentType string, sizeBytes int64) (model.MediaObject, error)
	Get(ctx context.Context, mediaID int64) (*model.MediaObject, error)
}

type Storage interface {
	Put(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, objectKey string) error
}

type UploadRequest struct {
	UploaderID  int64
	ContentType string
	Body        io.Reader
	SizeBytes   int64
}

type Dependencies struct {
	Store   Store
	Storage Storage
	Logger  *zap.Logger
}

// Service stores uploaded media in the private bucket and records the
// object row. Object keys are opaque uuids; the key never leaves the
// server.
type Service struct {
	store   Store
	storage Storage
	logger  *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:   deps.Store,
		storage: deps.Storage,
		logger:  logger,
	}
}

func (s *Service) Upload(ctx context.Context, req UploadRequest) (model.MediaObject, error) {
	if s.store == nil || s.storage == nil {
		return model.MediaObject{}, fmt.Errorf("media dependencies are not configured")
	}
	if req.UploaderID <= 0 || req.Body == nil {
		return model.MediaObject{}, ErrValidation
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		return model.MediaObject{}, ErrValidation
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		return model.MediaObject{}, ErrValidation
	}

	objectKey := uuid.NewString()
	if err := s.storage.Put(ctx, objectKey, contentType, req.Body, req.SizeBytes); err != nil {
		return model.MediaObject{}, fmt.Errorf("store media object: %w", err)
	}

	object, err := s.store.Create(ctx, req.UploaderID, objectKey, contentType, req.SizeBytes)
	if err != nil {
		// Orphaned blobs are worse than a failed upload; best-effort undo.
		if delErr := s.storage.Delete(ctx, objectKey); delErr != nil {
			s.logger.Warn("orphaned media object",
				zap.String("object_key", objectKey),
				zap.Error(delErr),
			)
		}
		return model.MediaObject{}, fmt.Errorf("record media object: %w", err)
	}

	s.logger.Info("media_uploaded",
		zap.Int64("media_id", object.ID),
		zap.Int64("uploader_id", req.UploaderID),
		zap.Int64("size_bytes", req.SizeBytes),
	)

	return object, nil
}

func (s *Service) Get(ctx context.Context, mediaID int64) (*model.MediaObject, error) {
	if s.store == nil {
		return nil, fmt.Errorf("media dependencies are not configured")
	}
	if mediaID <= 0 {
		return nil, ErrValidation
	}

	return s.store.Get(ctx, mediaID)
}
