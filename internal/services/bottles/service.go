package bottles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrMediaNotFound = errors.New("referenced media object not found")
)

type Store interface {
	Create(ctx context.Context, bottle model.Bottle, moodEmbedding []float32) (model.Bottle, error)
	Get(ctx context.Context, bottleID int64) (*model.Bottle, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]model.Bottle, error)
}

type MediaStore interface {
	Get(ctx context.Context, mediaID int64) (*model.MediaObject, error)
}

type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type CreateRequest struct {
	CreatorID   int64
	RecipientID *int64
	Name        string
	Content     []model.ContentBlock
	MoodText    *string
}

type Dependencies struct {
	Store    Store
	Media    MediaStore
	Embedder EmbeddingProvider
	Logger   *zap.Logger
}

// Service handles curator-side authoring. The mood embedding is
// computed once, at creation; a bottle without a mood description never
// enters candidate retrieval.
type Service struct {
	store    Store
	media    MediaStore
	embedder EmbeddingProvider
	logger   *zap.Logger
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:    deps.Store,
		media:    deps.Media,
		embedder: deps.Embedder,
		logger:   logger,
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (model.Bottle, error) {
	if s.store == nil || s.media == nil || s.embedder == nil {
		return model.Bottle{}, fmt.Errorf("bottle dependencies are not configured")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.CreatorID <= 0 || req.Name == "" || len(req.Content) == 0 {
		return model.Bottle{}, ErrValidation
	}
	if err := s.validateContent(ctx, req.Content); err != nil {
		return model.Bottle{}, err
	}

	var moodText *string
	if req.MoodText != nil {
		trimmed := strings.TrimSpace(*req.MoodText)
		if trimmed != "" {
			moodText = &trimmed
		}
	}

	var embedding []float32
	if moodText != nil {
		vec, err := s.embedder.Embed(ctx, *moodText)
		if err != nil {
			return model.Bottle{}, fmt.Errorf("embed mood text: %w", err)
		}
		embedding = vec
	}

	bottle, err := s.store.Create(ctx, model.Bottle{
		CreatorID:   req.CreatorID,
		RecipientID: req.RecipientID,
		Name:        req.Name,
		Content:     req.Content,
		MoodText:    moodText,
	}, embedding)
	if err != nil {
		return model.Bottle{}, fmt.Errorf("store bottle: %w", err)
	}

	s.logger.Info("bottle_created",
		zap.Int64("bottle_id", bottle.ID),
		zap.Int64("creator_id", req.CreatorID),
		zap.Bool("retrievable", moodText != nil),
	)

	return bottle, nil
}

func (s *Service) validateContent(ctx context.Context, blocks []model.ContentBlock) error {
	for _, block := range blocks {
		if !block.Kind.Valid() {
			return ErrValidation
		}
		if block.Kind.IsMedia() {
			if block.MediaID <= 0 {
				return ErrValidation
			}
			object, err := s.media.Get(ctx, block.MediaID)
			if err != nil {
				return fmt.Errorf("load media object: %w", err)
			}
			if object == nil {
				return ErrMediaNotFound
			}
			continue
		}
		if strings.TrimSpace(block.Text) == "" {
			return ErrValidation
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, bottleID int64) (*model.Bottle, error) {
	if s.store == nil {
		return nil, fmt.Errorf("bottle dependencies are not configured")
	}
	if bottleID <= 0 {
		return nil, ErrValidation
	}

	return s.store.Get(ctx, bottleID)
}

func (s *Service) ListByCreator(ctx context.Context, creatorID int64) ([]model.Bottle, error) {
	if s.store == nil {
		return nil, fmt.Errorf("bottle dependencies are not configured")
	}
	if creatorID <= 0 {
		return nil, ErrValidation
	}

	return s.store.ListByCreator(ctx, creatorID)
}
