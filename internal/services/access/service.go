package access

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrMediaNotFound  = errors.New("media object not found")
	ErrGrantNotFound  = errors.New("no access grant for media")
	ErrGrantExpired   = errors.New("access grant expired")
	ErrViewsExhausted = errors.New("view allowance exhausted")
)

type GrantStore interface {
	Upsert(ctx context.Context, mediaID, userID int64, maxViews *int, expiresAt *time.Time) (model.AccessGrant, error)
	Get(ctx context.Context, mediaID, userID int64) (*model.AccessGrant, error)
	ConsumeView(ctx context.Context, mediaID, userID int64, now time.Time) (int, bool, error)
	Delete(ctx context.Context, mediaID, userID int64) (bool, error)
	ListByMedia(ctx context.Context, mediaID int64) ([]model.AccessGrant, error)
}

type MediaStore interface {
	Get(ctx context.Context, mediaID int64) (*model.MediaObject, error)
}

type ObjectStorage interface {
	PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (*url.URL, error)
}

type Config struct {
	SignedURLTTL time.Duration
}

type Dependencies struct {
	Grants  GrantStore
	Media   MediaStore
	Storage ObjectStorage
	Logger  *zap.Logger
}

// FetchResult is a one-time signed URL for a media object plus the
// grant state after the consumed view.
type FetchResult struct {
	URL         string
	ContentType string
	Views       int
	MaxViews    *int
	ExpiresAt   *time.Time
}

// Service owns the per-(media, user) view allowances. Every successful
// fetch consumes exactly one view through a single conditional update,
// so two concurrent fetches can never push the counter past its
// ceiling.
type Service struct {
	grants  GrantStore
	media   MediaStore
	storage ObjectStorage
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 5 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		grants:  deps.Grants,
		media:   deps.Media,
		storage: deps.Storage,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Grant creates or replaces the allowance for a (media, user) pair. An
// existing view counter survives the replacement.
func (s *Service) Grant(ctx context.Context, mediaID, userID int64, maxViews *int, expiresAt *time.Time) (model.AccessGrant, error) {
	if s.grants == nil || s.media == nil {
		return model.AccessGrant{}, fmt.Errorf("access dependencies are not configured")
	}
	if mediaID <= 0 || userID <= 0 {
		return model.AccessGrant{}, ErrValidation
	}
	if maxViews != nil && *maxViews <= 0 {
		return model.AccessGrant{}, ErrValidation
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		return model.AccessGrant{}, ErrValidation
	}

	object, err := s.media.Get(ctx, mediaID)
	if err != nil {
		return model.AccessGrant{}, fmt.Errorf("load media object: %w", err)
	}
	if object == nil {
		return model.AccessGrant{}, ErrMediaNotFound
	}

	grant, err := s.grants.Upsert(ctx, mediaID, userID, maxViews, expiresAt)
	if err != nil {
		return model.AccessGrant{}, fmt.Errorf("store access grant: %w", err)
	}

	s.logger.Info("access_granted",
		zap.Int64("media_id", mediaID),
		zap.Int64("user_id", userID),
	)

	return grant, nil
}

// Check reports whether a view would currently succeed, without
// consuming one.
func (s *Service) Check(ctx context.Context, mediaID, userID int64) (*model.AccessGrant, error) {
	if s.grants == nil {
		return nil, fmt.Errorf("access dependencies are not configured")
	}

	grant, err := s.grants.Get(ctx, mediaID, userID)
	if err != nil {
		return nil, fmt.Errorf("load access grant: %w", err)
	}
	if grant == nil {
		return nil, ErrGrantNotFound
	}
	if grant.ExpiresAt != nil && !grant.ExpiresAt.After(s.now()) {
		return grant, ErrGrantExpired
	}
	if grant.MaxViews != nil && grant.Views >= *grant.MaxViews {
		return grant, ErrViewsExhausted
	}

	return grant, nil
}

// Fetch consumes one view and returns a short-lived signed URL for the
// object. The consume happens first; a view is only ever spent on a
// grant that qualified at that instant.
func (s *Service) Fetch(ctx context.Context, mediaID, userID int64) (FetchResult, error) {
	if s.grants == nil || s.media == nil || s.storage == nil {
		return FetchResult{}, fmt.Errorf("access dependencies are not configured")
	}
	if mediaID <= 0 || userID <= 0 {
		return FetchResult{}, ErrValidation
	}

	object, err := s.media.Get(ctx, mediaID)
	if err != nil {
		return FetchResult{}, fmt.Errorf("load media object: %w", err)
	}
	if object == nil {
		return FetchResult{}, ErrMediaNotFound
	}

	views, ok, err := s.grants.ConsumeView(ctx, mediaID, userID, s.now())
	if err != nil {
		return FetchResult{}, fmt.Errorf("consume view: %w", err)
	}
	if !ok {
		// The conditional update refused; re-read to name the reason.
		if _, checkErr := s.Check(ctx, mediaID, userID); checkErr != nil {
			return FetchResult{}, checkErr
		}
		return FetchResult{}, ErrViewsExhausted
	}

	signed, err := s.storage.PresignGet(ctx, object.ObjectKey, s.cfg.SignedURLTTL)
	if err != nil {
		return FetchResult{}, fmt.Errorf("presign media url: %w", err)
	}

	grant, err := s.grants.Get(ctx, mediaID, userID)
	if err != nil {
		return FetchResult{}, fmt.Errorf("load access grant: %w", err)
	}

	result := FetchResult{
		URL:         signed.String(),
		ContentType: object.ContentType,
		Views:       views,
	}
	if grant != nil {
		result.MaxViews = grant.MaxViews
		result.ExpiresAt = grant.ExpiresAt
	}

	return result, nil
}

// Revoke deletes the grant outright. Re-granting later starts a fresh
// view counter.
func (s *Service) Revoke(ctx context.Context, mediaID, userID int64) error {
	if s.grants == nil {
		return fmt.Errorf("access dependencies are not configured")
	}
	if mediaID <= 0 || userID <= 0 {
		return ErrValidation
	}

	deleted, err := s.grants.Delete(ctx, mediaID, userID)
	if err != nil {
		return fmt.Errorf("delete access grant: %w", err)
	}
	if !deleted {
		return ErrGrantNotFound
	}

	s.logger.Info("access_revoked",
		zap.Int64("media_id", mediaID),
		zap.Int64("user_id", userID),
	)

	return nil
}

func (s *Service) List(ctx context.Context, mediaID int64) ([]model.AccessGrant, error) {
	if s.grants == nil || s.media == nil {
		return nil, fmt.Errorf("access dependencies are not configured")
	}
	if mediaID <= 0 {
		return nil, ErrValidation
	}

	object, err := s.media.Get(ctx, mediaID)
	if err != nil {
		return nil, fmt.Errorf("load media object: %w", err)
	}
	if object == nil {
		return nil, ErrMediaNotFound
	}

	return s.grants.ListByMedia(ctx, mediaID)
}
