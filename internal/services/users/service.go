package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/enums"
	"github.com/Olof-Tingskull/lovisa-bottles/internal/domain/model"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUserNotFound = errors.New("user not found")
)

type Store interface {
	Create(ctx context.Context, username string, role enums.Role) (model.User, error)
	Get(ctx context.Context, userID int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, username string, role enums.Role) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return model.User{}, ErrValidation
	}
	if role != enums.RoleCurator && role != enums.RoleRecipient {
		return model.User{}, ErrValidation
	}

	return s.store.Create(ctx, username, role)
}

func (s *Service) Get(ctx context.Context, userID int64) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}
	if userID <= 0 {
		return model.User{}, ErrValidation
	}

	user, err := s.store.Get(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return model.User{}, ErrUserNotFound
	}

	return *user, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}

	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return model.User{}, ErrValidation
	}

	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return model.User{}, ErrUserNotFound
	}

	return *user, nil
}
