package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// UserService defines application profile operations.
type UserService interface {
	Create(ctx context.Context, in model.CreateUser) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail returns errs.ErrNotFound when no profile exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type UserServiceImpl struct {
	users repository.UserRepository
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{users: users}
}

// Create validates and stores a profile.
func (s *UserServiceImpl) Create(ctx context.Context, in model.CreateUser) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if !model.ValidEmail(email) {
		return nil, fmt.Errorf("%w: %w", errs.ErrValidation, errs.ErrInvalidEmail)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	u := &model.User{ID: id, Name: name, Email: email}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID loads a profile by ID.
func (s *UserServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByEmail loads a profile by email.
func (s *UserServiceImpl) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", errs.ErrValidation)
	}
	return s.users.GetByEmail(ctx, email)
}
