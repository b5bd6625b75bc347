// Package repository declares the storage contracts the services depend on.
// Implementations live in the memory and postgres subpackages; both report
// missing rows as errs.ErrNotFound and unique clashes as errs.ErrAlreadyExists.
package repository

import (
	"context"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository stores profiles, one per email.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// AccountRepository stores sign-in credentials for the identity service.
type AccountRepository interface {
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
}
