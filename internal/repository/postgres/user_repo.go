package postgres

import (
	"context"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo keeps application profiles in the users table.
type UserRepo struct{ db *DB }

// NewUserRepo returns a profile repository over db.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, created_at, name, email`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.Name, &u.Email); err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}

// Create stores u and fills CreatedAt. A taken email yields errs.ErrAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1, $2, $3) RETURNING created_at`,
		u.ID, u.Name, u.Email,
	).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}
