package postgres

import (
	"context"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ db *DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, email, name, pwd_hash, salt_auth)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Email, a.Name, a.PwdHash, a.SaltAuth)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const q = `
SELECT id, email, name, pwd_hash, salt_auth, created_at
FROM accounts WHERE id=$1`
	var a model.Account
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.Email, &a.Name, &a.PwdHash, &a.SaltAuth, &a.CreatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &a, nil
}

// GetByEmail selects an account by email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `
SELECT id, email, name, pwd_hash, salt_auth, created_at
FROM accounts WHERE email=$1`
	var a model.Account
	if err := r.db.Pool.QueryRow(ctx, q, email).Scan(&a.ID, &a.Email, &a.Name, &a.PwdHash, &a.SaltAuth, &a.CreatedAt); err != nil {
		return nil, mapNoRows(err)
	}
	return &a, nil
}
