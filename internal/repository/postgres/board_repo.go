package postgres

import (
	"context"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
)

// BoardRepo implements BoardRepository using PostgreSQL.
type BoardRepo struct{ db *DB }

// NewBoardRepo constructs a board repository.
func NewBoardRepo(db *DB) *BoardRepo { return &BoardRepo{db: db} }

// Create inserts a new board row.
func (r *BoardRepo) Create(ctx context.Context, b *model.Board) error {
	const q = `
INSERT INTO boards (id, title, owner_id)
VALUES ($1, $2, $3)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, b.ID, b.Title, b.OwnerID).Scan(&b.CreatedAt)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// GetByID selects a board by ID.
func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	const q = `
SELECT id, created_at, title, owner_id
FROM boards WHERE id=$1`
	var b model.Board
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&b.ID, &b.CreatedAt, &b.Title, &b.OwnerID); err != nil {
		return nil, mapNoRows(err)
	}
	return &b, nil
}

// ListByOwner returns the owner's boards, newest first.
func (r *BoardRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	const q = `
SELECT id, created_at, title, owner_id
FROM boards WHERE owner_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Board, 0)
	for rows.Next() {
		var b model.Board
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.Title, &b.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update applies a partial update.
func (r *BoardRepo) Update(ctx context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error) {
	const q = `
UPDATE boards SET title = COALESCE($2, title)
WHERE id = $1
RETURNING id, created_at, title, owner_id`
	var b model.Board
	if err := r.db.Pool.QueryRow(ctx, q, id, upd.Title).Scan(&b.ID, &b.CreatedAt, &b.Title, &b.OwnerID); err != nil {
		return nil, mapNoRows(err)
	}
	return &b, nil
}

// Delete removes a board by ID.
func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM boards WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
