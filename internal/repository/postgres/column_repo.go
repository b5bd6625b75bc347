package postgres

import (
	"context"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ColumnRepo implements ColumnRepository using PostgreSQL.
type ColumnRepo struct{ db *DB }

// NewColumnRepo constructs a column repository.
func NewColumnRepo(db *DB) *ColumnRepo { return &ColumnRepo{db: db} }

// Create inserts a new column row.
func (r *ColumnRepo) Create(ctx context.Context, c *model.Column) error {
	const q = `
INSERT INTO board_columns (id, title, board_id, sort_order)
VALUES ($1, $2, $3, $4)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, c.ID, c.Title, c.BoardID, c.Order).Scan(&c.CreatedAt)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// GetByID selects a column by ID.
func (r *ColumnRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Column, error) {
	const q = `
SELECT id, created_at, title, board_id, sort_order
FROM board_columns WHERE id=$1`
	var c model.Column
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.CreatedAt, &c.Title, &c.BoardID, &c.Order); err != nil {
		return nil, mapNoRows(err)
	}
	return &c, nil
}

// ListByBoard returns the board's columns ordered by sort_order.
func (r *ColumnRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Column, error) {
	const q = `
SELECT id, created_at, title, board_id, sort_order
FROM board_columns WHERE board_id=$1
ORDER BY sort_order, created_at`
	rows, err := r.db.Pool.Query(ctx, q, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Column, 0)
	for rows.Next() {
		var c model.Column
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Title, &c.BoardID, &c.Order); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update applies a partial update.
func (r *ColumnRepo) Update(ctx context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error) {
	const q = `
UPDATE board_columns
SET title = COALESCE($2, title), sort_order = COALESCE($3, sort_order)
WHERE id = $1
RETURNING id, created_at, title, board_id, sort_order`
	var c model.Column
	if err := r.db.Pool.QueryRow(ctx, q, id, upd.Title, upd.Order).Scan(&c.ID, &c.CreatedAt, &c.Title, &c.BoardID, &c.Order); err != nil {
		return nil, mapNoRows(err)
	}
	return &c, nil
}

// Delete removes a column by ID.
func (r *ColumnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM board_columns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// OwnerOf returns the owner of the board containing the column.
func (r *ColumnRepo) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const q = `
SELECT b.owner_id
FROM board_columns c JOIN boards b ON b.id = c.board_id
WHERE c.id=$1`
	var owner uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&owner); err != nil {
		return uuid.Nil, mapNoRows(err)
	}
	return owner, nil
}
