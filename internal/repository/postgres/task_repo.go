package postgres

import (
	"context"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TaskRepo implements TaskRepository using PostgreSQL.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

const taskCols = `id, created_at, title, description, column_id, sort_order, priority`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	if err := row.Scan(&t.ID, &t.CreatedAt, &t.Title, &t.Description, &t.ColumnID, &t.Order, &t.Priority); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new task row.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const q = `
INSERT INTO tasks (id, title, description, column_id, sort_order, priority)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, t.ID, t.Title, t.Description, t.ColumnID, t.Order, t.Priority).Scan(&t.CreatedAt)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// GetByID selects a task by ID.
func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	q := `SELECT ` + taskCols + ` FROM tasks WHERE id=$1`
	t, err := scanTask(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return t, nil
}

// ListByBoard returns all tasks of the board's columns.
func (r *TaskRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Task, error) {
	const q = `
SELECT t.id, t.created_at, t.title, t.description, t.column_id, t.sort_order, t.priority
FROM tasks t JOIN board_columns c ON c.id = t.column_id
WHERE c.board_id=$1
ORDER BY t.sort_order NULLS FIRST, t.created_at`
	rows, err := r.db.Pool.Query(ctx, q, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update applies a partial update. Moving to another column goes through Move.
func (r *TaskRepo) Update(ctx context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error) {
	q := `
UPDATE tasks SET
  title = COALESCE($2, title),
  description = COALESCE($3, description),
  column_id = COALESCE($4, column_id),
  sort_order = COALESCE($5, sort_order),
  priority = COALESCE($6, priority)
WHERE id = $1
RETURNING ` + taskCols
	t, err := scanTask(r.db.Pool.QueryRow(ctx, q, id, upd.Title, upd.Description, upd.ColumnID, upd.Order, upd.Priority))
	if isForeignKeyViolation(err) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, mapNoRows(err)
	}
	return t, nil
}

// Move sets column and order in one statement.
func (r *TaskRepo) Move(ctx context.Context, id, columnID uuid.UUID, order int) (*model.Task, error) {
	q := `
UPDATE tasks SET column_id = $2, sort_order = $3
WHERE id = $1
RETURNING ` + taskCols
	t, err := scanTask(r.db.Pool.QueryRow(ctx, q, id, columnID, order))
	if isForeignKeyViolation(err) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, mapNoRows(err)
	}
	return t, nil
}

// Delete removes a task by ID.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// MaxOrder returns the largest sort_order in the column, or 0.
func (r *TaskRepo) MaxOrder(ctx context.Context, columnID uuid.UUID) (int, error) {
	const q = `SELECT COALESCE(MAX(sort_order), 0) FROM tasks WHERE column_id=$1`
	var top int
	if err := r.db.Pool.QueryRow(ctx, q, columnID).Scan(&top); err != nil {
		return 0, err
	}
	return top, nil
}

// OwnerOf returns the owner of the board containing the task.
func (r *TaskRepo) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const q = `
SELECT b.owner_id
FROM tasks t
JOIN board_columns c ON c.id = t.column_id
JOIN boards b ON b.id = c.board_id
WHERE t.id=$1`
	var owner uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&owner); err != nil {
		return uuid.Nil, mapNoRows(err)
	}
	return owner, nil
}
