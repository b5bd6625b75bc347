package repository

import (
	"context"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
)

// BoardRepository stores boards.
type BoardRepository interface {
	// Create inserts a board and fills CreatedAt.
	Create(ctx context.Context, b *model.Board) error
	// GetByID loads a board without its columns.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	// ListByOwner returns the owner's boards, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error)
	// Update applies non-nil fields and returns the stored row.
	Update(ctx context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error)
	// Delete removes a board; columns and tasks cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ColumnRepository stores board columns.
type ColumnRepository interface {
	Create(ctx context.Context, c *model.Column) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Column, error)
	// ListByBoard returns the board's columns ordered by Order.
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Column, error)
	Update(ctx context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error)
	// Delete removes a column; its tasks cascade.
	Delete(ctx context.Context, id uuid.UUID) error
	// OwnerOf returns the owner of the board containing the column.
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// TaskRepository stores tasks.
type TaskRepository interface {
	Create(ctx context.Context, t *model.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	// ListByBoard returns every task of every column of the board.
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Task, error)
	Update(ctx context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error)
	// Move sets column and order in a single write.
	Move(ctx context.Context, id, columnID uuid.UUID, order int) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MaxOrder returns the largest order in the column, 0 when it has no ordered tasks.
	MaxOrder(ctx context.Context, columnID uuid.UUID) (int, error)
	// OwnerOf returns the owner of the board containing the task.
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}
