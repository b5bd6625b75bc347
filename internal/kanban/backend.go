// Package kanban is the client-facing data access layer. Client wraps a
// Backend and turns every failure into a sentinel result (nil, false or an
// empty list) after logging it, so callers never handle transport errors.
package kanban

import (
	"context"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/service"
	"github.com/gofrs/uuid/v5"
)

// Backend performs the data operations and reports failures as errors.
type Backend interface {
	CreateBoard(ctx context.Context, in model.CreateBoard) (*model.Board, error)
	GetBoard(ctx context.Context, id uuid.UUID) (*model.Board, error)
	ListBoards(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error)
	UpdateBoard(ctx context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error)
	DeleteBoard(ctx context.Context, id uuid.UUID) error

	CreateColumn(ctx context.Context, in model.CreateColumn) (*model.Column, error)
	UpdateColumn(ctx context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error)
	DeleteColumn(ctx context.Context, id uuid.UUID) error

	CreateTask(ctx context.Context, in model.CreateTask) (*model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error)
	MoveTask(ctx context.Context, id uuid.UUID, mv model.MoveTask) (*model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error

	CreateUser(ctx context.Context, in model.CreateUser) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Local runs the backend in process on top of the services.
type Local struct {
	Boards  service.BoardService
	Columns service.ColumnService
	Tasks   service.TaskService
	Users   service.UserService
}

var _ Backend = (*Local)(nil)

func (l *Local) CreateBoard(ctx context.Context, in model.CreateBoard) (*model.Board, error) {
	return l.Boards.Create(ctx, in)
}

func (l *Local) GetBoard(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	return l.Boards.Get(ctx, id)
}

func (l *Local) ListBoards(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	return l.Boards.ListByOwner(ctx, ownerID)
}

func (l *Local) UpdateBoard(ctx context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error) {
	return l.Boards.Update(ctx, id, upd)
}

func (l *Local) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	return l.Boards.Delete(ctx, id)
}

func (l *Local) CreateColumn(ctx context.Context, in model.CreateColumn) (*model.Column, error) {
	return l.Columns.Create(ctx, in)
}

func (l *Local) UpdateColumn(ctx context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error) {
	return l.Columns.Update(ctx, id, upd)
}

func (l *Local) DeleteColumn(ctx context.Context, id uuid.UUID) error {
	return l.Columns.Delete(ctx, id)
}

func (l *Local) CreateTask(ctx context.Context, in model.CreateTask) (*model.Task, error) {
	return l.Tasks.Create(ctx, in)
}

func (l *Local) UpdateTask(ctx context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error) {
	return l.Tasks.Update(ctx, id, upd)
}

func (l *Local) MoveTask(ctx context.Context, id uuid.UUID, mv model.MoveTask) (*model.Task, error) {
	return l.Tasks.Move(ctx, id, mv.ColumnID, mv.Order)
}

func (l *Local) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return l.Tasks.Delete(ctx, id)
}

func (l *Local) CreateUser(ctx context.Context, in model.CreateUser) (*model.User, error) {
	return l.Users.Create(ctx, in)
}

func (l *Local) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return l.Users.GetByEmail(ctx, email)
}
