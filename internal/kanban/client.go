package kanban

import (
	"context"
	"errors"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Client exposes the board operations with sentinel results.
type Client struct {
	b   Backend
	log *zap.Logger
}

// New wraps a backend. A nil logger discards failure logs.
func New(b Backend, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{b: b, log: log.Named("kanban")}
}

func (c *Client) fail(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	if errors.Is(err, errs.ErrNotFound) {
		c.log.Debug("not found", fields...)
		return
	}
	c.log.Warn("operation failed", fields...)
}

func id(key string, v uuid.UUID) zap.Field { return zap.String(key, v.String()) }

// CreateBoard returns the created board, or nil.
func (c *Client) CreateBoard(ctx context.Context, in model.CreateBoard) *model.Board {
	b, err := c.b.CreateBoard(ctx, in)
	if err != nil {
		c.fail("createBoard", err, id("owner", in.OwnerID))
		return nil
	}
	return b
}

// GetBoardByID returns the board with sorted, colored columns and sorted tasks, or nil.
func (c *Client) GetBoardByID(ctx context.Context, boardID uuid.UUID) *model.Board {
	b, err := c.b.GetBoard(ctx, boardID)
	if err != nil {
		c.fail("getBoardById", err, id("board", boardID))
		return nil
	}
	return b
}

// GetBoardsByOwner returns the owner's boards newest first, or an empty list.
func (c *Client) GetBoardsByOwner(ctx context.Context, ownerID uuid.UUID) []model.Board {
	list, err := c.ListBoards(ctx, ownerID)
	if err != nil {
		return []model.Board{}
	}
	return list
}

// ListBoards is GetBoardsByOwner with the failure reported, for callers that
// must tell an empty account from an unreachable backend.
func (c *Client) ListBoards(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	list, err := c.b.ListBoards(ctx, ownerID)
	if err != nil {
		c.fail("getBoardsByOwner", err, id("owner", ownerID))
		return nil, err
	}
	if list == nil {
		list = []model.Board{}
	}
	return list, nil
}

// UpdateBoard returns the updated board, or nil.
func (c *Client) UpdateBoard(ctx context.Context, boardID uuid.UUID, upd model.UpdateBoard) *model.Board {
	b, err := c.b.UpdateBoard(ctx, boardID, upd)
	if err != nil {
		c.fail("updateBoard", err, id("board", boardID))
		return nil
	}
	return b
}

// DeleteBoard reports whether the board was deleted.
func (c *Client) DeleteBoard(ctx context.Context, boardID uuid.UUID) bool {
	if err := c.b.DeleteBoard(ctx, boardID); err != nil {
		c.fail("deleteBoard", err, id("board", boardID))
		return false
	}
	return true
}

// CreateColumn returns the created column, or nil. Callers pick the order,
// usually model.NextColumnOrder of the current board.
func (c *Client) CreateColumn(ctx context.Context, in model.CreateColumn) *model.Column {
	col, err := c.b.CreateColumn(ctx, in)
	if err != nil {
		c.fail("createColumn", err, id("board", in.BoardID))
		return nil
	}
	return col
}

// UpdateColumn returns the updated column, or nil.
func (c *Client) UpdateColumn(ctx context.Context, columnID uuid.UUID, upd model.UpdateColumn) *model.Column {
	col, err := c.b.UpdateColumn(ctx, columnID, upd)
	if err != nil {
		c.fail("updateColumn", err, id("column", columnID))
		return nil
	}
	return col
}

// DeleteColumn reports whether the column was deleted.
func (c *Client) DeleteColumn(ctx context.Context, columnID uuid.UUID) bool {
	if err := c.b.DeleteColumn(ctx, columnID); err != nil {
		c.fail("deleteColumn", err, id("column", columnID))
		return false
	}
	return true
}

// CreateTask returns the created task, or nil. A nil order appends the task.
func (c *Client) CreateTask(ctx context.Context, in model.CreateTask) *model.Task {
	t, err := c.b.CreateTask(ctx, in)
	if err != nil {
		c.fail("createTask", err, id("column", in.ColumnID))
		return nil
	}
	return t
}

// UpdateTask returns the updated task, or nil.
func (c *Client) UpdateTask(ctx context.Context, taskID uuid.UUID, upd model.UpdateTask) *model.Task {
	t, err := c.b.UpdateTask(ctx, taskID, upd)
	if err != nil {
		c.fail("updateTask", err, id("task", taskID))
		return nil
	}
	return t
}

// MoveTask relocates a task and returns it, or nil. A nil order appends the
// task to the end of the destination column.
func (c *Client) MoveTask(ctx context.Context, taskID, columnID uuid.UUID, order *int) *model.Task {
	t, err := c.b.MoveTask(ctx, taskID, model.MoveTask{ColumnID: columnID, Order: order})
	if err != nil {
		c.fail("moveTask", err, id("task", taskID), id("column", columnID))
		return nil
	}
	return t
}

// DeleteTask reports whether the task was deleted.
func (c *Client) DeleteTask(ctx context.Context, taskID uuid.UUID) bool {
	if err := c.b.DeleteTask(ctx, taskID); err != nil {
		c.fail("deleteTask", err, id("task", taskID))
		return false
	}
	return true
}

// CreateUser returns the created profile, or nil.
func (c *Client) CreateUser(ctx context.Context, in model.CreateUser) *model.User {
	u, err := c.b.CreateUser(ctx, in)
	if err != nil {
		c.fail("createUser", err)
		return nil
	}
	return u
}

// GetUserByEmail returns the profile, or nil when it is missing or the lookup failed.
func (c *Client) GetUserByEmail(ctx context.Context, email string) *model.User {
	u, _ := c.LookupUserByEmail(ctx, email)
	return u
}

// LookupUserByEmail separates "no such user" (errs.ErrNotFound) from lookup failures.
func (c *Client) LookupUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := c.b.GetUserByEmail(ctx, email)
	if err != nil {
		c.fail("getUserByEmail", err)
		return nil, err
	}
	return u, nil
}
