// Package dnd moves tasks between columns in response to drag and drop.
package dnd

import (
	"context"
	"sync"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// PayloadKey is the data transfer key carrying the dragged task id.
const PayloadKey = "taskId"

// MsgMoveFailed is recorded in the app state when a move does not go through.
const MsgMoveFailed = "Erro ao mover tarefa"

// Payload is the drag data transfer.
type Payload map[string]string

// NewPayload returns the payload for dragging a task.
func NewPayload(taskID uuid.UUID) Payload { return Payload{PayloadKey: taskID.String()} }

// TaskID extracts the dragged task id.
func (p Payload) TaskID() (uuid.UUID, bool) {
	raw, ok := p[PayloadKey]
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Remote is the part of the remote data access a move needs.
// *kanban.Client satisfies it.
type Remote interface {
	MoveTask(ctx context.Context, taskID, columnID uuid.UUID, order *int) *model.Task
	GetBoardByID(ctx context.Context, boardID uuid.UUID) *model.Board
}

// Sink receives the refreshed board; *appstate.Store satisfies it.
type Sink interface {
	UpdateBoard(b model.Board)
	SetError(msg string)
}

// Controller runs moves for one open board. Moves are serialized so the last
// response wins.
type Controller struct {
	remote  Remote
	sink    Sink
	boardID uuid.UUID
	log     *zap.Logger
	mu      sync.Mutex
}

// NewController returns a controller for the board boardID.
func NewController(remote Remote, sink Sink, boardID uuid.UUID, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{remote: remote, sink: sink, boardID: boardID, log: log.Named("dnd")}
}

// MoveTask appends the task to the column, refetches the board and hands it to
// the sink. It reports whether the state was updated.
func (c *Controller) MoveTask(ctx context.Context, taskID, columnID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remote.MoveTask(ctx, taskID, columnID, nil) == nil {
		c.log.Info("move rejected", zap.String("task", taskID.String()), zap.String("column", columnID.String()))
		c.sink.SetError(MsgMoveFailed)
		return false
	}
	b := c.remote.GetBoardByID(ctx, c.boardID)
	if b == nil {
		c.log.Info("refetch failed", zap.String("board", c.boardID.String()))
		c.sink.SetError(MsgMoveFailed)
		return false
	}
	c.sink.UpdateBoard(*b)
	return true
}

// DropState is the visual state of a column while something is dragged over it.
type DropState int

const (
	Idle DropState = iota
	DragOver
)

func (s DropState) String() string {
	if s == DragOver {
		return "drag-over"
	}
	return "idle"
}

// DropTarget is one column's drop zone.
type DropTarget struct {
	columnID uuid.UUID
	ctrl     *Controller

	mu    sync.Mutex
	state DropState
}

// NewDropTarget binds a drop zone to a column.
func NewDropTarget(ctrl *Controller, columnID uuid.UUID) *DropTarget {
	return &DropTarget{ctrl: ctrl, columnID: columnID}
}

// DragOver highlights the column when the payload carries a task.
func (d *DropTarget) DragOver(p Payload) {
	if _, ok := p.TaskID(); !ok {
		return
	}
	d.mu.Lock()
	d.state = DragOver
	d.mu.Unlock()
}

// DragLeave clears the highlight.
func (d *DropTarget) DragLeave() {
	d.mu.Lock()
	d.state = Idle
	d.mu.Unlock()
}

// Drop clears the highlight and moves the dragged task into the column.
// It reports whether a move happened.
func (d *DropTarget) Drop(ctx context.Context, p Payload) bool {
	d.DragLeave()
	id, ok := p.TaskID()
	if !ok {
		return false
	}
	return d.ctrl.MoveTask(ctx, id, d.columnID)
}

// IsDropTarget reports whether the column is highlighted.
func (d *DropTarget) IsDropTarget() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == DragOver
}

// State returns the current drop state.
func (d *DropTarget) State() DropState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
