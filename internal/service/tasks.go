package service

import (
	"context"
	"fmt"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// TaskService defines task operations.
type TaskService interface {
	// Create stores a task; a nil order appends it to the end of its column.
	Create(ctx context.Context, in model.CreateTask) (*model.Task, error)
	Update(ctx context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error)
	// Move relocates a task; a nil order appends it to the end of the destination column.
	Move(ctx context.Context, id, columnID uuid.UUID, order *int) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// TaskServiceImpl reads the column maximum and writes the task in separate
// statements. Two concurrent appends to one column can therefore receive the
// same order; ties are kept stable by the board read path.
type TaskServiceImpl struct {
	columns repository.ColumnRepository
	tasks   repository.TaskRepository
	boards  repository.BoardRepository
	notify  Notifier
}

// NewTaskService constructs TaskService. notify may be nil.
func NewTaskService(boards repository.BoardRepository, columns repository.ColumnRepository, tasks repository.TaskRepository, notify Notifier) *TaskServiceImpl {
	return &TaskServiceImpl{boards: boards, columns: columns, tasks: tasks, notify: notify}
}

func checkPriority(p *model.Priority) error {
	if p != nil && !p.Valid() {
		return fmt.Errorf("%w: priority must be 1, 2 or 3", errs.ErrValidation)
	}
	return nil
}

// nextOrder returns max(order in column)+1, or 1 for an empty column.
func (s *TaskServiceImpl) nextOrder(ctx context.Context, columnID uuid.UUID) (int, error) {
	top, err := s.tasks.MaxOrder(ctx, columnID)
	if err != nil {
		return 0, fmt.Errorf("max order: %w", err)
	}
	return top + 1, nil
}

// Create validates and stores a task.
func (s *TaskServiceImpl) Create(ctx context.Context, in model.CreateTask) (*model.Task, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := checkPriority(in.Priority); err != nil {
		return nil, err
	}
	order := in.Order
	if order == nil {
		n, err := s.nextOrder(ctx, in.ColumnID)
		if err != nil {
			return nil, fmt.Errorf("create task: %w", err)
		}
		order = &n
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	t := &model.Task{
		ID:          id,
		Title:       title,
		Description: in.Description,
		ColumnID:    in.ColumnID,
		Order:       order,
		Priority:    in.Priority,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.publish(ctx, model.EventTaskCreated, t.ColumnID, t.ID)
	return t, nil
}

// Update applies a partial update.
func (s *TaskServiceImpl) Update(ctx context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error) {
	if upd.Title != nil {
		title, err := cleanTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if err := checkPriority(upd.Priority); err != nil {
		return nil, err
	}
	t, err := s.tasks.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	s.publish(ctx, model.EventTaskUpdated, t.ColumnID, t.ID)
	return t, nil
}

// Move sets the task's column and order in a single write.
func (s *TaskServiceImpl) Move(ctx context.Context, id, columnID uuid.UUID, order *int) (*model.Task, error) {
	if columnID == uuid.Nil {
		return nil, fmt.Errorf("%w: column is required", errs.ErrValidation)
	}
	pos := 0
	if order != nil {
		pos = *order
	} else {
		n, err := s.nextOrder(ctx, columnID)
		if err != nil {
			return nil, fmt.Errorf("move task: %w", err)
		}
		pos = n
	}
	t, err := s.tasks.Move(ctx, id, columnID, pos)
	if err != nil {
		return nil, fmt.Errorf("move task: %w", err)
	}
	s.publish(ctx, model.EventTaskMoved, t.ColumnID, t.ID)
	return t, nil
}

// Delete removes a task.
func (s *TaskServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	var columnID uuid.UUID
	if s.notify != nil {
		if t, err := s.tasks.GetByID(ctx, id); err == nil {
			columnID = t.ColumnID
		}
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if columnID != uuid.Nil {
		s.publish(ctx, model.EventTaskDeleted, columnID, id)
	}
	return nil
}

// OwnerOf returns the owner of the task's board.
func (s *TaskServiceImpl) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return s.tasks.OwnerOf(ctx, id)
}

func (s *TaskServiceImpl) publish(ctx context.Context, kind model.EventKind, columnID, entity uuid.UUID) {
	if s.notify == nil {
		return
	}
	c, err := s.columns.GetByID(ctx, columnID)
	if err != nil {
		return
	}
	b, err := s.boards.GetByID(ctx, c.BoardID)
	if err != nil {
		return
	}
	emit(s.notify, kind, b.OwnerID, b.ID, entity)
}
