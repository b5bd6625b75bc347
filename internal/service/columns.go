package service

import (
	"context"
	"fmt"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// ColumnService defines column operations.
type ColumnService interface {
	// Create appends a column; a non-positive order means "after the last column".
	Create(ctx context.Context, in model.CreateColumn) (*model.Column, error)
	Update(ctx context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error)
	// Delete removes a column and its tasks.
	Delete(ctx context.Context, id uuid.UUID) error
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type ColumnServiceImpl struct {
	boards  repository.BoardRepository
	columns repository.ColumnRepository
	notify  Notifier
}

// NewColumnService constructs ColumnService. notify may be nil.
func NewColumnService(boards repository.BoardRepository, columns repository.ColumnRepository, notify Notifier) *ColumnServiceImpl {
	return &ColumnServiceImpl{boards: boards, columns: columns, notify: notify}
}

// Create validates and stores a column.
func (s *ColumnServiceImpl) Create(ctx context.Context, in model.CreateColumn) (*model.Column, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	b, err := s.boards.GetByID(ctx, in.BoardID)
	if err != nil {
		return nil, fmt.Errorf("create column: %w", err)
	}
	order := in.Order
	if order <= 0 {
		existing, err := s.columns.ListByBoard(ctx, in.BoardID)
		if err != nil {
			return nil, fmt.Errorf("create column: %w", err)
		}
		order = len(existing) + 1
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Column{ID: id, Title: title, BoardID: in.BoardID, Order: order}
	if err := s.columns.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create column: %w", err)
	}
	emit(s.notify, model.EventColumnCreated, b.OwnerID, b.ID, c.ID)
	return c, nil
}

// Update applies a partial update.
func (s *ColumnServiceImpl) Update(ctx context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error) {
	if upd.Title != nil {
		title, err := cleanTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if upd.Order != nil && *upd.Order < 1 {
		return nil, fmt.Errorf("%w: order must be positive", errs.ErrValidation)
	}
	c, err := s.columns.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update column: %w", err)
	}
	s.publish(ctx, model.EventColumnUpdated, c.BoardID, c.ID)
	return c, nil
}

// Delete removes the column.
func (s *ColumnServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.columns.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	if err := s.columns.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete column: %w", err)
	}
	s.publish(ctx, model.EventColumnDeleted, c.BoardID, c.ID)
	return nil
}

// OwnerOf returns the owner of the column's board.
func (s *ColumnServiceImpl) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return s.columns.OwnerOf(ctx, id)
}

func (s *ColumnServiceImpl) publish(ctx context.Context, kind model.EventKind, boardID, entity uuid.UUID) {
	if s.notify == nil {
		return
	}
	b, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		return
	}
	emit(s.notify, kind, b.OwnerID, b.ID, entity)
}
