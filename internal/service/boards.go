package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/dittokanban/internal/cache"
	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Notifier receives board change events.
type Notifier interface {
	Publish(ev model.BoardEvent)
}

// BoardListCache stores per-owner board lists. Get reports the owner's list
// version, and Set refuses with cache.ErrStale once Invalidate has moved it.
type BoardListCache interface {
	Get(ctx context.Context, ownerID uuid.UUID) ([]model.Board, int64, error)
	Set(ctx context.Context, ownerID uuid.UUID, ver int64, boards []model.Board) error
	Invalidate(ctx context.Context, ownerID uuid.UUID) error
}

// BoardService defines board operations.
type BoardService interface {
	// Create stores a new board for the owner.
	Create(ctx context.Context, in model.CreateBoard) (*model.Board, error)
	// Get loads a board with its sorted, colored columns and their sorted tasks.
	Get(ctx context.Context, id uuid.UUID) (*model.Board, error)
	// ListByOwner returns the owner's boards, newest first, without columns.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error)
	// Update renames a board.
	Update(ctx context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error)
	// Delete removes a board with all its columns and tasks.
	Delete(ctx context.Context, id uuid.UUID) error
	// OwnerOf returns the board owner.
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// BoardOption customizes BoardServiceImpl.
type BoardOption func(*BoardServiceImpl)

// WithBoardCache enables the board list cache.
func WithBoardCache(c BoardListCache) BoardOption {
	return func(s *BoardServiceImpl) { s.cache = c }
}

// WithBoardNotifier publishes board changes.
func WithBoardNotifier(n Notifier) BoardOption {
	return func(s *BoardServiceImpl) { s.notify = n }
}

// WithBoardLogger sets the logger used for cache failures.
func WithBoardLogger(l *zap.Logger) BoardOption {
	return func(s *BoardServiceImpl) { s.log = l }
}

type BoardServiceImpl struct {
	boards  repository.BoardRepository
	columns repository.ColumnRepository
	tasks   repository.TaskRepository
	cache   BoardListCache
	notify  Notifier
	log     *zap.Logger
}

// NewBoardService constructs BoardService.
func NewBoardService(boards repository.BoardRepository, columns repository.ColumnRepository, tasks repository.TaskRepository, opts ...BoardOption) *BoardServiceImpl {
	s := &BoardServiceImpl{boards: boards, columns: columns, tasks: tasks, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// cleanTitle trims a title and rejects empty ones.
func cleanTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	return t, nil
}

// Create validates and stores a new board.
func (s *BoardServiceImpl) Create(ctx context.Context, in model.CreateBoard) (*model.Board, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	b := &model.Board{ID: id, Title: title, OwnerID: in.OwnerID}
	if err := s.boards.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	s.invalidate(ctx, b.OwnerID)
	s.publish(model.EventBoardCreated, b.OwnerID, b.ID, b.ID)
	return b, nil
}

// Get assembles the full board.
func (s *BoardServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	b, err := s.boards.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	cols, err := s.columns.ListByBoard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	tasks, err := s.tasks.ListByBoard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	model.Decorate(b, cols, tasks)
	return b, nil
}

// ListByOwner returns boards newest first, served from cache when possible.
func (s *BoardServiceImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	var (
		ver  int64
		fill bool
	)
	if s.cache != nil {
		list, v, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return list, nil
		}
		ver, fill = v, errors.Is(err, cache.ErrMiss)
		if !fill {
			s.log.Warn("board cache read", zap.String("owner", ownerID.String()), zap.Error(err))
		}
	}
	list, err := s.boards.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	if fill {
		err := s.cache.Set(ctx, ownerID, ver, list)
		switch {
		case errors.Is(err, cache.ErrStale):
			s.log.Debug("board cache write skipped", zap.String("owner", ownerID.String()))
		case err != nil:
			s.log.Warn("board cache write", zap.String("owner", ownerID.String()), zap.Error(err))
		}
	}
	return list, nil
}

// Update applies a partial update.
func (s *BoardServiceImpl) Update(ctx context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error) {
	if upd.Title != nil {
		title, err := cleanTitle(*upd.Title)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	b, err := s.boards.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update board: %w", err)
	}
	s.invalidate(ctx, b.OwnerID)
	s.publish(model.EventBoardUpdated, b.OwnerID, b.ID, b.ID)
	return b, nil
}

// Delete removes the board.
func (s *BoardServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	b, err := s.boards.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if err := s.boards.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	s.invalidate(ctx, b.OwnerID)
	s.publish(model.EventBoardDeleted, b.OwnerID, b.ID, b.ID)
	return nil
}

// OwnerOf returns the board owner.
func (s *BoardServiceImpl) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	b, err := s.boards.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return b.OwnerID, nil
}

func (s *BoardServiceImpl) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn("board cache invalidate", zap.String("owner", ownerID.String()), zap.Error(err))
	}
}

func (s *BoardServiceImpl) publish(kind model.EventKind, owner, board, entity uuid.UUID) {
	emit(s.notify, kind, owner, board, entity)
}

func emit(n Notifier, kind model.EventKind, owner, board, entity uuid.UUID) {
	if n == nil {
		return
	}
	n.Publish(model.BoardEvent{Kind: kind, OwnerID: owner, BoardID: board, EntityID: entity, At: time.Now().UTC()})
}
