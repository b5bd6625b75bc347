// Package memory is an in-process implementation of the repository interfaces,
// used for local runs without PostgreSQL and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// Store keeps users, accounts, boards, columns and tasks in memory.
// It mirrors the PostgreSQL schema: deletes cascade and foreign keys are checked.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]model.User
	accounts map[uuid.UUID]model.Account
	boards   map[uuid.UUID]model.Board
	columns  map[uuid.UUID]model.Column
	tasks    map[uuid.UUID]model.Task
	now      func() time.Time
	last     time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    map[uuid.UUID]model.User{},
		accounts: map[uuid.UUID]model.Account{},
		boards:   map[uuid.UUID]model.Board{},
		columns:  map[uuid.UUID]model.Column{},
		tasks:    map[uuid.UUID]model.Task{},
		now:      time.Now,
	}
}

// stamp returns a creation time strictly after any previous one, so
// created_at ordering stays total.
func (m *Store) stamp() time.Time {
	t := m.now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

type (
	boardRepo   struct{ s *Store }
	columnRepo  struct{ s *Store }
	taskRepo    struct{ s *Store }
	userRepo    struct{ s *Store }
	accountRepo struct{ s *Store }
)

var (
	_ repository.BoardRepository   = boardRepo{}
	_ repository.ColumnRepository  = columnRepo{}
	_ repository.TaskRepository    = taskRepo{}
	_ repository.UserRepository    = userRepo{}
	_ repository.AccountRepository = accountRepo{}
)

// Boards returns the board repository view.
func (m *Store) Boards() repository.BoardRepository { return boardRepo{m} }

// Columns returns the column repository view.
func (m *Store) Columns() repository.ColumnRepository { return columnRepo{m} }

// Tasks returns the task repository view.
func (m *Store) Tasks() repository.TaskRepository { return taskRepo{m} }

// Users returns the user repository view.
func (m *Store) Users() repository.UserRepository { return userRepo{m} }

// Accounts returns the account repository view.
func (m *Store) Accounts() repository.AccountRepository { return accountRepo{m} }

func (f boardRepo) Create(_ context.Context, b *model.Board) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[b.OwnerID]; !ok {
		return errs.ErrNotFound
	}
	b.CreatedAt = f.s.stamp()
	f.s.boards[b.ID] = *b
	return nil
}

func (f boardRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Board, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.boards[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &b, nil
}

func (f boardRepo) ListByOwner(_ context.Context, owner uuid.UUID) ([]model.Board, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []model.Board{}
	for _, b := range f.s.boards {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f boardRepo) Update(_ context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.boards[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	f.s.boards[id] = b
	return &b, nil
}

func (f boardRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.boards[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.s.boards, id)
	for cid, c := range f.s.columns {
		if c.BoardID == id {
			delete(f.s.columns, cid)
			for tid, t := range f.s.tasks {
				if t.ColumnID == cid {
					delete(f.s.tasks, tid)
				}
			}
		}
	}
	return nil
}

func (f columnRepo) Create(_ context.Context, c *model.Column) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.boards[c.BoardID]; !ok {
		return errs.ErrNotFound
	}
	c.CreatedAt = f.s.stamp()
	f.s.columns[c.ID] = *c
	return nil
}

func (f columnRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Column, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.columns[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

func (f columnRepo) ListByBoard(_ context.Context, boardID uuid.UUID) ([]model.Column, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []model.Column{}
	for _, c := range f.s.columns {
		if c.BoardID == boardID {
			out = append(out, c)
		}
	}
	model.SortColumns(out)
	return out, nil
}

func (f columnRepo) Update(_ context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.columns[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if upd.Title != nil {
		c.Title = *upd.Title
	}
	if upd.Order != nil {
		c.Order = *upd.Order
	}
	f.s.columns[id] = c
	return &c, nil
}

func (f columnRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.columns[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.s.columns, id)
	for tid, t := range f.s.tasks {
		if t.ColumnID == id {
			delete(f.s.tasks, tid)
		}
	}
	return nil
}

func (f columnRepo) OwnerOf(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.columns[id]
	if !ok {
		return uuid.Nil, errs.ErrNotFound
	}
	return f.s.boards[c.BoardID].OwnerID, nil
}

func (f taskRepo) Create(_ context.Context, t *model.Task) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.columns[t.ColumnID]; !ok {
		return errs.ErrNotFound
	}
	t.CreatedAt = f.s.stamp()
	f.s.tasks[t.ID] = *t
	return nil
}

func (f taskRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tasks[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}

func (f taskRepo) ListByBoard(_ context.Context, boardID uuid.UUID) ([]model.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []model.Task{}
	for _, t := range f.s.tasks {
		if f.s.columns[t.ColumnID].BoardID == boardID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f taskRepo) Update(_ context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tasks[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		d := *upd.Description
		t.Description = &d
	}
	if upd.ColumnID != nil {
		if _, ok := f.s.columns[*upd.ColumnID]; !ok {
			return nil, errs.ErrNotFound
		}
		t.ColumnID = *upd.ColumnID
	}
	if upd.Order != nil {
		o := *upd.Order
		t.Order = &o
	}
	if upd.Priority != nil {
		p := *upd.Priority
		t.Priority = &p
	}
	f.s.tasks[id] = t
	return &t, nil
}

func (f taskRepo) Move(_ context.Context, id, columnID uuid.UUID, order int) (*model.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tasks[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if _, ok := f.s.columns[columnID]; !ok {
		return nil, errs.ErrNotFound
	}
	t.ColumnID = columnID
	t.Order = &order
	f.s.tasks[id] = t
	return &t, nil
}

func (f taskRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.tasks[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.s.tasks, id)
	return nil
}

func (f taskRepo) MaxOrder(_ context.Context, columnID uuid.UUID) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	top := 0
	for _, t := range f.s.tasks {
		if t.ColumnID == columnID && t.Order != nil && *t.Order > top {
			top = *t.Order
		}
	}
	return top, nil
}

func (f taskRepo) OwnerOf(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tasks[id]
	if !ok {
		return uuid.Nil, errs.ErrNotFound
	}
	return f.s.boards[f.s.columns[t.ColumnID].BoardID].OwnerID, nil
}

func (f userRepo) Create(_ context.Context, u *model.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, x := range f.s.users {
		if x.Email == u.Email {
			return errs.ErrAlreadyExists
		}
	}
	u.CreatedAt = f.s.stamp()
	f.s.users[u.ID] = *u
	return nil
}

func (f userRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

func (f userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f accountRepo) Create(_ context.Context, a *model.Account) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, x := range f.s.accounts {
		if x.Email == a.Email {
			return errs.ErrAlreadyExists
		}
	}
	a.CreatedAt = f.s.stamp()
	f.s.accounts[a.ID] = *a
	return nil
}

func (f accountRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (f accountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, errs.ErrNotFound
}
