// Package appstate holds the signed-in user's profile, their boards and the
// board currently open, shared by every screen of the client.
package appstate

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Error messages shown to the user.
const (
	MsgInitFailed   = "Erro ao carregar dados do usuário"
	MsgBoardsFailed = "Erro ao carregar boards"
)

// Remote is the part of the remote data access the store needs.
// *kanban.Client satisfies it.
type Remote interface {
	LookupUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, in model.CreateUser) *model.User
	ListBoards(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error)
}

// State is a snapshot of the store.
type State struct {
	User         *model.User
	Boards       []model.Board
	CurrentBoard *model.Board
	Loading      bool
	Error        string
}

// Store is the client-side application state. Methods are safe for concurrent
// use; change callbacks run outside the lock in registration order.
type Store struct {
	remote Remote
	log    *zap.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	closed bool
	cancel context.CancelFunc
	ctx    context.Context

	subsMu sync.Mutex
	next   int
	subs   map[int]func(State)
	order  []int
}

// New creates a store. Close releases it.
func New(remote Remote, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		remote: remote,
		log:    log.Named("appstate"),
		ctx:    ctx,
		cancel: cancel,
		subs:   map[int]func(State){},
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() State {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	if st.Boards != nil {
		st.Boards = slices.Clone(st.Boards)
	}
	if st.CurrentBoard != nil {
		b := *st.CurrentBoard
		st.CurrentBoard = &b
	}
	return st
}

// OnChange registers fn for every state change and returns its remover.
func (s *Store) OnChange(fn func(State)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.order = append(s.order, id)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			delete(s.subs, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) notify() {
	st := s.Snapshot()
	s.subsMu.Lock()
	fns := make([]func(State), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.subs[id])
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// mutate applies fn under the lock and notifies subscribers. It is a no-op
// once the store is closed.
func (s *Store) mutate(fn func(st *State)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
}

// begin starts a new initialisation and returns its generation and context.
func (s *Store) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil, nil, false
	}
	s.gen++
	merged, cancel := mergeCancel(ctx, s.ctx)
	return s.gen, merged, cancel, true
}

// commit applies fn only when gen is still the latest initialisation.
func (s *Store) commit(gen uint64, fn func(st *State)) bool {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	s.mu.Unlock()
	s.notify()
	return true
}

// DisplayName returns the profile name for an identity: its own name, else
// the local part of its email.
func DisplayName(id model.Identity) string {
	if n := strings.TrimSpace(id.Name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}

// InitializeFromAuth loads the profile and boards for identity, creating the
// profile on first sign-in. A nil identity clears the user's data. Failures set
// Error and keep the previous state. Results of a call superseded by a later
// one, or finished after Close, are dropped.
func (s *Store) InitializeFromAuth(ctx context.Context, identity *model.Identity) {
	gen, ctx, cancel, ok := s.begin(ctx)
	if !ok {
		return
	}
	defer cancel()

	if identity == nil {
		s.commit(gen, func(st *State) {
			st.User = nil
			st.Boards = nil
			st.CurrentBoard = nil
			st.Loading = false
		})
		return
	}

	s.commit(gen, func(st *State) {
		st.Loading = true
		st.Error = ""
	})

	user, boards, err := s.load(ctx, *identity)
	if err != nil {
		s.log.Warn("initialize from auth", zap.String("email", identity.Email), zap.Error(err))
		s.commit(gen, func(st *State) {
			st.Loading = false
			st.Error = MsgInitFailed
		})
		return
	}
	s.commit(gen, func(st *State) {
		if st.User == nil || st.User.ID != user.ID {
			st.CurrentBoard = nil
		}
		st.User = user
		st.Boards = boards
		st.Loading = false
	})
}

var errCreateUser = errors.New("create user failed")

func (s *Store) load(ctx context.Context, identity model.Identity) (*model.User, []model.Board, error) {
	user, err := s.remote.LookupUserByEmail(ctx, identity.Email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		user = s.remote.CreateUser(ctx, model.CreateUser{Name: DisplayName(identity), Email: identity.Email})
		if user == nil {
			return nil, nil, errCreateUser
		}
	case err != nil:
		return nil, nil, err
	}
	boards, err := s.remote.ListBoards(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, boards, nil
}

// RefreshBoards reloads the user's boards. Without a user it does nothing.
func (s *Store) RefreshBoards(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.state.User == nil {
		s.mu.Unlock()
		return
	}
	owner := s.state.User.ID
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := mergeCancel(ctx, s.ctx)
	defer cancel()
	boards, err := s.remote.ListBoards(ctx, owner)
	if err != nil {
		s.log.Warn("refresh boards", zap.Error(err))
		s.commit(gen, func(st *State) { st.Error = MsgBoardsFailed })
		return
	}
	s.commit(gen, func(st *State) { st.Boards = boards })
}

// SetCurrentBoard replaces the open board; nil closes it.
func (s *Store) SetCurrentBoard(b *model.Board) {
	s.mutate(func(st *State) { st.CurrentBoard = cloneBoard(b) })
}

// AddBoard puts a new board at the front of the list.
func (s *Store) AddBoard(b model.Board) {
	s.mutate(func(st *State) {
		st.Boards = append([]model.Board{b}, st.Boards...)
	})
}

// UpdateBoard replaces the board with the same id in the list and, when it is
// open, the current board too.
func (s *Store) UpdateBoard(b model.Board) {
	s.mutate(func(st *State) {
		for i := range st.Boards {
			if st.Boards[i].ID == b.ID {
				st.Boards[i] = b
			}
		}
		if st.CurrentBoard != nil && st.CurrentBoard.ID == b.ID {
			st.CurrentBoard = cloneBoard(&b)
		}
	})
}

// RemoveBoard drops the board from the list and closes it when open.
func (s *Store) RemoveBoard(id uuid.UUID) {
	s.mutate(func(st *State) {
		out := st.Boards[:0:0]
		for _, b := range st.Boards {
			if b.ID != id {
				out = append(out, b)
			}
		}
		st.Boards = out
		if st.CurrentBoard != nil && st.CurrentBoard.ID == id {
			st.CurrentBoard = nil
		}
	})
}

// SetError records a failure message for the interface.
func (s *Store) SetError(msg string) {
	s.mutate(func(st *State) { st.Error = msg })
}

// ClearError drops the current error message.
func (s *Store) ClearError() {
	s.mutate(func(st *State) { st.Error = "" })
}

// IdentitySource publishes identity changes; *session.Controller satisfies it.
type IdentitySource interface {
	User() *model.Identity
	Subscribe(fn func(*model.Identity)) func()
}

// Attach initialises from the source's current identity and re-initialises on
// every change until the returned function is called.
func (s *Store) Attach(ctx context.Context, src IdentitySource) func() {
	unsub := src.Subscribe(func(id *model.Identity) { s.InitializeFromAuth(ctx, id) })
	s.InitializeFromAuth(ctx, src.User())
	return unsub
}

// Close cancels in-flight loads and freezes the state.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

func cloneBoard(b *model.Board) *model.Board {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// mergeCancel returns a context that is done when either parent is.
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
