package appstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRemote struct {
	mu       sync.Mutex
	users    map[string]*model.User
	boards   map[uuid.UUID][]model.Board
	lookErr  error
	listErr  error
	created  []model.CreateUser
	failMake bool
	// gate, when set, blocks ListBoards for the given email's user until closed.
	gate map[uuid.UUID]chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{users: map[string]*model.User{}, boards: map[uuid.UUID][]model.Board{}, gate: map[uuid.UUID]chan struct{}{}}
}

func (f *fakeRemote) LookupUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookErr != nil {
		return nil, f.lookErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeRemote) CreateUser(_ context.Context, in model.CreateUser) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	if f.failMake {
		return nil
	}
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Name: in.Name, Email: in.Email}
	f.users[in.Email] = u
	c := *u
	return &c
}

func (f *fakeRemote) ListBoards(ctx context.Context, owner uuid.UUID) ([]model.Board, error) {
	f.mu.Lock()
	g := f.gate[owner]
	f.mu.Unlock()
	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Board{}, f.boards[owner]...), nil
}

func (f *fakeRemote) seed(email, name string, titles ...string) *model.User {
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Name: name, Email: email}
	f.users[email] = u
	for _, t := range titles {
		f.boards[u.ID] = append(f.boards[u.ID], model.Board{ID: uuid.Must(uuid.NewV4()), Title: t, OwnerID: u.ID})
	}
	return u
}

func titles(bs []model.Board) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Title)
	}
	return out
}

func TestInitializeFromAuth_ExistingUser(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	u := r.seed("ana@example.com", "Ana", "Second", "First")
	s := New(r, zaptest.NewLogger(t))
	defer s.Close()

	s.InitializeFromAuth(context.Background(), &model.Identity{Email: "ana@example.com"})
	st := s.Snapshot()
	require.False(t, st.Loading)
	require.Empty(t, st.Error)
	require.Equal(t, u.ID, st.User.ID)
	require.Equal(t, []string{"Second", "First"}, titles(st.Boards))
	require.Empty(t, r.created)
}

func TestInitializeFromAuth_CreatesProfile(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	s := New(r, nil)
	defer s.Close()

	s.InitializeFromAuth(context.Background(), &model.Identity{Email: "joao.silva@example.com"})
	st := s.Snapshot()
	require.NotNil(t, st.User)
	require.Equal(t, "joao.silva", st.User.Name)
	require.NotNil(t, st.Boards)
	require.Empty(t, st.Boards)
	require.Len(t, r.created, 1)

	require.Equal(t, "Usuário Demo", DisplayName(model.Identity{Name: "Usuário Demo", Email: "demo@dittokanban.com"}))
}

func TestSnapshot_EmptyBoardListStaysEmpty(t *testing.T) {
	t.Parallel()

	s := New(newFakeRemote(), nil)
	defer s.Close()
	s.InitializeFromAuth(context.Background(), &model.Identity{Email: "vazio@example.com"})

	first := s.Snapshot()
	require.NotNil(t, first.Boards)
	first.Boards = append(first.Boards, model.Board{Title: "local"})

	second := s.Snapshot()
	require.NotNil(t, second.Boards)
	require.Empty(t, second.Boards)
}

func TestInitializeFromAuth_FailureKeepsLastKnownGood(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	r.seed("ana@example.com", "Ana", "Keep")
	s := New(r, zaptest.NewLogger(t))
	defer s.Close()
	ctx := context.Background()

	s.InitializeFromAuth(ctx, &model.Identity{Email: "ana@example.com"})
	require.Len(t, s.Snapshot().Boards, 1)

	r.lookErr = errors.New("network down")
	s.InitializeFromAuth(ctx, &model.Identity{Email: "ana@example.com"})
	st := s.Snapshot()
	require.Equal(t, MsgInitFailed, st.Error)
	require.False(t, st.Loading)
	require.NotNil(t, st.User)
	require.Equal(t, []string{"Keep"}, titles(st.Boards))

	r.lookErr = nil
	r.failMake = true
	s.InitializeFromAuth(ctx, &model.Identity{Email: "new@example.com"})
	require.Equal(t, MsgInitFailed, s.Snapshot().Error)
	require.Equal(t, "ana@example.com", s.Snapshot().User.Email)

	s.ClearError()
	require.Empty(t, s.Snapshot().Error)
}

func TestInitializeFromAuth_NilClears(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	r.seed("ana@example.com", "Ana", "B")
	s := New(r, nil)
	defer s.Close()
	ctx := context.Background()

	s.InitializeFromAuth(ctx, &model.Identity{Email: "ana@example.com"})
	s.SetCurrentBoard(&s.Snapshot().Boards[0])
	s.InitializeFromAuth(ctx, nil)
	st := s.Snapshot()
	require.Nil(t, st.User)
	require.Nil(t, st.Boards)
	require.Nil(t, st.CurrentBoard)
}

func TestRefreshBoards(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	u := r.seed("ana@example.com", "Ana", "One")
	s := New(r, nil)
	defer s.Close()
	ctx := context.Background()

	// no user: nothing happens
	s.RefreshBoards(ctx)
	require.Nil(t, s.Snapshot().Boards)

	s.InitializeFromAuth(ctx, &model.Identity{Email: "ana@example.com"})
	r.boards[u.ID] = append([]model.Board{{ID: uuid.Must(uuid.NewV4()), Title: "Two"}}, r.boards[u.ID]...)
	s.RefreshBoards(ctx)
	require.Equal(t, []string{"Two", "One"}, titles(s.Snapshot().Boards))

	r.listErr = errors.New("boom")
	s.RefreshBoards(ctx)
	st := s.Snapshot()
	require.Equal(t, MsgBoardsFailed, st.Error)
	require.Equal(t, []string{"Two", "One"}, titles(st.Boards))
}

func TestBoardListMutations(t *testing.T) {
	t.Parallel()

	s := New(newFakeRemote(), nil)
	defer s.Close()

	a := model.Board{ID: uuid.Must(uuid.NewV4()), Title: "A"}
	b := model.Board{ID: uuid.Must(uuid.NewV4()), Title: "B"}
	s.AddBoard(a)
	s.AddBoard(b)
	require.Equal(t, []string{"B", "A"}, titles(s.Snapshot().Boards))

	s.SetCurrentBoard(&a)
	a.Title = "A2"
	s.UpdateBoard(a)
	st := s.Snapshot()
	require.Equal(t, []string{"B", "A2"}, titles(st.Boards))
	require.Equal(t, "A2", st.CurrentBoard.Title)

	b.Title = "B2"
	s.UpdateBoard(b)
	require.Equal(t, "A2", s.Snapshot().CurrentBoard.Title)

	s.RemoveBoard(b.ID)
	require.NotNil(t, s.Snapshot().CurrentBoard)
	s.RemoveBoard(a.ID)
	st = s.Snapshot()
	require.Empty(t, st.Boards)
	require.Nil(t, st.CurrentBoard)
}

func TestOnChange(t *testing.T) {
	t.Parallel()

	s := New(newFakeRemote(), nil)
	defer s.Close()

	var got []int
	unsub := s.OnChange(func(st State) { got = append(got, len(st.Boards)) })
	s.AddBoard(model.Board{ID: uuid.Must(uuid.NewV4())})
	s.AddBoard(model.Board{ID: uuid.Must(uuid.NewV4())})
	unsub()
	s.AddBoard(model.Board{ID: uuid.Must(uuid.NewV4())})
	require.Equal(t, []int{1, 2}, got)
}

func TestSupersededInitializationIsDropped(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	slow := r.seed("slow@example.com", "Slow", "SlowBoard")
	r.seed("fast@example.com", "Fast", "FastBoard")
	gate := make(chan struct{})
	r.gate[slow.ID] = gate

	s := New(r, nil)
	defer s.Close()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		s.InitializeFromAuth(ctx, &model.Identity{Email: "slow@example.com"})
		close(done)
	}()
	require.Eventually(t, func() bool { return s.Snapshot().Loading }, time.Second, time.Millisecond)

	s.InitializeFromAuth(ctx, &model.Identity{Email: "fast@example.com"})
	close(gate)
	<-done

	st := s.Snapshot()
	require.Equal(t, "fast@example.com", st.User.Email)
	require.Equal(t, []string{"FastBoard"}, titles(st.Boards))
}

func TestCloseCancelsInFlight(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	u := r.seed("ana@example.com", "Ana", "B")
	r.gate[u.ID] = make(chan struct{})
	s := New(r, nil)

	done := make(chan struct{})
	go func() {
		s.InitializeFromAuth(context.Background(), &model.Identity{Email: "ana@example.com"})
		close(done)
	}()
	require.Eventually(t, func() bool { return s.Snapshot().Loading }, time.Second, time.Millisecond)
	s.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("initialisation did not stop after Close")
	}
	require.Nil(t, s.Snapshot().User)
	s.AddBoard(model.Board{})
	require.Empty(t, s.Snapshot().Boards)
}

type fakeSource struct {
	mu   sync.Mutex
	user *model.Identity
	fns  []func(*model.Identity)
}

func (f *fakeSource) User() *model.Identity { return f.user }
func (f *fakeSource) Subscribe(fn func(*model.Identity)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
	idx := len(f.fns) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.fns[idx] = nil
	}
}
func (f *fakeSource) set(u *model.Identity) {
	f.user = u
	for _, fn := range f.fns {
		if fn != nil {
			fn(u)
		}
	}
}

func TestAttach_FollowsIdentity(t *testing.T) {
	t.Parallel()

	r := newFakeRemote()
	r.seed("ana@example.com", "Ana", "AnaBoard")
	src := &fakeSource{}
	s := New(r, nil)
	defer s.Close()

	detach := s.Attach(context.Background(), src)
	require.Nil(t, s.Snapshot().User)

	src.set(&model.Identity{Email: "ana@example.com"})
	require.Equal(t, []string{"AnaBoard"}, titles(s.Snapshot().Boards))

	src.set(nil)
	require.Nil(t, s.Snapshot().User)

	detach()
	src.set(&model.Identity{Email: "ana@example.com"})
	require.Nil(t, s.Snapshot().User)
}
