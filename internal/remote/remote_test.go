package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/and161185/dittokanban/internal/appstate"
	"github.com/and161185/dittokanban/internal/crypto"
	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/kanban"
	"github.com/and161185/dittokanban/internal/limiter"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository/memory"
	"github.com/and161185/dittokanban/internal/server/events"
	"github.com/and161185/dittokanban/internal/server/httpapi"
	"github.com/and161185/dittokanban/internal/service"
	"github.com/and161185/dittokanban/internal/session"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newAPIServer(t *testing.T, hub *events.Hub) *httptest.Server {
	t.Helper()
	st := memory.New()
	var notify service.Notifier
	if hub != nil {
		notify = hub
	}
	svc := httpapi.Services{
		Auth:    service.NewAuthService(st.Accounts(), []byte("k"), time.Hour, limiter.NewMemory(time.Minute, 5, time.Minute), service.WithPasswordParams(crypto.Fast)),
		Users:   service.NewUserService(st.Users()),
		Boards:  service.NewBoardService(st.Boards(), st.Columns(), st.Tasks(), service.WithBoardNotifier(notify)),
		Columns: service.NewColumnService(st.Boards(), st.Columns(), notify),
		Tasks:   service.NewTaskService(st.Boards(), st.Columns(), st.Tasks(), notify),
	}
	srv := httptest.NewServer(httpapi.New(svc, httpapi.Options{Hub: hub}, zaptest.NewLogger(t)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenFile(t *testing.T) {
	t.Parallel()

	f := NewTokenFile(filepath.Join(t.TempDir(), "sub", "token.json"))
	s, err := f.Load()
	require.NoError(t, err)
	require.Nil(t, s)

	now := time.Now()
	f.now = func() time.Time { return now }
	require.NoError(t, f.Save(model.Session{Tokens: model.Tokens{AccessToken: "tok", ExpiresAt: now.Add(time.Minute)}}))
	s, err = f.Load()
	require.NoError(t, err)
	require.Equal(t, "tok", s.AccessToken)

	now = now.Add(2 * time.Minute)
	s, err = f.Load()
	require.NoError(t, err)
	require.Nil(t, s, "expired sessions are not restored")

	require.NoError(t, f.Clear())
	require.NoError(t, f.Clear())
}

func TestHTTPErrorSentinels(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, &HTTPError{Status: http.StatusNotFound}, errs.ErrNotFound)
	require.ErrorIs(t, &HTTPError{Status: http.StatusForbidden}, errs.ErrForbidden)
	require.ErrorIs(t, &HTTPError{Status: http.StatusBadRequest}, errs.ErrValidation)
	require.False(t, errors.Is(&HTTPError{Status: 500}, errs.ErrNotFound))
	require.Equal(t, "http 404: not found", (&HTTPError{Status: 404, Message: "not found"}).Error())

	_, err := NewBackend("ftp://x", nil, nil)
	require.Error(t, err)
}

func TestEndToEnd(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := events.NewHub(zaptest.NewLogger(t))
	go hub.Run(ctx)
	srv := newAPIServer(t, hub)

	tokens := NewTokenFile(filepath.Join(t.TempDir(), "token.json"))
	auth, err := NewAuthClient(srv.URL, srv.Client(), tokens)
	require.NoError(t, err)
	backend, err := NewBackend(srv.URL, srv.Client(), auth)
	require.NoError(t, err)
	client := kanban.New(backend, zaptest.NewLogger(t))

	ctrl := session.NewController(auth, zaptest.NewLogger(t))
	store := appstate.New(client, zaptest.NewLogger(t))
	t.Cleanup(store.Close)
	detach := store.Attach(ctx, ctrl)
	t.Cleanup(detach)

	ctrl.Mount(ctx)
	t.Cleanup(ctrl.Unmount)
	require.Nil(t, ctrl.User())

	require.False(t, ctrl.SignIn(ctx, "ana@example.com", "secret1"))
	require.Equal(t, session.MsgInvalidCredentials, ctrl.State().Error)

	require.True(t, ctrl.SignUp(ctx, "ana@example.com", "secret1", ""))
	st := store.Snapshot()
	require.NotNil(t, st.User, "profile created on first sign-in")
	require.Equal(t, "ana", st.User.Name)
	require.Empty(t, st.Boards)

	got := make(chan events.Message, 8)
	go func() { _ = Watch(ctx, srv.URL, auth, func(m events.Message) { got <- m }) }()
	require.Eventually(t, func() bool { return hub.Clients(ctx) == 1 }, 2*time.Second, 10*time.Millisecond)

	b := client.CreateBoard(ctx, model.CreateBoard{Title: "Sprint", OwnerID: st.User.ID})
	require.NotNil(t, b)
	store.AddBoard(*b)
	select {
	case m := <-got:
		require.Equal(t, string(model.EventBoardCreated), m.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no board event")
	}

	col := client.CreateColumn(ctx, model.CreateColumn{Title: "Todo", BoardID: b.ID, Order: model.NextColumnOrder(nil)})
	require.NotNil(t, col)
	task := client.CreateTask(ctx, model.CreateTask{Title: "Ship", ColumnID: col.ID})
	require.NotNil(t, task)
	require.Equal(t, 1, *task.Order)

	full := client.GetBoardByID(ctx, b.ID)
	require.NotNil(t, full)
	require.Equal(t, 1, full.Columns.Len())
	require.Equal(t, "Ship", full.Columns.Items()[0].Tasks.Items()[0].Title)

	require.Nil(t, client.GetBoardByID(ctx, uuid.Must(uuid.NewV4())))
	require.False(t, client.DeleteTask(ctx, uuid.Must(uuid.NewV4())))
	require.True(t, client.DeleteBoard(ctx, b.ID))

	// a restarted client restores the session from the token file
	auth2, err := NewAuthClient(srv.URL, srv.Client(), tokens)
	require.NoError(t, err)
	s, err := auth2.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, "ana@example.com", s.Identity.Email)

	require.True(t, ctrl.SignOut(ctx))
	require.Nil(t, ctrl.User())
	require.Nil(t, store.Snapshot().User)
	loaded, err := tokens.Load()
	require.NoError(t, err)
	require.Nil(t, loaded)
}
