package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/and161185/dittokanban/internal/crypto"
	"github.com/and161185/dittokanban/internal/forms"
	"github.com/and161185/dittokanban/internal/limiter"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository/memory"
	"github.com/and161185/dittokanban/internal/server/httpapi"
	"github.com/and161185/dittokanban/internal/service"
	"github.com/and161185/dittokanban/internal/session"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := memory.New()
	svc := httpapi.Services{
		Auth:    service.NewAuthService(st.Accounts(), []byte("k"), time.Hour, limiter.NewMemory(time.Minute, 5, time.Minute), service.WithPasswordParams(crypto.Fast)),
		Users:   service.NewUserService(st.Users()),
		Boards:  service.NewBoardService(st.Boards(), st.Columns(), st.Tasks()),
		Columns: service.NewColumnService(st.Boards(), st.Columns(), nil),
		Tasks:   service.NewTaskService(st.Boards(), st.Columns(), st.Tasks(), nil),
	}
	srv := httptest.NewServer(httpapi.New(svc, httpapi.Options{}, zaptest.NewLogger(t)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

type cli struct {
	t      *testing.T
	server string
	dir    string
}

func newCLI(t *testing.T) *cli {
	return &cli{t: t, server: newServer(t).URL, dir: t.TempDir()}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--server", c.server, "--config-dir", c.dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) must(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("kanban %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func TestSessionCommands(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	_, err := c.run("whoami")
	require.ErrorIs(t, err, errNotSignedIn)

	_, err = c.run("signup", "-e", "ana@example.com", "-p", "secret1", "--confirm", "other1", "-n", "Ana")
	require.EqualError(t, err, forms.MsgPasswordMismatch)

	out := c.must("signup", "-e", "ana@example.com", "-p", "secret1", "--confirm", "secret1", "-n", "Ana")
	u := decode[model.User](t, out)
	require.Equal(t, "Ana", u.Name)
	require.Equal(t, "ana@example.com", u.Email)

	if _, err := os.Stat(filepath.Join(c.dir, "token.json")); err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	require.Equal(t, u.ID, decode[model.User](t, c.must("whoami")).ID)

	require.Contains(t, c.must("signout"), "signed out")
	_, err = c.run("whoami")
	require.ErrorIs(t, err, errNotSignedIn)

	_, err = c.run("signin", "-e", "ana@example.com", "-p", "wrong11")
	require.EqualError(t, err, session.MsgInvalidCredentials)

	_, err = c.run("signin", "-e", "ana", "-p", "secret1")
	require.EqualError(t, err, forms.MsgInvalidEmail)

	require.Equal(t, u.ID, decode[model.User](t, c.must("signin", "-e", "ana@example.com", "-p", "secret1")).ID)
}

func TestBoardCommands(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.must("signup", "-e", "bob@example.com", "-p", "secret1", "--confirm", "secret1", "-n", "Bob")

	_, err := c.run("boards", "create", "   ")
	require.EqualError(t, err, forms.MsgTitleRequired)

	b := decode[model.Board](t, c.must("boards", "create", "Sprint"))
	require.Equal(t, "Sprint", b.Title)
	require.Contains(t, c.must("boards", "list"), b.ID.String())

	todo := decode[model.Column](t, c.must("column", "add", b.ID.String(), "Todo"))
	done := decode[model.Column](t, c.must("column", "add", b.ID.String(), "Done"))
	require.Equal(t, 1, todo.Order)
	require.Equal(t, 2, done.Order)

	_, err = c.run("task", "add", todo.ID.String(), "Ship", "-p", "urgent")
	require.EqualError(t, err, forms.MsgInvalidPriority)

	task := decode[model.Task](t, c.must("task", "add", todo.ID.String(), "Ship", "-p", "high", "-d", "release"))
	require.Equal(t, 1, model.OrderOf(task))
	require.Equal(t, model.PriorityHigh, *task.Priority)

	out := c.must("task", "move", task.ID.String(), done.ID.String())
	require.Contains(t, out, "Todo (0)")
	require.Contains(t, out, "Done (1)")

	edited := decode[model.Task](t, c.must("task", "edit", task.ID.String(), "-t", "Ship it", "-d", ""))
	require.Equal(t, "Ship it", edited.Title)
	require.Equal(t, model.PriorityHigh, *edited.Priority, "unset flags keep their value")
	require.Equal(t, done.ID, edited.ColumnID)

	require.Contains(t, c.must("column", "rename", done.ID.String(), "Shipped"), "Shipped")
	require.Contains(t, c.must("boards", "rename", b.ID.String(), "Sprint 2"), "Sprint 2")
	show := c.must("boards", "show", b.ID.String())
	require.Contains(t, show, "Sprint 2")
	require.Contains(t, show, "Ship it")
	require.Contains(t, show, "[Alta]")

	c.must("task", "delete", task.ID.String())
	c.must("column", "delete", todo.ID.String())
	c.must("boards", "delete", b.ID.String())
	require.NotContains(t, c.must("boards", "list"), b.ID.String())

	_, err = c.run("boards", "show", "not-a-uuid")
	require.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	t.Parallel()
	cases := map[string]model.Priority{
		"":       0,
		"1":      model.PriorityLow,
		"Medium": model.PriorityMedium,
		"média":  model.PriorityMedium,
		"alta":   model.PriorityHigh,
		"7":      7,
	}
	for in, want := range cases {
		got, err := parsePriority(in)
		if err != nil || got != want {
			t.Fatalf("parsePriority(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := parsePriority("soon"); err == nil {
		t.Fatalf("want error for unknown priority")
	}
}

func TestTokenPath(t *testing.T) {
	t.Parallel()
	g := &globals{configDir: "/tmp/x"}
	if got := g.tokenPath(); got != filepath.Join("/tmp/x", "token.json") {
		t.Fatalf("tokenPath = %q", got)
	}
}
