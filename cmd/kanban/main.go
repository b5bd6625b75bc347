// Command kanban is the terminal client for the Kanban server. It keeps the
// signed-in session in the user's config directory between runs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/dittokanban/internal/appstate"
	"github.com/and161185/dittokanban/internal/kanban"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/remote"
	"github.com/and161185/dittokanban/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errNotSignedIn is returned by commands that need a session when none is stored.
var errNotSignedIn = errors.New("not signed in, run `kanban signin` first")

// globals are the persistent flags shared by every subcommand.
type globals struct {
	server    string
	configDir string
	timeout   time.Duration
	verbose   bool
}

func (g *globals) tokenPath() string { return filepath.Join(g.configDir, "token.json") }

// app is the client core wired for one command run.
type app struct {
	out   io.Writer
	log   *zap.Logger
	auth  *remote.AuthClient
	sess  *session.Controller
	data  *kanban.Client
	state *appstate.Store
}

func newApp(g *globals, out io.Writer) (*app, error) {
	log := zap.NewNop()
	if g.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		log = l
	}
	hc := &http.Client{Timeout: g.timeout}
	auth, err := remote.NewAuthClient(g.server, hc, remote.NewTokenFile(g.tokenPath()))
	if err != nil {
		return nil, err
	}
	backend, err := remote.NewBackend(g.server, hc, auth)
	if err != nil {
		return nil, err
	}
	data := kanban.New(backend, log)
	return &app{
		out:   out,
		log:   log,
		auth:  auth,
		sess:  session.NewController(auth, log),
		data:  data,
		state: appstate.New(data, log),
	}, nil
}

func (a *app) close() {
	a.sess.Unmount()
	a.state.Close()
	_ = a.log.Sync()
}

// signedIn restores the stored session and loads the user's profile and boards.
func (a *app) signedIn(ctx context.Context) (appstate.State, error) {
	a.sess.Mount(ctx)
	st := a.sess.State()
	if st.Error != "" {
		return appstate.State{}, errors.New(st.Error)
	}
	if st.User == nil {
		return appstate.State{}, errNotSignedIn
	}
	a.state.InitializeFromAuth(ctx, st.User)
	snap := a.state.Snapshot()
	if snap.Error != "" {
		return snap, errors.New(snap.Error)
	}
	return snap, nil
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// runner adapts a command body that needs a wired app.
func runner(g *globals, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(g, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.close()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, a, args)
	}
}

func defaultServer() string {
	if v := os.Getenv("KANBAN_SERVER"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func rootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "kanban",
		Short:         "Kanban boards from the terminal",
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.server, "server", defaultServer(), "server base URL")
	pf.StringVar(&g.configDir, "config-dir", remote.ConfigDir(), "directory holding the stored session")
	pf.DurationVar(&g.timeout, "timeout", 15*time.Second, "HTTP request timeout")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log client activity to stderr")

	root.AddCommand(signUpCmd(g), signInCmd(g), signOutCmd(g), whoamiCmd(g))
	root.AddCommand(boardsCmd(g), columnCmd(g), taskCmd(g), watchCmd(g))
	return root
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// failed is the error for a data call that returned its failure sentinel.
func failed(op string) error { return fmt.Errorf("%s failed", op) }

func priorityLabel(p *model.Priority) string {
	if p == nil {
		return "-"
	}
	return p.Label()
}
