package session

import (
	"context"
	"sync"

	"github.com/and161185/dittokanban/internal/model"
	"go.uber.org/zap"
)

// State is what the interface renders for the auth session.
type State struct {
	User    *model.Identity
	Loading bool
	Error   string
}

// Controller owns the client's view of the current identity.
// All methods are safe for concurrent use. Subscribers run outside the lock.
type Controller struct {
	p   Provider
	log *zap.Logger

	mu    sync.Mutex
	state State
	unsub func()
	subs  Listeners
}

// NewController returns a controller in the loading state; call Mount to resolve it.
func NewController(p Provider, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{p: p, log: log.Named("session"), state: State{Loading: true}}
}

// Mount fetches the current session once and follows provider changes until Unmount.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.unsub == nil {
		c.unsub = c.p.OnAuthStateChange(c.onChange)
	}
	c.mu.Unlock()

	s, err := c.p.GetSession(ctx)
	if err != nil {
		c.log.Warn("get session", zap.Error(err))
		c.mu.Lock()
		c.state.Loading = false
		c.state.Error = MsgInitFailed
		c.mu.Unlock()
		return
	}
	c.onChange(s)
}

// Unmount stops following provider changes.
func (c *Controller) Unmount() {
	c.mu.Lock()
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (c *Controller) onChange(s *model.Session) {
	var user *model.Identity
	if s != nil {
		id := s.Identity
		user = &id
	}
	c.mu.Lock()
	changed := !sameIdentity(c.state.User, user)
	c.state.User = user
	c.state.Loading = false
	c.mu.Unlock()
	if changed {
		c.subs.Emit(s)
	}
}

func sameIdentity(a, b *model.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SignIn authenticates and reports success. The user field follows through the
// provider subscription.
func (c *Controller) SignIn(ctx context.Context, email, password string) bool {
	return c.run("signIn", func() error { return c.p.SignIn(ctx, email, password) })
}

// SignUp registers a new identity and reports success.
func (c *Controller) SignUp(ctx context.Context, email, password, name string) bool {
	return c.run("signUp", func() error { return c.p.SignUp(ctx, email, password, name) })
}

// SignOut ends the session and reports success.
func (c *Controller) SignOut(ctx context.Context) bool {
	return c.run("signOut", func() error { return c.p.SignOut(ctx) })
}

func (c *Controller) run(op string, fn func() error) bool {
	c.mu.Lock()
	c.state.Loading = true
	c.state.Error = ""
	c.mu.Unlock()

	err := fn()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.log.Info("auth operation failed", zap.String("op", op), zap.Error(err))
		c.state.Error = MessageFor(err)
		return false
	}
	return true
}

// ClearError drops the current error message.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.state.Error = ""
	c.mu.Unlock()
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// User returns the signed-in identity, or nil.
func (c *Controller) User() *model.Identity { return c.State().User }

// Subscribe registers fn for every user change (nil on sign-out) and returns its remover.
func (c *Controller) Subscribe(fn func(*model.Identity)) func() {
	return c.subs.Add(func(s *model.Session) {
		if s == nil {
			fn(nil)
			return
		}
		id := s.Identity
		fn(&id)
	})
}
