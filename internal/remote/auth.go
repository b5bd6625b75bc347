package remote

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/session"
)

// AuthClient is the identity provider behind the server's /api/auth routes.
// The session survives restarts through the token file.
type AuthClient struct {
	api   *api
	store *TokenFile

	mu   sync.Mutex
	cur  *model.Session
	subs session.Listeners
}

var _ session.Provider = (*AuthClient)(nil)

// NewAuthClient returns a provider for the server at baseURL.
func NewAuthClient(baseURL string, hc *http.Client, store *TokenFile) (*AuthClient, error) {
	c := &AuthClient{store: store}
	a, err := newAPI(baseURL, hc, c)
	if err != nil {
		return nil, err
	}
	c.api = a
	return c, nil
}

// Token returns the current access token, so the client can serve as a
// TokenSource for Backend.
func (c *AuthClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return ""
	}
	return c.cur.AccessToken
}

// GetSession restores the stored session and confirms it with the server.
// A session the server no longer accepts is dropped.
func (c *AuthClient) GetSession(ctx context.Context) (*model.Session, error) {
	stored, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		c.set(nil)
		return nil, nil
	}
	c.mu.Lock()
	c.cur = stored
	c.mu.Unlock()

	var remote *model.Session
	if err := c.api.do(ctx, http.MethodGet, "/api/auth/session", nil, nil, &remote); err != nil {
		return nil, err
	}
	if remote == nil {
		_ = c.store.Clear()
		c.set(nil)
		return nil, nil
	}
	s := *stored
	s.Identity = remote.Identity
	c.mu.Lock()
	c.cur = &s
	c.mu.Unlock()
	out := s
	return &out, nil
}

func (c *AuthClient) OnAuthStateChange(fn func(*model.Session)) func() {
	return c.subs.Add(fn)
}

func (c *AuthClient) SignIn(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/api/auth/signin", map[string]string{"email": email, "password": password})
}

func (c *AuthClient) SignUp(ctx context.Context, email, password, name string) error {
	return c.authenticate(ctx, "/api/auth/signup", map[string]string{"email": email, "password": password, "name": name})
}

func (c *AuthClient) authenticate(ctx context.Context, path string, body map[string]string) error {
	var s model.Session
	if err := c.api.do(ctx, http.MethodPost, path, nil, body, &s); err != nil {
		var he *HTTPError
		if errors.As(err, &he) {
			return &session.ProviderError{Message: he.Message, Err: err}
		}
		return err
	}
	if err := c.store.Save(s); err != nil {
		return err
	}
	c.set(&s)
	return nil
}

// SignOut forgets the local session even when the server cannot be reached.
func (c *AuthClient) SignOut(ctx context.Context) error {
	err := c.api.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil, nil)
	if cerr := c.store.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	c.set(nil)
	if err != nil && !errors.Is(err, errs.ErrUnauthorized) {
		return err
	}
	return nil
}

func (c *AuthClient) set(s *model.Session) {
	c.mu.Lock()
	prev := c.cur
	c.cur = s
	c.mu.Unlock()
	if prev == nil && s == nil {
		return
	}
	c.subs.Emit(s)
}
