package session

import (
	"context"
	"sync"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/service"
)

// LocalProvider serves identities straight from an in-process AuthService.
type LocalProvider struct {
	auth service.AuthService

	mu   sync.Mutex
	cur  *model.Session
	subs Listeners
}

// NewLocal returns a signed-out provider over auth.
func NewLocal(auth service.AuthService) *LocalProvider {
	return &LocalProvider{auth: auth}
}

func (p *LocalProvider) GetSession(ctx context.Context) (*model.Session, error) {
	p.mu.Lock()
	s := p.cur
	p.mu.Unlock()
	if s == nil {
		return nil, nil
	}
	if _, err := p.auth.Verify(ctx, s.AccessToken); err != nil {
		p.set(nil)
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (p *LocalProvider) OnAuthStateChange(fn func(*model.Session)) func() {
	return p.subs.Add(fn)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) error {
	s, err := p.auth.SignIn(ctx, email, password, "local")
	if err != nil {
		return AsProviderError(err)
	}
	p.set(&s)
	return nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password, name string) error {
	s, err := p.auth.SignUp(ctx, email, password, name)
	if err != nil {
		return AsProviderError(err)
	}
	p.set(&s)
	return nil
}

func (p *LocalProvider) SignOut(context.Context) error {
	p.set(nil)
	return nil
}

func (p *LocalProvider) set(s *model.Session) {
	p.mu.Lock()
	p.cur = s
	p.mu.Unlock()
	p.subs.Emit(s)
}
