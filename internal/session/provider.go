// Package session tracks the signed-in identity on the client and turns
// identity service failures into user-facing messages.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
)

// Provider is the identity service as seen by the client.
type Provider interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*model.Session, error)
	// OnAuthStateChange registers fn for every session change and returns
	// a function that removes it.
	OnAuthStateChange(fn func(*model.Session)) (unsubscribe func())
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, name string) error
	SignOut(ctx context.Context) error
}

// ProviderError is a failure reported by the identity service with its own message.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "identity provider error"
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError wraps a service error with the message the identity service
// reports for it. Errors without a known message are returned unchanged.
func AsProviderError(err error) error {
	if msg := errs.ProviderMessage(err); msg != "" {
		return &ProviderError{Message: msg, Err: err}
	}
	return err
}

// Listeners is a set of session callbacks. The zero value is ready to use.
type Listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(*model.Session)
}

// Add registers fn and returns its remover.
func (l *Listeners) Add(fn func(*model.Session)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = map[int]func(*model.Session){}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
		})
	}
}

// Emit calls every registered callback in registration order, outside the lock.
func (l *Listeners) Emit(s *model.Session) {
	l.mu.Lock()
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*model.Session), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Len returns the number of registered callbacks.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fns)
}

// ErrNoSession is returned by operations that need a signed-in identity.
var ErrNoSession = errors.New("no session")
