// Package service contains the server-side board, column, task, user and
// identity services.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/dittokanban/internal/crypto"
	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/limiter"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/and161185/dittokanban/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// AuthService defines identity provider operations.
type AuthService interface {
	// SignUp creates an account and returns a fresh session.
	SignUp(ctx context.Context, email, password, name string) (model.Session, error)
	// SignIn applies rate limiting and authenticates by email/password.
	SignIn(ctx context.Context, email, password, ip string) (model.Session, error)
	// Verify parses an access token and returns its identity.
	Verify(ctx context.Context, token string) (model.Identity, error)
}

type AuthServiceImpl struct {
	accounts  repository.AccountRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
	pwd       pkgcrypto.Params
	log       *zap.Logger
}

// AuthOption configures AuthServiceImpl.
type AuthOption func(*AuthServiceImpl)

// WithPasswordParams overrides the Argon2id setting used for new and checked passwords.
func WithPasswordParams(p pkgcrypto.Params) AuthOption {
	return func(s *AuthServiceImpl) { s.pwd = p }
}

// WithAuthLogger sets the logger used for limiter bookkeeping failures.
func WithAuthLogger(l *zap.Logger) AuthOption {
	return func(s *AuthServiceImpl) { s.log = l }
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(accounts repository.AccountRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter, opts ...AuthOption) *AuthServiceImpl {
	s := &AuthServiceImpl{accounts: accounts, signKey: signKey, accessTTL: accessTTL, lim: lim, pwd: pkgcrypto.Default, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// identityClaims is the access token payload.
type identityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SignUp creates an account with a per-account salt.
func (s *AuthServiceImpl) SignUp(ctx context.Context, email, password, name string) (model.Session, error) {
	email = limiter.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return model.Session{}, errs.ErrInvalidEmail
	}
	if len(password) < model.MinPasswordLen {
		return model.Session{}, errs.ErrWeakPassword
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Session{}, err
	}
	cred, err := s.pwd.New(password)
	if err != nil {
		return model.Session{}, err
	}
	a := &model.Account{
		ID:       uid,
		Email:    email,
		Name:     strings.TrimSpace(name),
		PwdHash:  cred.Hash,
		SaltAuth: cred.Salt,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return model.Session{}, fmt.Errorf("signup: %w", err)
	}
	return s.session(a)
}

// SignIn authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password, ip string) (model.Session, error) {
	email = limiter.NormalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Session{}, err
	}
	if !allowed {
		return model.Session{}, errs.ErrRateLimited
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Session{}, err
	}
	var cred pkgcrypto.Credential
	if a != nil {
		cred = pkgcrypto.Credential{Salt: a.SaltAuth, Hash: a.PwdHash}
	}
	if !s.pwd.Verify(password, cred) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Session{}, errs.ErrRateLimited
		}
		// unknown email and wrong password look the same
		return model.Session{}, errs.ErrInvalidCredentials
	}

	if err := s.lim.Success(ctx, email, ipHash); err != nil {
		s.log.Warn("limiter reset", zap.String("email", email), zap.Error(err))
	}
	return s.session(a)
}

// Verify validates an HS256 access token.
func (s *AuthServiceImpl) Verify(_ context.Context, token string) (model.Identity, error) {
	var claims identityClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return model.Identity{}, errs.ErrUnauthorized
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Identity{}, errs.ErrUnauthorized
	}
	return model.Identity{ID: id, Email: claims.Email, Name: claims.Name}, nil
}

func (s *AuthServiceImpl) session(a *model.Account) (model.Session, error) {
	ident := model.Identity{ID: a.ID, Email: a.Email, Name: a.Name}
	access, exp, err := s.issueAccessToken(ident)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{Tokens: model.Tokens{AccessToken: access, ExpiresAt: exp}, Identity: ident}, nil
}

// issueAccessToken creates a signed HS256 JWT for the identity.
func (s *AuthServiceImpl) issueAccessToken(ident model.Identity) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := identityClaims{
		Email: ident.Email,
		Name:  ident.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}
