package service

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/model"
)

func TestUsers_CreateAndLookup(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{}
	s := NewUserService(users)
	ctx := context.Background()

	if _, err := s.Create(ctx, model.CreateUser{Name: " ", Email: "a@b.co"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for blank name, got %v", err)
	}
	if _, err := s.Create(ctx, model.CreateUser{Name: "Ana", Email: "nope"}); !errors.Is(err, errs.ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail, got %v", err)
	}

	u, err := s.Create(ctx, model.CreateUser{Name: " Ana ", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Name != "Ana" {
		t.Fatalf("name not trimmed: %q", u.Name)
	}

	got, err := s.GetByEmail(ctx, "ana@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetByEmail: %+v %v", got, err)
	}
	byID, err := s.GetByID(ctx, u.ID)
	if err != nil || byID.Email != u.Email {
		t.Fatalf("GetByID: %+v %v", byID, err)
	}

	if _, err := s.GetByEmail(ctx, "ghost@example.com"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	users.getErr = errors.New("db down")
	if _, err := s.GetByEmail(ctx, "ana@example.com"); err == nil || errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("storage error must not look like not-found: %v", err)
	}

	if _, err := s.Create(ctx, model.CreateUser{Name: "Ana", Email: "ana@example.com"}); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}
