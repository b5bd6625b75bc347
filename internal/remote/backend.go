package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/dittokanban/internal/kanban"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Backend implements kanban.Backend over the HTTP API.
type Backend struct{ api *api }

var _ kanban.Backend = (*Backend)(nil)

// NewBackend returns a backend for the server at baseURL. A nil hc uses a
// client with a 15s timeout.
func NewBackend(baseURL string, hc *http.Client, tokens TokenSource) (*Backend, error) {
	a, err := newAPI(baseURL, hc, tokens)
	if err != nil {
		return nil, err
	}
	return &Backend{api: a}, nil
}

func idPath(prefix string, id uuid.UUID) string { return prefix + "/" + id.String() }

func (b *Backend) CreateBoard(ctx context.Context, in model.CreateBoard) (*model.Board, error) {
	var out model.Board
	if err := b.api.do(ctx, http.MethodPost, "/api/boards", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) GetBoard(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var out model.Board
	if err := b.api.do(ctx, http.MethodGet, idPath("/api/boards", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) ListBoards(ctx context.Context, ownerID uuid.UUID) ([]model.Board, error) {
	out := []model.Board{}
	q := url.Values{"owner_id": {ownerID.String()}}
	if err := b.api.do(ctx, http.MethodGet, "/api/boards", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Backend) UpdateBoard(ctx context.Context, id uuid.UUID, upd model.UpdateBoard) (*model.Board, error) {
	var out model.Board
	if err := b.api.do(ctx, http.MethodPatch, idPath("/api/boards", id), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) DeleteBoard(ctx context.Context, id uuid.UUID) error {
	return b.api.do(ctx, http.MethodDelete, idPath("/api/boards", id), nil, nil, nil)
}

func (b *Backend) CreateColumn(ctx context.Context, in model.CreateColumn) (*model.Column, error) {
	var out model.Column
	if err := b.api.do(ctx, http.MethodPost, "/api/columns", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) UpdateColumn(ctx context.Context, id uuid.UUID, upd model.UpdateColumn) (*model.Column, error) {
	var out model.Column
	if err := b.api.do(ctx, http.MethodPatch, idPath("/api/columns", id), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) DeleteColumn(ctx context.Context, id uuid.UUID) error {
	return b.api.do(ctx, http.MethodDelete, idPath("/api/columns", id), nil, nil, nil)
}

func (b *Backend) CreateTask(ctx context.Context, in model.CreateTask) (*model.Task, error) {
	var out model.Task
	if err := b.api.do(ctx, http.MethodPost, "/api/tasks", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) UpdateTask(ctx context.Context, id uuid.UUID, upd model.UpdateTask) (*model.Task, error) {
	var out model.Task
	if err := b.api.do(ctx, http.MethodPatch, idPath("/api/tasks", id), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) MoveTask(ctx context.Context, id uuid.UUID, mv model.MoveTask) (*model.Task, error) {
	var out model.Task
	if err := b.api.do(ctx, http.MethodPost, idPath("/api/tasks", id)+"/move", nil, mv, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return b.api.do(ctx, http.MethodDelete, idPath("/api/tasks", id), nil, nil, nil)
}

func (b *Backend) CreateUser(ctx context.Context, in model.CreateUser) (*model.User, error) {
	var out model.User
	if err := b.api.do(ctx, http.MethodPost, "/api/users", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *Backend) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var out model.User
	if err := b.api.do(ctx, http.MethodGet, "/api/users", url.Values{"email": {email}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
