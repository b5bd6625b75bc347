package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/and161185/dittokanban/internal/errs"
	"github.com/and161185/dittokanban/internal/limiter"
	"github.com/and161185/dittokanban/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

type ownerFunc func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad id", errs.ErrValidation)
	}
	return id, nil
}

// me returns the caller's profile id. A caller without a profile owns nothing.
func (a *API) me(ctx context.Context) (uuid.UUID, error) {
	id, ok := IdentityFromCtx(ctx)
	if !ok {
		return uuid.Nil, errs.ErrUnauthorized
	}
	u, err := a.Users.GetByEmail(ctx, id.Email)
	if errors.Is(err, errs.ErrNotFound) {
		return uuid.Nil, errs.ErrForbidden
	}
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

// authorize checks that the caller owns the entity id.
func (a *API) authorize(ctx context.Context, owner ownerFunc, id uuid.UUID) error {
	own, err := owner(ctx, id)
	if err != nil {
		return err
	}
	me, err := a.me(ctx)
	if err != nil {
		return err
	}
	if own != me {
		return errs.ErrForbidden
	}
	return nil
}

func sameEmail(a, b string) bool { return limiter.NormalizeEmail(a) == limiter.NormalizeEmail(b) }

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	email := r.URL.Query().Get("email")
	if email == "" {
		email = id.Email
	}
	if !sameEmail(email, id.Email) {
		a.fail(w, r, errs.ErrForbidden)
		return
	}
	u, err := a.Users.GetByEmail(r.Context(), limiter.NormalizeEmail(email))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	id, _ := IdentityFromCtx(r.Context())
	var in model.CreateUser
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if !sameEmail(in.Email, id.Email) {
		a.fail(w, r, errs.ErrForbidden)
		return
	}
	in.Email = limiter.NormalizeEmail(in.Email)
	u, err := a.Users.Create(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *API) listBoards(w http.ResponseWriter, r *http.Request) {
	me, err := a.me(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("owner_id"); raw != "" {
		owner, err := uuid.FromString(raw)
		if err != nil {
			a.fail(w, r, fmt.Errorf("%w: bad owner_id", errs.ErrValidation))
			return
		}
		if owner != me {
			a.fail(w, r, errs.ErrForbidden)
			return
		}
	}
	list, err := a.Boards.ListByOwner(r.Context(), me)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createBoard(w http.ResponseWriter, r *http.Request) {
	var in model.CreateBoard
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	me, err := a.me(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if in.OwnerID == uuid.Nil {
		in.OwnerID = me
	}
	if in.OwnerID != me {
		a.fail(w, r, errs.ErrForbidden)
		return
	}
	b, err := a.Boards.Create(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (a *API) getBoard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = a.authorize(r.Context(), a.Boards.OwnerOf, id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	b, err := a.Boards.Get(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) updateBoard(w http.ResponseWriter, r *http.Request) {
	var upd model.UpdateBoard
	id, err := pathID(r)
	if err == nil {
		err = decode(r, &upd)
	}
	if err == nil {
		err = a.authorize(r.Context(), a.Boards.OwnerOf, id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	b, err := a.Boards.Update(r.Context(), id, upd)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (a *API) deleteBoard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = a.authorize(r.Context(), a.Boards.OwnerOf, id)
	}
	if err == nil {
		err = a.Boards.Delete(r.Context(), id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createColumn(w http.ResponseWriter, r *http.Request) {
	var in model.CreateColumn
	err := decode(r, &in)
	if err == nil {
		err = a.authorize(r.Context(), a.Boards.OwnerOf, in.BoardID)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Columns.Create(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) updateColumn(w http.ResponseWriter, r *http.Request) {
	var upd model.UpdateColumn
	id, err := pathID(r)
	if err == nil {
		err = decode(r, &upd)
	}
	if err == nil {
		err = a.authorize(r.Context(), a.Columns.OwnerOf, id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	c, err := a.Columns.Update(r.Context(), id, upd)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) deleteColumn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = a.authorize(r.Context(), a.Columns.OwnerOf, id)
	}
	if err == nil {
		err = a.Columns.Delete(r.Context(), id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) createTask(w http.ResponseWriter, r *http.Request) {
	var in model.CreateTask
	err := decode(r, &in)
	if err == nil {
		err = a.authorize(r.Context(), a.Columns.OwnerOf, in.ColumnID)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Tasks.Create(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) updateTask(w http.ResponseWriter, r *http.Request) {
	var upd model.UpdateTask
	id, err := pathID(r)
	if err == nil {
		err = decode(r, &upd)
	}
	if err == nil {
		err = a.authorize(r.Context(), a.Tasks.OwnerOf, id)
	}
	if err == nil && upd.ColumnID != nil {
		err = a.authorize(r.Context(), a.Columns.OwnerOf, *upd.ColumnID)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Tasks.Update(r.Context(), id, upd)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) moveTask(w http.ResponseWriter, r *http.Request) {
	var mv model.MoveTask
	id, err := pathID(r)
	if err == nil {
		err = decode(r, &mv)
	}
	if err == nil {
		err = a.authorize(r.Context(), a.Tasks.OwnerOf, id)
	}
	if err == nil {
		err = a.authorize(r.Context(), a.Columns.OwnerOf, mv.ColumnID)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	t, err := a.Tasks.Move(r.Context(), id, mv.ColumnID, mv.Order)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err == nil {
		err = a.authorize(r.Context(), a.Tasks.OwnerOf, id)
	}
	if err == nil {
		err = a.Tasks.Delete(r.Context(), id)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// watch streams the caller's board change events over a websocket.
func (a *API) watch(w http.ResponseWriter, r *http.Request) {
	me, err := a.me(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Info("websocket upgrade", zap.Error(err))
		return
	}
	a.opts.Hub.Serve(conn, me)
}
