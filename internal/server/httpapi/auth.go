package httpapi

import (
	"net/http"
	"time"

	"github.com/and161185/dittokanban/internal/model"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (a *API) setSessionCookie(w http.ResponseWriter, s model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   a.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) signUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	s, err := a.Auth.SignUp(r.Context(), in.Email, in.Password, in.Name)
	if err != nil {
		a.failAuth(w, r, err)
		return
	}
	a.setSessionCookie(w, s)
	writeJSON(w, http.StatusCreated, s)
}

func (a *API) signIn(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	s, err := a.Auth.SignIn(r.Context(), in.Email, in.Password, clientIP(r))
	if err != nil {
		a.failAuth(w, r, err)
		return
	}
	a.setSessionCookie(w, s)
	writeJSON(w, http.StatusOK, s)
}

func (a *API) signOut(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// session returns the caller's session, or null when there is none.
func (a *API) session(w http.ResponseWriter, r *http.Request) {
	tok := bearer(r)
	if tok == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	id, err := a.Auth.Verify(r.Context(), tok)
	if err != nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, model.Session{Tokens: model.Tokens{AccessToken: tok}, Identity: id})
}
