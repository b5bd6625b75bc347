// Package httpapi is the JSON HTTP API of the board server, plus the page
// route guard in front of the static client.
package httpapi

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/and161185/dittokanban/internal/limiter"
	"github.com/and161185/dittokanban/internal/server/events"
	"github.com/and161185/dittokanban/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Services are the domain services the API exposes.
type Services struct {
	Auth    service.AuthService
	Users   service.UserService
	Boards  service.BoardService
	Columns service.ColumnService
	Tasks   service.TaskService
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string          // CORS and websocket origins; "*" allows any
	StaticDir      string            // client bundle served behind the route guard; empty disables
	Visitors       *limiter.Visitors // per-IP request budget; nil disables
	Hub            *events.Hub       // board change feed; nil disables /api/ws
	SecureCookies  bool
}

// API serves the HTTP endpoints.
type API struct {
	Services
	opts     Options
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// New constructs the API.
func New(svc Services, opts Options, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	a := &API{Services: svc, opts: opts, log: log.Named("http")}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
	return a
}

func (a *API) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(a.opts.AllowedOrigins, "*") || slices.Contains(a.opts.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// Handler builds the router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, Recover(a.log), Logging(a.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if a.opts.Visitors != nil {
			r.Use(RateLimit(a.opts.Visitors))
		}
		r.Post("/auth/signup", a.signUp)
		r.Post("/auth/signin", a.signIn)
		r.Post("/auth/signout", a.signOut)
		r.Get("/auth/session", a.session)

		r.Group(func(r chi.Router) {
			r.Use(a.authenticate)

			r.Get("/users", a.getUser)
			r.Post("/users", a.createUser)

			r.Get("/boards", a.listBoards)
			r.Post("/boards", a.createBoard)
			r.Get("/boards/{id}", a.getBoard)
			r.Patch("/boards/{id}", a.updateBoard)
			r.Delete("/boards/{id}", a.deleteBoard)

			r.Post("/columns", a.createColumn)
			r.Patch("/columns/{id}", a.updateColumn)
			r.Delete("/columns/{id}", a.deleteColumn)

			r.Post("/tasks", a.createTask)
			r.Patch("/tasks/{id}", a.updateTask)
			r.Delete("/tasks/{id}", a.deleteTask)
			r.Post("/tasks/{id}/move", a.moveTask)

			if a.opts.Hub != nil {
				r.Get("/ws", a.watch)
			}
		})
	})

	if a.opts.StaticDir != "" {
		r.Handle("/*", Guard(a.log, pages(a.opts.StaticDir)))
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   a.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
