package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName holds the access token for browser sessions.
const CookieName = "kanban-auth-token"

var (
	knownAuthCookies = []string{CookieName, "kanban-access-token", "kanban-refresh-token"}
	publicPages      = map[string]bool{"/login": true, "/signup": true}
	protectedPrefix  = []string{"/dashboard", "/board"}
)

// hasAuthCookie infers a session from cookie names only; the token is verified by the API.
func hasAuthCookie(r *http.Request) bool {
	for _, name := range knownAuthCookies {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return true
		}
	}
	for _, c := range r.Cookies() {
		if strings.Contains(c.Name, "kanban") && strings.Contains(c.Name, "auth") {
			return true
		}
	}
	return false
}

// Guard redirects page requests by inferred authentication: signed-out users
// away from protected pages, signed-in users away from the login pages, and
// the root to the matching landing page. Assets and API paths pass through.
func Guard(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if strings.HasPrefix(p, "/_next") || strings.HasPrefix(p, "/api") || strings.Contains(p, ".") {
			next.ServeHTTP(w, r)
			return
		}

		authed := hasAuthCookie(r)
		protected := false
		for _, pre := range protectedPrefix {
			if strings.HasPrefix(p, pre) {
				protected = true
				break
			}
		}

		target := ""
		switch {
		case !authed && protected:
			target = "/login"
		case authed && publicPages[p]:
			target = "/dashboard"
		case p == "/" && authed:
			target = "/dashboard"
		case p == "/":
			target = "/login"
		}
		if target != "" {
			log.Debug("guard redirect", zap.String("from", p), zap.String("to", target))
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pages serves the client bundle from dir; extensionless paths fall back to index.html.
func pages(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ".") && r.URL.Path != "/" {
			r2 := r.Clone(r.Context())
			r2.URL.Path = "/"
			fs.ServeHTTP(w, r2)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
