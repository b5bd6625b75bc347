package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGuard(t *testing.T) {
	t.Parallel()

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	g := Guard(zap.NewNop(), ok)

	cases := []struct {
		path   string
		cookie *http.Cookie
		want   string // "" means passed through
	}{
		{"/", nil, "/login"},
		{"/", &http.Cookie{Name: CookieName, Value: "t"}, "/dashboard"},
		{"/dashboard", nil, "/login"},
		{"/board/123", nil, "/login"},
		{"/board/123", &http.Cookie{Name: "my-kanban-auth", Value: "x"}, ""},
		{"/login", &http.Cookie{Name: "kanban-access-token", Value: "t"}, "/dashboard"},
		{"/signup", nil, ""},
		{"/login", nil, ""},
		{"/dashboard", &http.Cookie{Name: CookieName, Value: ""}, ""}, // name alone counts
		{"/dashboard", &http.Cookie{Name: "session", Value: "x"}, "/login"},
		{"/api/boards", nil, ""},
		{"/_next/static/app.js", nil, ""},
		{"/favicon.ico", nil, ""},
		{"/about", nil, ""},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		if c.cookie != nil {
			req.AddCookie(c.cookie)
		}
		rec := httptest.NewRecorder()
		g.ServeHTTP(rec, req)
		if c.want == "" {
			require.Equal(t, http.StatusOK, rec.Code, c.path)
			continue
		}
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code, c.path)
		require.Equal(t, c.want, rec.Header().Get("Location"), c.path)
	}
}

func TestPagesFallBackToIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600))
	h := pages(dir)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "app</html>")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	require.Contains(t, rec.Body.String(), "console.log")
}
