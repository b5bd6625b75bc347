package remote

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/dittokanban/internal/model"
)

// ConfigDir returns the per-user directory for client state.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "dittokanban")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dittokanban")
}

// TokenFile persists the signed-in session between runs.
type TokenFile struct {
	Path string
	now  func() time.Time
}

// NewTokenFile stores the session at path.
func NewTokenFile(path string) *TokenFile { return &TokenFile{Path: path, now: time.Now} }

// Save writes s with owner-only permissions.
func (f *TokenFile) Save(s model.Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

// Load returns the stored session, or nil when none is stored or it expired.
func (f *TokenFile) Load() (*model.Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s model.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.AccessToken == "" || (!s.ExpiresAt.IsZero() && f.now().After(s.ExpiresAt)) {
		return nil, nil
	}
	return &s, nil
}

// Clear removes the stored session.
func (f *TokenFile) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
