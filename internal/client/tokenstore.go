package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrNoToken is returned when no usable token is stored.
var ErrNoToken = errors.New("no valid token (sign in required)")

// Token is a persisted access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenStore persists the current token between runs.
type TokenStore interface {
	Load() (Token, error)
	Save(Token) error
	Clear() error
}

// ConfigDir returns $XDG_CONFIG_HOME/cardvault, falling back to ~/.config/cardvault.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "cardvault")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cardvault")
}

// FileStore keeps the token as JSON in a single file.
type FileStore struct {
	Path string
	now  func() time.Time
}

// NewFileStore stores the token in <ConfigDir>/token.json when path is empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join(ConfigDir(), "token.json")
	}
	return &FileStore{Path: path, now: time.Now}
}

func (s *FileStore) Save(t Token) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Load returns ErrNoToken when the file is missing, empty or expired.
func (s *FileStore) Load() (Token, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Token{}, ErrNoToken
	}
	if err != nil {
		return Token{}, err
	}
	var t Token
	if err := json.Unmarshal(b, &t); err != nil {
		return Token{}, err
	}
	if t.AccessToken == "" || s.now().After(t.ExpiresAt) {
		return Token{}, ErrNoToken
	}
	return t, nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
