package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/and161185/cardvault/internal/model"
)

// Local keeps objects on the server's filesystem. The HTTP server serves
// them back under /objects/.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates root if needed. baseURL is the public server URL.
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory objects are written to.
func (l *Local) Root() string { return l.root }

func (l *Local) Put(ctx context.Context, key string, u model.Upload) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	n, err := io.Copy(f, u.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if u.Size >= 0 && n != u.Size {
		return "", fmt.Errorf("short upload: got %d of %d bytes", n, u.Size)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", err
	}
	return l.baseURL + "/objects/" + key, nil
}
