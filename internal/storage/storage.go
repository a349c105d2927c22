// Package storage uploads card images and profile photos to an object backend
// and returns URLs clients can fetch them from.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cardvault/internal/model"
)

// ObjectStore persists an upload under path and returns a resolvable URL.
type ObjectStore interface {
	Put(ctx context.Context, path string, u model.Upload) (string, error)
}

// CardImagePath returns cards/<owner>/<unixmillis>-<nonce>-<name>. The nonce
// keeps uploads with the same name and timestamp from sharing a key.
func CardImagePath(owner uuid.UUID, t time.Time, name string) string {
	return objectPath("cards", owner, t, name)
}

// ProfilePhotoPath returns profiles/<owner>/<unixmillis>-<nonce>-<name>.
func ProfilePhotoPath(owner uuid.UUID, t time.Time, name string) string {
	return objectPath("profiles", owner, t, name)
}

func objectPath(prefix string, owner uuid.UUID, t time.Time, name string) string {
	return fmt.Sprintf("%s/%s/%d-%s-%s", prefix, owner, t.UnixMilli(), nonce(), SafeName(name))
}

func nonce() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// SafeName reduces a client supplied file name to a base name made of
// letters, digits, dot, dash and underscore.
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "upload"
	}
	return out
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	c := path.Clean("/" + key)[1:]
	if c == "" || c != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object path %q", key)
	}
	return c, nil
}
