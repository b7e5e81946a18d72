/*
Package randx generates the random identifiers used for stored object keys.

Keys are a UUID v4 followed by the original file extension, so uploads never collide and
keep a recognizable suffix.
*/
package randx

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrMissingExtension is returned when a file name carries no extension to preserve.
var ErrMissingExtension = errors.New("file name has no extension")

// Extension returns the extension of name including the leading dot, as written by the client.
// Directory components of name are ignored.
func Extension(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := filepath.Ext(base)
	if ext == "." || ext == base {
		return ""
	}
	return ext
}

// ObjectKey returns a new key of the form "<uuid><ext>" for the given original file name.
func ObjectKey(name string) (string, error) {
	ext := Extension(name)
	if ext == "" {
		return "", ErrMissingExtension
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String() + ext, nil
}

// IsObjectKey reports whether key has the shape produced by ObjectKey.
func IsObjectKey(key string) bool {
	if len(key) <= 36 {
		return false
	}
	if _, err := uuid.Parse(key[:36]); err != nil {
		return false
	}
	return Extension(key) == key[36:]
}
