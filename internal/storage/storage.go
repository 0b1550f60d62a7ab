// Package storage writes uploaded files to private object storage and hands out
// short-lived download URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("storage: object not found")

// ErrExists is returned by PutPrivate when the key is already taken. Objects are never
// overwritten.
var ErrExists = errors.New("storage: object already exists")

// StoredFile describes a written object.
type StoredFile struct {
	Key       string
	SizeBytes int64
}

// Driver is a private object store.
type Driver interface {
	PutPrivate(ctx context.Context, key, contentType string, body []byte) (StoredFile, error)
	SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Scanner inspects upload bytes before they are stored.
type Scanner interface {
	Scan(ctx context.Context, name, contentType string, body []byte) error
}

// ErrInfected is returned by scanners that reject content.
var ErrInfected = errors.New("storage: file rejected by scanner")

// NopScanner accepts every file.
type NopScanner struct{}

func (NopScanner) Scan(context.Context, string, string, []byte) error { return nil }

// SanitizeFileName keeps the base name, maps whitespace to underscores and drops
// characters that are unsafe in object keys.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r == '/' || r == '?' || r == '#' || r == '%' || unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// DocumentKey builds staff/{staffId}/docs/{docId}/{unixMillis}-{name}.
func DocumentKey(staffID, documentID string, at time.Time, fileName string) string {
	return fmt.Sprintf("staff/%s/docs/%s/%d-%s", staffID, documentID, at.UnixMilli(), SanitizeFileName(fileName))
}

// WithCollisionSuffix inserts a short random segment before the file name.
func WithCollisionSuffix(key string) string {
	dir, file := path.Split(key)
	return dir + uuid.NewString()[:8] + "-" + file
}

// validKey rejects keys that could escape the storage root.
func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("storage: invalid key %q", key)
		}
	}
	return nil
}
