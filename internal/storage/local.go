package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const fileTokenAudience = "file-download"

// Local stores objects under a directory and signs download URLs with an HS256 token
// that the /files route verifies.
type Local struct {
	root    string
	baseURL string
	secret  []byte
	now     func() time.Time
}

// NewLocal creates the root directory if needed.
func NewLocal(root, publicBaseURL, secret string) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{root: root, baseURL: publicBaseURL, secret: []byte(secret), now: time.Now}, nil
}

// WithClock overrides the token clock.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

func (l *Local) path(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *Local) PutPrivate(ctx context.Context, key, _ string, body []byte) (StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}
	p, err := l.path(key)
	if err != nil {
		return StoredFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return StoredFile{}, fmt.Errorf("create key dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return StoredFile{}, ErrExists
		}
		return StoredFile{}, fmt.Errorf("open %s: %w", key, err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return StoredFile{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return StoredFile{}, fmt.Errorf("close %s: %w", key, err)
	}
	return StoredFile{Key: key, SizeBytes: int64(len(body))}, nil
}

func (l *Local) SignedGetURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	now := l.now()
	claims := jwt.RegisteredClaims{
		Subject:   key,
		Audience:  jwt.ClaimStrings{fileTokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("sign file token: %w", err)
	}
	u := l.baseURL + "/files/" + (&url.URL{Path: key}).EscapedPath() + "?token=" + url.QueryEscape(token)
	return u, nil
}

// Open verifies a download token for key and returns the file path.
func (l *Local) Open(key, token string) (string, error) {
	p, err := l.path(key)
	if err != nil {
		return "", err
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(fileTokenAudience),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid file token: %w", err)
	}
	if claims.Subject != key {
		return "", errors.New("file token does not match key")
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return p, nil
}
