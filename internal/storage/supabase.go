package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultSupabaseTimeout = 15 * time.Second

// Supabase talks to the Supabase Storage REST API with a service role key.
type Supabase struct {
	baseURL string
	key     string
	bucket  string
}

// NewSupabase returns a driver for the given project URL and bucket.
func NewSupabase(projectURL, serviceRoleKey, bucket string) *Supabase {
	return &Supabase{
		baseURL: strings.TrimRight(projectURL, "/") + "/storage/v1",
		key:     serviceRoleKey,
		bucket:  bucket,
	}
}

func (s *Supabase) objectPath(key string) string {
	return url.PathEscape(s.bucket) + "/" + (&url.URL{Path: key}).EscapedPath()
}

func timeoutFor(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < defaultSupabaseTimeout {
			return d, nil
		}
	}
	return defaultSupabaseTimeout, nil
}

func (s *Supabase) agent(ctx context.Context, method, endpoint string) (*fiber.Agent, error) {
	timeout, err := timeoutFor(ctx)
	if err != nil {
		return nil, err
	}
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(endpoint)
	a.Set(fiber.HeaderAuthorization, "Bearer "+s.key)
	a.Set("apikey", s.key)
	a.Timeout(timeout)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	return a, nil
}

func (s *Supabase) PutPrivate(ctx context.Context, key, contentType string, body []byte) (StoredFile, error) {
	if err := validKey(key); err != nil {
		return StoredFile{}, err
	}
	a, err := s.agent(ctx, fiber.MethodPost, s.baseURL+"/object/"+s.objectPath(key))
	if err != nil {
		return StoredFile{}, err
	}
	a.ContentType(contentType)
	a.Set("x-upsert", "false")
	a.Body(body)

	code, resp, errs := a.Bytes()
	if len(errs) > 0 {
		return StoredFile{}, fmt.Errorf("supabase upload: %w", errors.Join(errs...))
	}
	if isDuplicate(code, resp) {
		return StoredFile{}, ErrExists
	}
	if code != http.StatusOK && code != http.StatusCreated {
		return StoredFile{}, fmt.Errorf("supabase upload: status %d: %s", code, truncate(resp))
	}
	return StoredFile{Key: key, SizeBytes: int64(len(body))}, nil
}

func (s *Supabase) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	a, err := s.agent(ctx, fiber.MethodPost, s.baseURL+"/object/sign/"+s.objectPath(key))
	if err != nil {
		return "", err
	}
	a.JSON(map[string]int{"expiresIn": int(ttl / time.Second)})

	code, resp, errs := a.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("supabase sign: %w", errors.Join(errs...))
	}
	switch {
	case code == http.StatusNotFound || (code == http.StatusBadRequest && strings.Contains(string(resp), "not_found")):
		return "", ErrNotFound
	case code != http.StatusOK:
		return "", fmt.Errorf("supabase sign: status %d: %s", code, truncate(resp))
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", fmt.Errorf("decode supabase sign: %w", err)
	}
	if out.SignedURL == "" {
		return "", errors.New("supabase sign: empty signedURL")
	}
	if strings.HasPrefix(out.SignedURL, "http") {
		return out.SignedURL, nil
	}
	return s.baseURL + out.SignedURL, nil
}

func truncate(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}

// isDuplicate recognizes Supabase's "Duplicate" reply, sent as 409 or as 400 with a
// 409 statusCode in the body depending on the server version.
func isDuplicate(code int, body []byte) bool {
	if code == http.StatusConflict {
		return true
	}
	return code == http.StatusBadRequest && bytes.Contains(body, []byte(`"Duplicate"`))
}
