package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository/memory"
	apperrors "github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

func TestTokenRoundTripAndKinds(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tm := NewTokenManager("access", "refresh", time.Minute, time.Hour).WithClock(func() time.Time { return now })
	staffID := "s-1"
	user := &domain.User{ID: "u-1", Role: domain.RoleStaff, StaffID: &staffID}

	access, err := tm.GenerateAccessToken(user)
	require.NoError(t, err)
	claims, err := tm.ParseAccessToken(access.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, domain.RoleStaff, claims.Role)
	assert.Equal(t, "s-1", *claims.StaffID)

	_, err = tm.ParseRefreshToken(access.Token)
	assert.Error(t, err, "access token must not pass as refresh")

	refresh, err := tm.GenerateRefreshToken(user)
	require.NoError(t, err)
	rc, err := tm.ParseRefreshToken(refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, refresh.ID, rc.ID)

	now = now.Add(2 * time.Minute)
	_, err = tm.ParseAccessToken(access.Token)
	assert.Error(t, err, "expired")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, ComparePassword("", "anything"), ErrPasswordMismatch, "unusable hash never matches")

	cheap, err := HashPassword("s3cret-pass", 1)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(cheap))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost, "cost is clamped up")
}

type testKit struct {
	app      *fiber.App
	tokens   *TokenManager
	users    repository.UserRepository
	admin    *domain.User
	disabled *domain.User
}

func newTestApp(t *testing.T) testKit {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	ctx := context.Background()
	admin := &domain.User{Email: "admin@icu.test", Role: domain.RoleAdmin, IsActive: true}
	require.NoError(t, users.Create(ctx, admin))
	disabled := &domain.User{Email: "gone@icu.test", Role: domain.RoleStaff, IsActive: false}
	require.NoError(t, users.Create(ctx, disabled))

	tm := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	mw := NewAuthMiddleware(tm, users)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Email)
	})
	app.Get("/admin", mw.Handle, RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return testKit{app: app, tokens: tm, users: users, admin: admin, disabled: disabled}
}

func TestAuthMiddleware(t *testing.T) {
	kit := newTestApp(t)
	app, tm := kit.app, kit.tokens

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := tm.GenerateAccessToken(kit.admin)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	off, err := tm.GenerateAccessToken(kit.disabled)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+off.Token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleForbidsStaff(t *testing.T) {
	kit := newTestApp(t)
	nurse := &domain.User{Email: "n@icu.test", Role: domain.RoleStaff, IsActive: true}
	require.NoError(t, kit.users.Create(context.Background(), nurse))

	token, err := kit.tokens.GenerateAccessToken(nurse)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	resp, err := kit.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
