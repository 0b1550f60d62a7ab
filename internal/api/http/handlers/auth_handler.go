package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/dto"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
)

// RefreshCookie holds the refresh token between requests.
const RefreshCookie = "refresh_token"

// AuthHandler exposes login, token refresh and password endpoints.
type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
}

// NewAuthHandler constructs handler. Secure cookies are used outside development.
func NewAuthHandler(authService *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: authService, secureCookie: secureCookie}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respond(c, session)
}

// Refresh handles POST /api/auth/refresh. The old refresh token is rotated.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	session, err := h.auth.Refresh(c.UserContext(), c.Cookies(RefreshCookie))
	if err != nil {
		return err
	}
	return h.respond(c, session)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), c.Cookies(RefreshCookie)); err != nil {
		return err
	}
	h.setCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"data": fiber.Map{"ok": true}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ChangePassword handles POST /api/auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), p, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) respond(c *fiber.Ctx, session *service.Session) error {
	h.setCookie(c, session.Refresh.Token, session.Refresh.ExpiresAt)
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		AccessToken: session.Access.Token,
		ExpiresAt:   session.Access.ExpiresAt,
		User:        userResponse(session.User),
	}})
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
