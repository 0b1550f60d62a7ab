package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/audit"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/auth"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// AuthService coordinates login, refresh-token rotation and password changes.
type AuthService struct {
	Core
	users      repository.UserRepository
	sessions   repository.SessionStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   repository.SessionStore
	Tokens     *auth.TokenManager
	BcryptCost int
}

// Session is the token pair handed to a client after login or refresh.
type Session struct {
	User    *domain.User
	Access  auth.IssuedToken
	Refresh auth.IssuedToken
}

// NewAuthService builds the service.
func NewAuthService(core Core, deps AuthDependencies) *AuthService {
	return &AuthService{
		Core:       core,
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		tokenMgr:   deps.Tokens,
		bcryptCost: deps.BcryptCost,
	}
}

// Login authenticates by email and password. Unknown, inactive and wrong-password
// accounts fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewUnauthorized("invalid credentials")
		}
		return nil, mapRepoErr(err, "user")
	}
	if !user.IsActive {
		return nil, errorutil.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, errorutil.NewUnauthorized("invalid credentials")
		}
		return nil, errorutil.NewInternalError(err)
	}
	return s.issue(ctx, user)
}

// Refresh exchanges a live refresh token for a new pair. The old token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, errorutil.NewUnauthorized("missing refresh token")
	}
	claims, err := s.tokenMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, errorutil.NewUnauthorized("invalid refresh token")
	}
	userID, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewUnauthorized("refresh token revoked")
		}
		return nil, errorutil.NewInternalError(err)
	}
	if userID != claims.Subject {
		return nil, errorutil.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorutil.NewUnauthorized("user not found")
		}
		return nil, mapRepoErr(err, "user")
	}
	if !user.IsActive {
		return nil, errorutil.NewUnauthorized("account disabled")
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	return s.issue(ctx, user)
}

// Logout revokes the refresh token if it is still valid. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokenMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return errorutil.NewInternalError(err)
	}
	return nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, p *domain.Principal) (*domain.User, error) {
	if p == nil {
		return nil, errorutil.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, p *domain.Principal, currentPassword, newPassword string) error {
	if p == nil {
		return errorutil.NewUnauthorized("authentication required")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return errorutil.NewInternalError(err)
	}

	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			return mapRepoErr(err, "user")
		}
		if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
			if !errors.Is(err, auth.ErrPasswordMismatch) {
				return errorutil.NewInternalError(err)
			}
			return errorutil.NewValidationError("current password is incorrect",
				map[string]any{"currentPassword": "mismatch"})
		}
		user.PasswordHash = hash
		if err := s.users.Update(ctx, user); err != nil {
			return mapRepoErr(err, "user")
		}
		_, err = s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID: user.StaffID,
			Action:  domain.ActionUserChangePassword,
			New:     user.Email,
		})
		return err
	})
	if err != nil {
		return mapRepoErr(err, "user")
	}
	s.publish(ctx, auditEvent(p.UserID, domain.ActionUserChangePassword))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*Session, error) {
	access, err := s.tokenMgr.GenerateAccessToken(user)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	refresh, err := s.tokenMgr.GenerateRefreshToken(user)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	if err := s.sessions.Save(ctx, refresh.ID, user.ID, s.tokenMgr.RefreshTTL()); err != nil {
		s.logger().Error("save refresh session failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, errorutil.NewInternalError(err)
	}
	return &Session{User: user, Access: access, Refresh: refresh}, nil
}
