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

// MinPasswordLength applies to created, reset and changed passwords.
const MinPasswordLength = 8

// UserService administers login accounts.
type UserService struct {
	Core
	users      repository.UserRepository
	staff      repository.StaffRepository
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	StaffRepo  repository.StaffRepository
	BcryptCost int
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Email    string
	Password string
	Role     domain.Role
	IsActive bool
	StaffID  *string
}

// NewUserService constructs the service.
func NewUserService(core Core, deps UserDependencies) *UserService {
	return &UserService{Core: core, users: deps.UserRepo, staff: deps.StaffRepo, bcryptCost: deps.BcryptCost}
}

// List returns all accounts.
func (s *UserService) List(ctx context.Context, p *domain.Principal) ([]domain.User, error) {
	if err := s.Policy.CanManageUsers(p); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, mapRepoErr(err, "users")
	}
	return users, nil
}

// Create adds an account. Email and staff link are unique.
func (s *UserService) Create(ctx context.Context, p *domain.Principal, in UserCreateInput) (*domain.User, error) {
	if err := s.Policy.CanManageUsers(p); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, errorutil.NewValidationError("email is required", map[string]any{"email": "required"})
	}
	if !in.Role.Valid() {
		return nil, errorutil.NewValidationError("invalid role", map[string]any{"role": in.Role})
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		StaffID:      blankToNil(in.StaffID),
		IsActive:     in.IsActive,
	}
	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkStaffLink(ctx, user.StaffID); err != nil {
			return err
		}
		if err := s.users.Create(ctx, user); err != nil {
			return userConflict(err)
		}
		_, err := s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID: user.StaffID,
			Action:  domain.ActionUserCreate,
			New:     user.Email,
		})
		return err
	})
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	s.publish(ctx, auditEvent(p.UserID, domain.ActionUserCreate))
	return user, nil
}

// Update changes role, active flag or staff link. An empty staff id unlinks.
func (s *UserService) Update(ctx context.Context, p *domain.Principal, id string, patch domain.UserPatch) (*domain.User, error) {
	if err := s.Policy.CanManageUsers(p); err != nil {
		return nil, err
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, errorutil.NewValidationError("invalid role", map[string]any{"role": *patch.Role})
	}

	var user *domain.User
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByID(ctx, id)
		if err != nil {
			return mapRepoErr(err, "user")
		}
		if patch.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*patch.Email))
			if email == "" {
				return errorutil.NewValidationError("email is required", map[string]any{"email": "required"})
			}
			user.Email = email
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
		if patch.IsActive != nil {
			user.IsActive = *patch.IsActive
		}
		if patch.StaffID != nil {
			user.StaffID = blankToNil(patch.StaffID)
			if err := s.checkStaffLink(ctx, user.StaffID); err != nil {
				return err
			}
		}
		if err := s.users.Update(ctx, user); err != nil {
			return userConflict(err)
		}
		_, err = s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID: user.StaffID,
			Action:  domain.ActionUserUpdate,
			Field:   strPtr("user"),
			New:     user.Email,
		})
		return err
	})
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	s.publish(ctx, auditEvent(p.UserID, domain.ActionUserUpdate))
	return user, nil
}

// ResetPassword sets a new password chosen by an admin.
func (s *UserService) ResetPassword(ctx context.Context, p *domain.Principal, id, password string) error {
	if err := s.Policy.CanManageUsers(p); err != nil {
		return err
	}
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return errorutil.NewInternalError(err)
	}

	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			return mapRepoErr(err, "user")
		}
		user.PasswordHash = hash
		if err := s.users.Update(ctx, user); err != nil {
			return mapRepoErr(err, "user")
		}
		_, err = s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID: user.StaffID,
			Action:  domain.ActionUserResetPassword,
			New:     user.Email,
		})
		return err
	})
	if err != nil {
		return mapRepoErr(err, "user")
	}
	s.publish(ctx, auditEvent(p.UserID, domain.ActionUserResetPassword))
	return nil
}

func (s *UserService) checkStaffLink(ctx context.Context, staffID *string) error {
	if staffID == nil {
		return nil
	}
	if _, err := s.staff.GetByID(ctx, *staffID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorutil.NewValidationError("linked staff record does not exist", map[string]any{"staff_id": *staffID})
		}
		return mapRepoErr(err, "staff")
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return errorutil.NewValidationError("password too short", map[string]any{"password": "min=8"})
	}
	return nil
}

func userConflict(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return errorutil.NewConflict("email or staff link already in use", nil)
	}
	return mapRepoErr(err, "user")
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// EnsureAdmin creates an active admin account with the given credentials unless the
// email is already registered. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	if err := checkPassword(password); err != nil {
		return false, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, mapRepoErr(err, "user")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, errorutil.NewInternalError(err)
	}
	user := &domain.User{Email: email, PasswordHash: hash, Role: domain.RoleAdmin, IsActive: true}
	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return userConflict(err)
		}
		_, err := s.Ledger.Record(ctx, user.ID, audit.Entry{Action: domain.ActionUserCreate, New: user.Email})
		return err
	})
	if err != nil {
		return false, mapRepoErr(err, "user")
	}
	s.publish(ctx, auditEvent(user.ID, domain.ActionUserCreate))
	s.logger().Info("bootstrap admin created", zap.String("email", email))
	return true, nil
}
