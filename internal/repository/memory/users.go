package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
)

type userRepository struct {
	store *Store
}

// NewUserRepository returns a UserRepository over the store.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) conflicts(u *domain.User) bool {
	for id, existing := range r.store.users {
		if id == u.ID {
			continue
		}
		if existing.Email == u.Email {
			return true
		}
		if u.StaffID != nil && existing.StaffID != nil && *existing.StaffID == *u.StaffID {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	defer r.store.lock(ctx)()
	u.Email = strings.ToLower(u.Email)
	if r.conflicts(u) {
		return repository.ErrConflict
	}
	u.ID = uuid.NewString()
	u.CreatedAt = r.store.now()
	u.UpdatedAt = u.CreatedAt
	r.store.users[u.ID] = *u
	return nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	defer r.store.lock(ctx)()
	existing, ok := r.store.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Email = strings.ToLower(u.Email)
	if r.conflicts(u) {
		return repository.ErrConflict
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = r.store.now()
	r.store.users[u.ID] = *u
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	defer r.store.lock(ctx)()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer r.store.lock(ctx)()
	email = strings.ToLower(email)
	for _, u := range r.store.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	defer r.store.lock(ctx)()
	result := make([]domain.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Email < result[j].Email
	})
	return result, nil
}
