package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

type staffRepository struct {
	store *Store
}

// NewStaffRepository returns a StaffRepository over the store.
func NewStaffRepository(store *Store) repository.StaffRepository {
	return &staffRepository{store: store}
}

func (r *staffRepository) Create(ctx context.Context, s *domain.Staff) error {
	defer r.store.lock(ctx)()
	for _, row := range r.store.staff {
		if row.IDNo == s.IDNo {
			return repository.ErrConflict
		}
	}
	s.ID = uuid.NewString()
	s.CreatedAt = r.store.now()
	s.UpdatedAt = s.CreatedAt
	r.store.staff[s.ID] = staffRow{seq: r.store.nextSeq(), Staff: *s}
	return nil
}

func (r *staffRepository) Update(ctx context.Context, s *domain.Staff) error {
	defer r.store.lock(ctx)()
	row, ok := r.store.staff[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	s.IDNo = row.IDNo
	s.CreatedAt = row.CreatedAt
	s.UpdatedAt = r.store.now()
	r.store.staff[s.ID] = staffRow{seq: r.store.nextSeq(), Staff: *s}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	defer r.store.lock(ctx)()
	row, ok := r.store.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s := row.Staff
	return &s, nil
}

func (r *staffRepository) GetForUpdate(ctx context.Context, id string) (*domain.Staff, error) {
	return r.GetByID(ctx, id)
}

func (r *staffRepository) List(ctx context.Context, filter repository.StaffFilter) ([]domain.Staff, int, error) {
	defer r.store.lock(ctx)()
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var rows []staffRow
	for _, row := range r.store.staff {
		if q != "" && !matchesQuery(&row.Staff, q) {
			continue
		}
		if filter.Area != "" && row.CurrentArea != filter.Area {
			continue
		}
		if filter.Post != "" && row.CurrentPost != filter.Post {
			continue
		}
		if filter.Gender != "" && string(row.Gender) != filter.Gender {
			continue
		}
		if filter.Nationality != "" && row.Nationality != filter.Nationality {
			continue
		}
		if filter.ContractStatus != "" && string(row.ContractStatus) != filter.ContractStatus {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	total := len(rows)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(filter.Offset, 0)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)

	result := make([]domain.Staff, 0, end-offset)
	for _, row := range rows[offset:end] {
		result = append(result, row.Staff)
	}
	return result, total, nil
}

func (r *staffRepository) ListAllByName(ctx context.Context) ([]domain.Staff, error) {
	defer r.store.lock(ctx)()
	result := make([]domain.Staff, 0, len(r.store.staff))
	for _, row := range r.store.staff {
		result = append(result, row.Staff)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StaffName != result[j].StaffName {
			return result[i].StaffName < result[j].StaffName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *staffRepository) UpdateContractStatus(ctx context.Context, id string, s status.ContractStatus) error {
	defer r.store.lock(ctx)()
	row, ok := r.store.staff[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.ContractStatus = s
	r.store.staff[id] = row
	return nil
}

func matchesQuery(s *domain.Staff, q string) bool {
	for _, v := range []string{s.StaffName, s.IDNo, s.PersonalEmail, s.CareEmail} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}
