package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

type documentRepository struct {
	store *Store
}

// NewDocumentRepository returns a DocumentRepository over the store.
func NewDocumentRepository(store *Store) repository.DocumentRepository {
	return &documentRepository{store: store}
}

func (r *documentRepository) Create(ctx context.Context, d *domain.Document) error {
	defer r.store.lock(ctx)()
	if _, ok := r.store.staff[d.StaffID]; !ok {
		return repository.ErrNotFound
	}
	d.ID = uuid.NewString()
	d.CreatedAt = r.store.now()
	d.UpdatedAt = d.CreatedAt
	r.store.docs[d.ID] = docRow{seq: r.store.nextSeq(), Document: *d}
	return nil
}

func (r *documentRepository) Update(ctx context.Context, d *domain.Document) error {
	defer r.store.lock(ctx)()
	return r.update(d)
}

func (r *documentRepository) update(d *domain.Document) error {
	row, ok := r.store.docs[d.ID]
	if !ok {
		return repository.ErrNotFound
	}
	d.StaffID = row.StaffID
	d.DocType = row.DocType
	d.CreatedAt = row.CreatedAt
	d.UpdatedAt = r.store.now()
	row.Document = *d
	r.store.docs[d.ID] = row
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	defer r.store.lock(ctx)()
	row, ok := r.store.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d := row.Document
	return &d, nil
}

func (r *documentRepository) GetForUpdate(ctx context.Context, id string) (*domain.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *documentRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.Document, error) {
	defer r.store.lock(ctx)()
	return r.collect(func(d *domain.Document) bool { return d.StaffID == staffID }), nil
}

func (r *documentRepository) ListWithExpiry(ctx context.Context) ([]domain.Document, error) {
	defer r.store.lock(ctx)()
	return r.collect(func(d *domain.Document) bool { return d.ExpiryDate != nil }), nil
}

func (r *documentRepository) collect(keep func(*domain.Document) bool) []domain.Document {
	var rows []docRow
	for _, row := range r.store.docs {
		if keep(&row.Document) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	result := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.Document)
	}
	return result
}

func (r *documentRepository) UpdateDerivedStatus(ctx context.Context, id string, remaining *int, s *status.DocumentStatus) error {
	defer r.store.lock(ctx)()
	row, ok := r.store.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.RemainingDays = remaining
	row.Status = s
	r.store.docs[id] = row
	return nil
}

func (r *documentRepository) AttachVersion(ctx context.Context, d *domain.Document, v *domain.DocumentVersion) error {
	defer r.store.lock(ctx)()
	if _, ok := r.store.docs[d.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, row := range r.store.versions {
		if row.FileKey == v.FileKey {
			return repository.ErrConflict
		}
	}
	v.ID = uuid.NewString()
	v.DocumentID = d.ID
	v.CreatedAt = r.store.now()
	r.store.versions[v.ID] = versionRow{seq: r.store.nextSeq(), DocumentVersion: *v}
	id := v.ID
	d.CurrentVersionID = &id
	return r.update(d)
}

func (r *documentRepository) ListVersions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error) {
	defer r.store.lock(ctx)()
	var rows []versionRow
	for _, row := range r.store.versions {
		if row.DocumentID == documentID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	result := make([]domain.DocumentVersion, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.DocumentVersion)
	}
	return result, nil
}

func (r *documentRepository) GetVersion(ctx context.Context, id string) (*domain.DocumentVersion, error) {
	defer r.store.lock(ctx)()
	row, ok := r.store.versions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v := row.DocumentVersion
	return &v, nil
}

func (r *documentRepository) FileKeyExists(ctx context.Context, key string) (bool, error) {
	defer r.store.lock(ctx)()
	for _, row := range r.store.versions {
		if row.FileKey == key {
			return true, nil
		}
	}
	return false, nil
}
