package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
)

type auditRepository struct {
	store *Store
	fail  error
}

// NewAuditRepository returns an AuditRepository over the store.
func NewAuditRepository(store *Store) repository.AuditRepository {
	return &auditRepository{store: store}
}

// NewFailingAuditRepository returns an AuditRepository whose appends always fail.
func NewFailingAuditRepository(store *Store, err error) repository.AuditRepository {
	return &auditRepository{store: store, fail: err}
}

func (r *auditRepository) Append(ctx context.Context, e *domain.AuditLogEntry) error {
	if r.fail != nil {
		return r.fail
	}
	defer r.store.lock(ctx)()
	e.ID = uuid.NewString()
	e.CreatedAt = r.store.now()
	r.store.audit = append(r.store.audit, auditRow{seq: r.store.nextSeq(), AuditLogEntry: *e})
	return nil
}

// Query walks the append-only slice backwards, which is newest first.
func (r *auditRepository) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	defer r.store.lock(ctx)()
	var result []domain.AuditLogEntry
	for i := len(r.store.audit) - 1; i >= 0 && len(result) < filter.Limit; i-- {
		e := r.store.audit[i].AuditLogEntry
		if filter.StaffID != nil && (e.StaffID == nil || *e.StaffID != *filter.StaffID) {
			continue
		}
		if filter.DocumentID != nil && (e.DocumentID == nil || *e.DocumentID != *filter.DocumentID) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}
