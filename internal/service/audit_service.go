package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// AuditService exposes the ledger to admins.
type AuditService struct {
	Core
}

// NewAuditService constructs the service.
func NewAuditService(core Core) *AuditService {
	return &AuditService{Core: core}
}

// Query returns entries newest first, at most 200 per call.
func (s *AuditService) Query(ctx context.Context, p *domain.Principal, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	if err := s.Policy.CanReadAudit(p); err != nil {
		return nil, err
	}
	details := map[string]any{}
	if filter.StaffID != nil && uuid.Validate(*filter.StaffID) != nil {
		details["staff_id"] = "uuid"
	}
	if filter.DocumentID != nil && uuid.Validate(*filter.DocumentID) != nil {
		details["document_id"] = "uuid"
	}
	if len(details) > 0 {
		return nil, errorutil.NewValidationError("invalid audit filter", details)
	}
	entries, err := s.Ledger.Query(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(err, "audit")
	}
	return entries, nil
}
