// Package audit records and reads the append-only change ledger.
package audit

import (
	"context"
	"fmt"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

// Page bounds for Query.
const (
	DefaultLimit = 200
	MaxLimit     = 200
)

// Entry is one change to record. Old and New are coerced to text.
type Entry struct {
	StaffID    *string
	DocumentID *string
	Action     domain.AuditAction
	Field      *string
	Old        any
	New        any
}

// Ledger appends entries through the audit repository. Callers run Record inside the
// transaction of the mutation being recorded.
type Ledger struct {
	repo repository.AuditRepository
	cal  temporal.Calendar
}

// NewLedger builds a ledger. Dates are rendered in the calendar zone.
func NewLedger(repo repository.AuditRepository, cal temporal.Calendar) *Ledger {
	return &Ledger{repo: repo, cal: cal}
}

// Record appends one entry. Failures are returned so the transaction aborts.
func (l *Ledger) Record(ctx context.Context, actorID string, e Entry) (*domain.AuditLogEntry, error) {
	row := &domain.AuditLogEntry{
		ActorUserID: actorID,
		StaffID:     e.StaffID,
		DocumentID:  e.DocumentID,
		Action:      e.Action,
		Field:       e.Field,
		OldValue:    Text(e.Old, l.cal),
		NewValue:    Text(e.New, l.cal),
	}
	if err := l.repo.Append(ctx, row); err != nil {
		return nil, fmt.Errorf("append audit %s: %w", e.Action, err)
	}
	return row, nil
}

// RecordChanges appends one entry per field change, all sharing action and target ids.
func (l *Ledger) RecordChanges(ctx context.Context, actorID string, action domain.AuditAction,
	staffID, documentID *string, changes []FieldChange) error {
	for _, c := range changes {
		field := c.Field
		if _, err := l.Record(ctx, actorID, Entry{
			StaffID:    staffID,
			DocumentID: documentID,
			Action:     action,
			Field:      &field,
			Old:        c.Old,
			New:        c.New,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Query returns entries newest first. The limit is clamped to [1, MaxLimit].
func (l *Ledger) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	filter.Limit = ClampLimit(filter.Limit)
	entries, err := l.repo.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	return entries, nil
}

// ClampLimit maps a requested page size into the accepted range.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
