package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/persistence"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds an append-only audit_logs repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, e *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_logs (actor_user_id, staff_id, document_id, action, field, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.pool).QueryRow(ctx, query,
		e.ActorUserID, e.StaffID, e.DocumentID, e.Action, e.Field, e.OldValue, e.NewValue,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *auditRepository) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		clauses = append(clauses, fmt.Sprintf("staff_id=$%d", len(args)))
	}
	if filter.DocumentID != nil {
		args = append(args, *filter.DocumentID)
		clauses = append(clauses, fmt.Sprintf("document_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT id, actor_user_id, staff_id, document_id, action, field, old_value, new_value, created_at
        FROM audit_logs WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d`,
		strings.Join(clauses, " AND "), filter.Limit)

	rows, err := persistence.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var e domain.AuditLogEntry
		if err := rows.Scan(
			&e.ID,
			&e.ActorUserID,
			&e.StaffID,
			&e.DocumentID,
			&e.Action,
			&e.Field,
			&e.OldValue,
			&e.NewValue,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
