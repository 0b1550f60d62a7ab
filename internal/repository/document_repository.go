package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/persistence"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

const documentColumns = `id, staff_id, doc_type, custom_name, issue_date, expiry_date, remaining_days, status,
        verification_status, verified_by_user_id, verified_at, verification_note, current_version_id,
        created_at, updated_at`

const versionColumns = `id, document_id, file_key, file_name, mime_type, size_bytes, uploaded_by_id, created_at`

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository returns a Postgres-backed implementation.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Create(ctx context.Context, d *domain.Document) error {
	const query = `
        INSERT INTO documents (staff_id, doc_type, custom_name, issue_date, expiry_date, remaining_days,
            status, verification_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.pool).QueryRow(ctx, query,
		d.StaffID, d.DocType, d.CustomName, d.IssueDate, d.ExpiryDate, d.RemainingDays,
		d.Status, d.VerificationStatus,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *documentRepository) Update(ctx context.Context, d *domain.Document) error {
	const query = `
        UPDATE documents SET custom_name=$1, issue_date=$2, expiry_date=$3, remaining_days=$4, status=$5,
            verification_status=$6, verified_by_user_id=$7, verified_at=$8, verification_note=$9,
            current_version_id=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	err := persistence.Conn(ctx, r.pool).QueryRow(ctx, query,
		d.CustomName, d.IssueDate, d.ExpiryDate, d.RemainingDays, d.Status,
		d.VerificationStatus, d.VerifiedByUserID, d.VerifiedAt, d.VerificationNote,
		d.CurrentVersionID, d.ID,
	).Scan(&d.UpdatedAt)
	return mapNoRows(err)
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id=$1`
	return scanDocument(persistence.Conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *documentRepository) GetForUpdate(ctx context.Context, id string) (*domain.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id=$1 FOR UPDATE`
	return scanDocument(persistence.Conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *documentRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.Document, error) {
	if checkID(staffID) != nil {
		return nil, nil
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE staff_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := persistence.Conn(ctx, r.pool).Query(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *documentRepository) ListWithExpiry(ctx context.Context) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE expiry_date IS NOT NULL`
	rows, err := persistence.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *documentRepository) UpdateDerivedStatus(ctx context.Context, id string, remaining *int, s *status.DocumentStatus) error {
	const query = `UPDATE documents SET remaining_days=$1, status=$2 WHERE id=$3`
	cmd, err := persistence.Conn(ctx, r.pool).Exec(ctx, query, remaining, s, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachVersion inserts the version and moves the document's current pointer and
// verification fields in the same statement batch. Callers hold the document row lock.
func (r *documentRepository) AttachVersion(ctx context.Context, d *domain.Document, v *domain.DocumentVersion) error {
	const insert = `
        INSERT INTO document_versions (document_id, file_key, file_name, mime_type, size_bytes, uploaded_by_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	conn := persistence.Conn(ctx, r.pool)
	if err := conn.QueryRow(ctx, insert,
		d.ID, v.FileKey, v.FileName, v.MimeType, v.SizeBytes, v.UploadedByID,
	).Scan(&v.ID, &v.CreatedAt); err != nil {
		if persistence.IsUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	v.DocumentID = d.ID
	d.CurrentVersionID = &v.ID
	return r.Update(ctx, d)
}

func (r *documentRepository) ListVersions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error) {
	if checkID(documentID) != nil {
		return nil, nil
	}
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE document_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := persistence.Conn(ctx, r.pool).Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DocumentVersion
	for rows.Next() {
		var v domain.DocumentVersion
		if err := rows.Scan(versionDest(&v)...); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *documentRepository) GetVersion(ctx context.Context, id string) (*domain.DocumentVersion, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE id=$1`
	var v domain.DocumentVersion
	if err := persistence.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(versionDest(&v)...); err != nil {
		return nil, mapNoRows(err)
	}
	return &v, nil
}

func (r *documentRepository) FileKeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := persistence.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM document_versions WHERE file_key=$1)`, key).Scan(&exists)
	return exists, err
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var d domain.Document
	if err := row.Scan(documentDest(&d)...); err != nil {
		return nil, mapNoRows(err)
	}
	return &d, nil
}

func scanDocuments(rows pgx.Rows) ([]domain.Document, error) {
	var result []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(documentDest(&d)...); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func documentDest(d *domain.Document) []any {
	return []any{
		&d.ID, &d.StaffID, &d.DocType, &d.CustomName, &d.IssueDate, &d.ExpiryDate, &d.RemainingDays,
		&d.Status, &d.VerificationStatus, &d.VerifiedByUserID, &d.VerifiedAt, &d.VerificationNote,
		&d.CurrentVersionID, &d.CreatedAt, &d.UpdatedAt,
	}
}

func versionDest(v *domain.DocumentVersion) []any {
	return []any{
		&v.ID, &v.DocumentID, &v.FileKey, &v.FileName, &v.MimeType, &v.SizeBytes, &v.UploadedByID, &v.CreatedAt,
	}
}
