package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("repository: conflict")
)

// StaffFilter narrows a staff listing. Empty strings are ignored.
type StaffFilter struct {
	Query          string
	Area           string
	Post           string
	Gender         string
	Nationality    string
	ContractStatus string
	Limit          int
	Offset         int
}

// StaffRepository persists staff records.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.Staff) error
	Update(ctx context.Context, staff *domain.Staff) error
	GetByID(ctx context.Context, id string) (*domain.Staff, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Staff, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.Staff, int, error)
	ListAllByName(ctx context.Context) ([]domain.Staff, error)
	UpdateContractStatus(ctx context.Context, id string, s status.ContractStatus) error
}

// DocumentRepository persists documents and their immutable versions.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	Update(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Document, error)
	ListByStaff(ctx context.Context, staffID string) ([]domain.Document, error)
	ListWithExpiry(ctx context.Context) ([]domain.Document, error)
	UpdateDerivedStatus(ctx context.Context, id string, remaining *int, s *status.DocumentStatus) error
	AttachVersion(ctx context.Context, doc *domain.Document, version *domain.DocumentVersion) error
	ListVersions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error)
	GetVersion(ctx context.Context, id string) (*domain.DocumentVersion, error)
	FileKeyExists(ctx context.Context, key string) (bool, error)
}

// AuditRepository appends and reads audit entries.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditLogEntry, error)
}

// UserRepository persists login accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// SessionStore tracks live refresh tokens by token id.
type SessionStore interface {
	Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, tokenID string) (string, error)
	Delete(ctx context.Context, tokenID string) error
}

// checkID rejects ids that cannot name a row before they reach a uuid column.
func checkID(id string) error {
	if uuid.Validate(id) != nil {
		return ErrNotFound
	}
	return nil
}

// pgInvalidText is SQLSTATE 22P02, raised when an id is not a valid uuid.
const pgInvalidText = "22P02"

// mapNoRows turns missing rows into ErrNotFound. A malformed id can never match a
// row, so it is reported the same way.
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidText {
		return ErrNotFound
	}
	return err
}
