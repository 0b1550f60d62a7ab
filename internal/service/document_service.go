package service

import (
	"context"
	"errors"
	"mime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/audit"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/storage"
	"github.com/KLAI0I/icu-nurse-dashboard/pkg/util/errorutil"
)

// DocumentService manages credential documents, their versions and verification.
type DocumentService struct {
	Core
	docs         repository.DocumentRepository
	staff        repository.StaffRepository
	storage      storage.Driver
	scanner      storage.Scanner
	maxFileBytes int64
	allowedTypes map[string]struct{}
	signedURLTTL time.Duration
}

// DocumentDependencies bundles collaborators for the document service.
type DocumentDependencies struct {
	DocumentRepo repository.DocumentRepository
	StaffRepo    repository.StaffRepository
	Storage      storage.Driver
	Scanner      storage.Scanner
	MaxFileBytes int64
	AllowedTypes []string
	SignedURLTTL time.Duration
}

// DocumentCreateInput describes a new document.
type DocumentCreateInput struct {
	DocType    domain.DocType
	CustomName *string
	IssueDate  *time.Time
	ExpiryDate *time.Time
}

// DocumentPatch edits a document's name and dates. Clear flags remove a date.
type DocumentPatch struct {
	CustomName      *string
	IssueDate       *time.Time
	ExpiryDate      *time.Time
	ClearIssueDate  bool
	ClearExpiryDate bool
}

// FileUpload is one received file.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        []byte
}

// UploadResult is the document after an upload together with the new version.
type UploadResult struct {
	Document *domain.Document
	Version  *domain.DocumentVersion
}

// SignedURL is a time-limited download link for a document's current version.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// NewDocumentService constructs the service.
func NewDocumentService(core Core, deps DocumentDependencies) *DocumentService {
	allowed := make(map[string]struct{}, len(deps.AllowedTypes))
	for _, t := range deps.AllowedTypes {
		allowed[strings.ToLower(t)] = struct{}{}
	}
	scanner := deps.Scanner
	if scanner == nil {
		scanner = storage.NopScanner{}
	}
	return &DocumentService{
		Core:         core,
		docs:         deps.DocumentRepo,
		staff:        deps.StaffRepo,
		storage:      deps.Storage,
		scanner:      scanner,
		maxFileBytes: deps.MaxFileBytes,
		allowedTypes: allowed,
		signedURLTTL: deps.SignedURLTTL,
	}
}

// Create adds a document to a staff record.
func (s *DocumentService) Create(ctx context.Context, p *domain.Principal, staffID string, in DocumentCreateInput) (*domain.Document, error) {
	if err := s.Policy.CanAccessDocument(p, staffID); err != nil {
		return nil, err
	}
	if !in.DocType.Valid() {
		return nil, errorutil.NewValidationError("invalid document type", map[string]any{"doc_type": in.DocType})
	}

	doc := &domain.Document{
		StaffID:            staffID,
		DocType:            in.DocType,
		IssueDate:          s.day(in.IssueDate),
		ExpiryDate:         s.day(in.ExpiryDate),
		VerificationStatus: domain.VerificationPending,
	}
	if in.DocType == domain.DocTypeOthers {
		if in.CustomName == nil || strings.TrimSpace(*in.CustomName) == "" {
			return nil, errorutil.NewValidationError("custom_name is required for OTHERS documents",
				map[string]any{"custom_name": "required"})
		}
		doc.CustomName = strPtr(strings.TrimSpace(*in.CustomName))
	}
	if err := checkDates(doc); err != nil {
		return nil, err
	}
	doc.RefreshStatus(s.Calendar, s.now())

	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.staff.GetByID(ctx, staffID); err != nil {
			return mapRepoErr(err, "staff")
		}
		if err := s.docs.Create(ctx, doc); err != nil {
			return mapRepoErr(err, "document")
		}
		_, err := s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID:    &doc.StaffID,
			DocumentID: &doc.ID,
			Action:     domain.ActionDocCreate,
			New:        doc.DocType,
		})
		return err
	})
	if err != nil {
		return nil, mapRepoErr(err, "document")
	}

	s.publish(ctx, events.Event{Type: events.EventDocumentCreated, ActorID: p.UserID, StaffID: staffID, DocumentID: doc.ID})
	s.publish(ctx, auditEvent(p.UserID, domain.ActionDocCreate))
	return doc, nil
}

// Get returns one document with fresh derived status.
func (s *DocumentService) Get(ctx context.Context, p *domain.Principal, id string) (*domain.Document, error) {
	doc, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	doc.RefreshStatus(s.Calendar, s.now())
	return doc, nil
}

// ListForStaff returns a staff member's documents in creation order.
func (s *DocumentService) ListForStaff(ctx context.Context, p *domain.Principal, staffID string) ([]domain.Document, error) {
	if err := s.Policy.CanAccessDocument(p, staffID); err != nil {
		return nil, err
	}
	if _, err := s.staff.GetByID(ctx, staffID); err != nil {
		return nil, mapRepoErr(err, "staff")
	}
	docs, err := s.docs.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, mapRepoErr(err, "documents")
	}
	now := s.now()
	for i := range docs {
		docs[i].RefreshStatus(s.Calendar, now)
	}
	return docs, nil
}

// UpdateDates edits the custom name and dates, recording one entry per changed field.
func (s *DocumentService) UpdateDates(ctx context.Context, p *domain.Principal, id string, patch DocumentPatch) (*domain.Document, error) {
	if p == nil {
		return nil, s.Policy.CanAccessDocument(nil, "")
	}

	var (
		after   domain.Document
		changes []audit.FieldChange
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		before, err := s.docs.GetForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err, "document")
		}
		if err := s.Policy.CanAccessDocument(p, before.StaffID); err != nil {
			return err
		}

		after = *before
		if patch.CustomName != nil {
			if after.DocType != domain.DocTypeOthers {
				return errorutil.NewValidationError("custom_name only applies to OTHERS documents",
					map[string]any{"custom_name": "not allowed"})
			}
			if strings.TrimSpace(*patch.CustomName) == "" {
				return errorutil.NewValidationError("custom_name is required for OTHERS documents",
					map[string]any{"custom_name": "required"})
			}
			after.CustomName = strPtr(strings.TrimSpace(*patch.CustomName))
		}
		switch {
		case patch.ClearIssueDate:
			after.IssueDate = nil
		case patch.IssueDate != nil:
			after.IssueDate = s.day(patch.IssueDate)
		}
		switch {
		case patch.ClearExpiryDate:
			after.ExpiryDate = nil
		case patch.ExpiryDate != nil:
			after.ExpiryDate = s.day(patch.ExpiryDate)
		}
		if err := checkDates(&after); err != nil {
			return err
		}
		after.RefreshStatus(s.Calendar, s.now())

		changes = audit.DiffDocument(before, &after)
		if len(changes) == 0 {
			return nil
		}
		if err := s.docs.Update(ctx, &after); err != nil {
			return mapRepoErr(err, "document")
		}
		return s.Ledger.RecordChanges(ctx, p.UserID, domain.ActionDocUpdateField, &after.StaffID, &after.ID, changes)
	})
	if err != nil {
		return nil, mapRepoErr(err, "document")
	}
	if len(changes) > 0 {
		s.publish(ctx, auditEvent(p.UserID, repeatAction(domain.ActionDocUpdateField, len(changes))...))
	}
	return &after, nil
}

// AddVersion stores an uploaded file and makes it the document's current version.
// Verification returns to PENDING. Nothing is written to the database when the
// checks or the storage write fail.
func (s *DocumentService) AddVersion(ctx context.Context, p *domain.Principal, id string, file FileUpload) (*UploadResult, error) {
	doc, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}

	contentType, err := s.checkFile(ctx, &file)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := storage.DocumentKey(doc.StaffID, doc.ID, now, file.Name)
	exists, err := s.docs.FileKeyExists(ctx, key)
	if err != nil {
		return nil, mapRepoErr(err, "document version")
	}
	if exists {
		key = storage.WithCollisionSuffix(key)
	}

	_, err = s.storage.PutPrivate(ctx, key, contentType, file.Body)
	if errors.Is(err, storage.ErrExists) {
		// The key was taken after the existence check.
		key = storage.WithCollisionSuffix(key)
		_, err = s.storage.PutPrivate(ctx, key, contentType, file.Body)
	}
	if err != nil {
		s.logger().Error("storage write failed", zap.String("document_id", doc.ID), zap.String("key", key), zap.Error(err))
		return nil, errorutil.NewStorageFailure(err)
	}

	version := &domain.DocumentVersion{
		FileKey:      key,
		FileName:     file.Name,
		MimeType:     contentType,
		SizeBytes:    file.Size,
		UploadedByID: p.UserID,
	}
	var updated *domain.Document
	err = s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.docs.GetForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err, "document")
		}
		locked.ResetVerification()
		locked.RefreshStatus(s.Calendar, now)
		if err := s.docs.AttachVersion(ctx, locked, version); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return errorutil.NewConflict("file key already exists", map[string]any{"file_key": key})
			}
			return mapRepoErr(err, "document")
		}
		if _, err := s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID:    &locked.StaffID,
			DocumentID: &locked.ID,
			Action:     domain.ActionDocUpload,
			New:        version.FileKey,
		}); err != nil {
			return err
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, "document")
	}

	s.publish(ctx, events.Event{
		Type:       events.EventDocumentUploaded,
		ActorID:    p.UserID,
		StaffID:    updated.StaffID,
		DocumentID: updated.ID,
		Payload:    events.DocumentUploadedPayload{VersionID: version.ID, MimeType: version.MimeType, SizeBytes: version.SizeBytes},
	})
	s.publish(ctx, auditEvent(p.UserID, domain.ActionDocUpload))
	return &UploadResult{Document: updated, Version: version}, nil
}

// checkFile validates kind, size and scanner verdict and returns the normalized content type.
func (s *DocumentService) checkFile(ctx context.Context, file *FileUpload) (string, error) {
	contentType := normalizeContentType(file.ContentType)
	if _, ok := s.allowedTypes[contentType]; !ok {
		return "", errorutil.NewInvalidFileKind(file.ContentType)
	}
	if file.Size <= 0 {
		file.Size = int64(len(file.Body))
	}
	if s.maxFileBytes > 0 && file.Size > s.maxFileBytes {
		return "", errorutil.NewFileTooLarge(file.Size, s.maxFileBytes)
	}
	if file.Size == 0 || len(file.Body) == 0 {
		return "", errorutil.NewValidationError("file is empty", map[string]any{"file": "required"})
	}
	if strings.TrimSpace(file.Name) == "" {
		file.Name = "file"
	}
	if err := s.scanner.Scan(ctx, file.Name, contentType, file.Body); err != nil {
		return "", errorutil.NewValidationError("file rejected by scanner", map[string]any{"file": err.Error()})
	}
	return contentType, nil
}

// ListVersions returns every version in upload order.
func (s *DocumentService) ListVersions(ctx context.Context, p *domain.Principal, id string) ([]domain.DocumentVersion, error) {
	if _, err := s.load(ctx, p, id); err != nil {
		return nil, err
	}
	versions, err := s.docs.ListVersions(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "document versions")
	}
	return versions, nil
}

// SignedURL returns a short-lived link to the current version only.
func (s *DocumentService) SignedURL(ctx context.Context, p *domain.Principal, id string) (*SignedURL, error) {
	doc, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if doc.CurrentVersionID == nil {
		return nil, errorutil.NewNotFound("document version", map[string]any{"document_id": id})
	}
	version, err := s.docs.GetVersion(ctx, *doc.CurrentVersionID)
	if err != nil {
		return nil, mapRepoErr(err, "document version")
	}
	url, err := s.storage.SignedGetURL(ctx, version.FileKey, s.signedURLTTL)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errorutil.NewNotFound("stored file", map[string]any{"document_id": id})
		}
		return nil, errorutil.NewStorageFailure(err)
	}
	return &SignedURL{URL: url, ExpiresAt: s.now().Add(s.signedURLTTL)}, nil
}

// Verify records an admin decision. Any state may be re-decided.
func (s *DocumentService) Verify(ctx context.Context, p *domain.Principal, id string, decision domain.VerificationStatus, note *string) (*domain.Document, error) {
	if err := s.Policy.CanVerify(p); err != nil {
		return nil, err
	}
	if !decision.IsDecision() {
		return nil, errorutil.NewValidationError("decision must be APPROVED or REJECTED",
			map[string]any{"status": decision})
	}
	if note != nil && strings.TrimSpace(*note) == "" {
		note = nil
	}

	var (
		doc      *domain.Document
		previous domain.VerificationStatus
	)
	err := s.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.docs.GetForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err, "document")
		}
		previous = doc.VerificationStatus
		doc.RecordDecision(decision, p.UserID, s.now(), note)
		doc.RefreshStatus(s.Calendar, s.now())
		if err := s.docs.Update(ctx, doc); err != nil {
			return mapRepoErr(err, "document")
		}
		_, err = s.Ledger.Record(ctx, p.UserID, audit.Entry{
			StaffID:    &doc.StaffID,
			DocumentID: &doc.ID,
			Action:     domain.ActionDocVerify,
			Old:        previous,
			New:        decision,
		})
		return err
	})
	if err != nil {
		return nil, mapRepoErr(err, "document")
	}

	s.publish(ctx, events.Event{
		Type:       events.EventDocumentVerified,
		ActorID:    p.UserID,
		StaffID:    doc.StaffID,
		DocumentID: doc.ID,
		Payload:    events.DocumentVerifiedPayload{Previous: previous, Decision: decision},
	})
	s.publish(ctx, auditEvent(p.UserID, domain.ActionDocVerify))
	return doc, nil
}

// RefreshStatuses recomputes persisted remaining days and status for documents with an expiry.
func (s *DocumentService) RefreshStatuses(ctx context.Context) (int, error) {
	docs, err := s.docs.ListWithExpiry(ctx)
	if err != nil {
		return 0, mapRepoErr(err, "documents")
	}
	now := s.now()
	changed := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		if !docs[i].RefreshStatus(s.Calendar, now) {
			continue
		}
		if err := s.docs.UpdateDerivedStatus(ctx, docs[i].ID, docs[i].RemainingDays, docs[i].Status); err != nil {
			s.logger().Warn("refresh document status failed", zap.String("document_id", docs[i].ID), zap.Error(err))
			continue
		}
		changed++
	}
	return changed, nil
}

// load fetches a document and checks the caller may access it.
func (s *DocumentService) load(ctx context.Context, p *domain.Principal, id string) (*domain.Document, error) {
	if p == nil {
		return nil, s.Policy.CanAccessDocument(nil, "")
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "document")
	}
	if err := s.Policy.CanAccessDocument(p, doc.StaffID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) day(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := s.Calendar.StartOfDay(*t)
	return &d
}

func checkDates(doc *domain.Document) error {
	if doc.HasRequiredDates() {
		return nil
	}
	details := map[string]any{}
	if doc.IssueDate == nil {
		details[domain.FieldIssueDate] = "required"
	}
	if doc.ExpiryDate == nil {
		details[domain.FieldExpiryDate] = "required"
	}
	return errorutil.NewValidationError("issue and expiry dates are required for "+string(doc.DocType), details)
}

func normalizeContentType(v string) string {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return strings.ToLower(mediaType)
}
