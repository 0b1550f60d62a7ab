package domain

import (
	"time"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/status"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
)

// DocType enumerates the credential document kinds.
type DocType string

const (
	DocTypeIqama                   DocType = "IQAMA"
	DocTypePassport                DocType = "PASSPORT"
	DocTypeMOHLicense              DocType = "MOH_LICENSE"
	DocTypeCertificateOfGraduation DocType = "CERTIFICATE_OF_GRADUATION"
	DocTypeDataFlow                DocType = "DATA_FLOW"
	DocTypeSCFHS                   DocType = "SCFHS"
	DocTypeBLS                     DocType = "BLS"
	DocTypeACLS                    DocType = "ACLS"
	DocTypeConsciousSedation       DocType = "CONSCIOUS_SEDATION"
	DocTypeOthers                  DocType = "OTHERS"
)

// DocTypes lists every document kind.
var DocTypes = []DocType{
	DocTypeIqama, DocTypePassport, DocTypeMOHLicense, DocTypeCertificateOfGraduation,
	DocTypeDataFlow, DocTypeSCFHS, DocTypeBLS, DocTypeACLS, DocTypeConsciousSedation,
	DocTypeOthers,
}

// Valid reports whether t is a known document kind.
func (t DocType) Valid() bool {
	for _, known := range DocTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MustHaveDates reports whether the kind requires both issue and expiry dates.
func (t DocType) MustHaveDates() bool {
	switch t {
	case DocTypeIqama, DocTypePassport, DocTypeMOHLicense, DocTypeBLS, DocTypeACLS, DocTypeConsciousSedation:
		return true
	}
	return false
}

// VerificationStatus is the review state of a document's current upload.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// IsDecision reports whether v is a reviewer outcome.
func (v VerificationStatus) IsDecision() bool {
	return v == VerificationApproved || v == VerificationRejected
}

// Document is a credential record owned by a staff member.
type Document struct {
	ID                 string
	StaffID            string
	DocType            DocType
	CustomName         *string
	IssueDate          *time.Time
	ExpiryDate         *time.Time
	RemainingDays      *int
	Status             *status.DocumentStatus
	VerificationStatus VerificationStatus
	VerifiedByUserID   *string
	VerifiedAt         *time.Time
	VerificationNote   *string
	CurrentVersionID   *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Document field names used in audit entries.
const (
	FieldDocType    = "doc_type"
	FieldCustomName = "custom_name"
	FieldIssueDate  = "issue_date"
	FieldExpiryDate = "expiry_date"
)

// HasRequiredDates reports whether the document satisfies its kind's date rule.
func (d *Document) HasRequiredDates() bool {
	if !d.DocType.MustHaveDates() {
		return true
	}
	return d.IssueDate != nil && d.ExpiryDate != nil
}

// RefreshStatus recomputes remaining days and status from the expiry date. It reports
// whether either derived value changed.
func (d *Document) RefreshStatus(cal temporal.Calendar, now time.Time) bool {
	var rem *int
	if d.ExpiryDate != nil {
		n := cal.RemainingDays(now, *d.ExpiryDate)
		rem = &n
	}
	next := status.Document(rem)
	changed := !equalIntPtr(d.RemainingDays, rem) || !equalStatusPtr(d.Status, next)
	d.RemainingDays = rem
	d.Status = next
	return changed
}

// ResetVerification puts the document back into review after a new upload.
func (d *Document) ResetVerification() {
	d.VerificationStatus = VerificationPending
	d.VerifiedByUserID = nil
	d.VerifiedAt = nil
	d.VerificationNote = nil
}

// RecordDecision stores a reviewer outcome. Any state may be re-decided.
func (d *Document) RecordDecision(decision VerificationStatus, verifierID string, at time.Time, note *string) {
	d.VerificationStatus = decision
	d.VerifiedByUserID = &verifierID
	d.VerifiedAt = &at
	d.VerificationNote = note
}

// DocumentVersion is one immutable uploaded file of a document.
type DocumentVersion struct {
	ID           string
	DocumentID   string
	FileKey      string
	FileName     string
	MimeType     string
	SizeBytes    int64
	UploadedByID string
	CreatedAt    time.Time
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStatusPtr(a, b *status.DocumentStatus) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
