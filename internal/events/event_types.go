package events

import (
	"time"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	AnyEvent               EventType = "*"
	EventStaffCreated      EventType = "staff_created"
	EventStaffUpdated      EventType = "staff_updated"
	EventDocumentCreated   EventType = "document_created"
	EventDocumentUploaded  EventType = "document_uploaded"
	EventDocumentVerified  EventType = "document_verified"
	EventAuditRecorded     EventType = "audit_recorded"
	EventStatusesRefreshed EventType = "statuses_refreshed"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	Type       EventType `json:"type"`
	ActorID    string    `json:"actor_id,omitempty"`
	StaffID    string    `json:"staff_id,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}

// DocumentUploadedPayload payload.
type DocumentUploadedPayload struct {
	VersionID string `json:"version_id"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// DocumentVerifiedPayload payload.
type DocumentVerifiedPayload struct {
	Previous domain.VerificationStatus `json:"previous"`
	Decision domain.VerificationStatus `json:"decision"`
}

// AuditRecordedPayload payload.
type AuditRecordedPayload struct {
	Actions []domain.AuditAction `json:"actions"`
}

// StatusesRefreshedPayload payload.
type StatusesRefreshedPayload struct {
	StaffChanged     int `json:"staff_changed"`
	DocumentsChanged int `json:"documents_changed"`
}
