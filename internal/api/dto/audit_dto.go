package dto

import "time"

// AuditEntryResponse is one ledger row.
type AuditEntryResponse struct {
	ID          string    `json:"id"`
	ActorUserID string    `json:"actorUserId"`
	StaffID     *string   `json:"staffId"`
	DocumentID  *string   `json:"documentId"`
	Action      string    `json:"action"`
	Field       *string   `json:"field"`
	OldValue    *string   `json:"oldValue"`
	NewValue    *string   `json:"newValue"`
	CreatedAt   time.Time `json:"createdAt"`
}
