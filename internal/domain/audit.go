package domain

import "time"

// AuditAction names a recorded mutation.
type AuditAction string

const (
	ActionStaffCreate          AuditAction = "STAFF_CREATE"
	ActionStaffUpdateField     AuditAction = "STAFF_UPDATE_FIELD"
	ActionStaffSelfUpdateField AuditAction = "STAFF_SELF_UPDATE_FIELD"
	ActionDocCreate            AuditAction = "DOC_CREATE"
	ActionDocUpdateField       AuditAction = "DOC_UPDATE_FIELD"
	ActionDocUpload            AuditAction = "DOC_UPLOAD"
	ActionDocVerify            AuditAction = "DOC_VERIFY"
	ActionUserCreate           AuditAction = "USER_CREATE"
	ActionUserUpdate           AuditAction = "USER_UPDATE"
	ActionUserResetPassword    AuditAction = "USER_RESET_PASSWORD"
	ActionUserChangePassword   AuditAction = "USER_CHANGE_PASSWORD"
)

// AuditLogEntry is an append-only record of one change.
type AuditLogEntry struct {
	ID          string
	ActorUserID string
	StaffID     *string
	DocumentID  *string
	Action      AuditAction
	Field       *string
	OldValue    *string
	NewValue    *string
	CreatedAt   time.Time
}

// AuditFilter narrows an audit query.
type AuditFilter struct {
	StaffID    *string
	DocumentID *string
	Limit      int
}
