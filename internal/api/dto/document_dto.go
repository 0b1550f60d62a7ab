package dto

import "time"

// DocumentCreateRequest payload for POST /api/docs/:staffId.
type DocumentCreateRequest struct {
	DocType    string  `json:"docType" validate:"required"`
	CustomName *string `json:"customName"`
	IssueDate  *string `json:"issueDate"`
	ExpiryDate *string `json:"expiryDate"`
}

// DocumentUpdateRequest payload for PATCH /api/docs/:documentId. An empty date clears it.
type DocumentUpdateRequest struct {
	CustomName *string `json:"customName"`
	IssueDate  *string `json:"issueDate"`
	ExpiryDate *string `json:"expiryDate"`
}

// VerifyRequest payload for POST /api/docs/:documentId/verify.
type VerifyRequest struct {
	Status string  `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Note   *string `json:"note" validate:"omitempty,max=1000"`
}

// DocumentResponse is a document with derived status.
type DocumentResponse struct {
	ID                 string     `json:"id"`
	StaffID            string     `json:"staffId"`
	DocType            string     `json:"docType"`
	CustomName         *string    `json:"customName"`
	IssueDate          *string    `json:"issueDate"`
	ExpiryDate         *string    `json:"expiryDate"`
	RemainingDays      *int       `json:"remainingDays"`
	Status             *string    `json:"status"`
	VerificationStatus string     `json:"verificationStatus"`
	VerifiedByUserID   *string    `json:"verifiedByUserId"`
	VerifiedAt         *time.Time `json:"verifiedAt"`
	VerificationNote   *string    `json:"verificationNote"`
	CurrentVersionID   *string    `json:"currentVersionId"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// VersionResponse is one stored upload.
type VersionResponse struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"documentId"`
	FileKey      string    `json:"fileKey"`
	FileName     string    `json:"fileName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	UploadedByID string    `json:"uploadedById"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Document DocumentResponse `json:"document"`
	Version  VersionResponse  `json:"version"`
}

// SignedURLResponse carries a short-lived download link.
type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
