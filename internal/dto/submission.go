package dto

import (
	"github.com/jizzpi-arm/book-deposit-api/internal/models"
)

// CreateSubmissionRequest is the staff form payload. The id, status and
// submittedAt fields are never accepted from the client; the store assigns
// them.
type CreateSubmissionRequest struct {
	FullName       string            `json:"fullName" validate:"required"`
	Institution    string            `json:"institution" validate:"required"`
	Department     string            `json:"department" validate:"required"`
	Position       string            `json:"position" validate:"required"`
	IsExternal     bool              `json:"isExternal"`
	SubmissionDate string            `json:"submissionDate"`
	Books          []models.BookItem `json:"books" validate:"required,min=1,dive"`
}

// UpdateStatusRequest carries the reviewer decision.
type UpdateStatusRequest struct {
	Status models.SubmissionStatus `json:"status" validate:"required"`
}

// SubmissionQuery mirrors the admin dashboard filters.
type SubmissionQuery struct {
	Period models.Period
	Status []models.SubmissionStatus
	Search string
	Page   int
	Limit  int
}

// VerificationResult is the payload behind the authenticity card. When the
// identifier does not resolve, Verified is false and Submission is nil.
type VerificationResult struct {
	Verified   bool                   `json:"verified"`
	Submission *models.BookSubmission `json:"submission,omitempty"`
	BookCount  int                    `json:"bookCount"`
}

// DocumentLinks returns the signed download URLs for an accepted
// submission's printable certificates.
type DocumentLinks struct {
	Reference string `json:"reference"`
	Consent   string `json:"consent"`
	ExpiresAt int64  `json:"expires_at"`
}
