package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus captures the review lifecycle of a deposit record.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "PENDING"
	StatusReceived SubmissionStatus = "RECEIVED"
	StatusRejected SubmissionStatus = "REJECTED"
)

// Valid reports whether the value is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReceived, StatusRejected:
		return true
	}
	return false
}

// BookItem describes one electronic literature entry inside a submission.
// It has no identity of its own; the submission owns the ordered list.
type BookItem struct {
	Title         string `json:"title" validate:"required"`
	Type          string `json:"type" validate:"required"`
	Authors       string `json:"authors" validate:"required"`
	ISBN          string `json:"isbn,omitempty"`
	Quantity      int    `json:"quantity" validate:"gte=1"`
	PublishedYear int    `json:"publishedYear"`
}

// BookList stores the ordered book sequence as a single JSONB column so a
// fetch returns exactly what was written, in the same order.
type BookList []BookItem

// Value implements driver.Valuer.
func (b BookList) Value() (driver.Value, error) {
	if b == nil {
		b = BookList{}
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner.
func (b *BookList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*b = BookList{}
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported books column type %T", src)
	}
}

// BookSubmission is the aggregate root, one addressable record per deposit.
//
// SubmittedAt is set server-side exactly once at creation and is the
// authoritative entry timestamp. SubmissionDate is whatever the submitter
// typed, unvalidated, used only for certificate dating. ReceivedAt is
// present if and only if Status is RECEIVED.
type BookSubmission struct {
	ID             string           `db:"id" json:"id"`
	FullName       string           `db:"full_name" json:"fullName"`
	Institution    string           `db:"institution" json:"institution"`
	Department     string           `db:"department" json:"department"`
	Position       string           `db:"position" json:"position"`
	IsExternal     bool             `db:"is_external" json:"isExternal"`
	SubmissionDate string           `db:"submission_date" json:"submissionDate"`
	Books          BookList         `db:"books" json:"books"`
	Status         SubmissionStatus `db:"status" json:"status"`
	SubmittedAt    time.Time        `db:"submitted_at" json:"submittedAt"`
	ReceivedAt     *time.Time       `db:"received_at" json:"receivedAt,omitempty"`
}

// Period names the admin dashboard time windows, measured against SubmittedAt.
type Period string

const (
	PeriodAll     Period = "all"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Valid reports whether the period is one of the supported windows.
func (p Period) Valid() bool {
	switch p {
	case PeriodAll, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// SubmissionFilter constrains listing queries. From/Until are derived from
// a Period by the service; the repository only understands time bounds.
type SubmissionFilter struct {
	Status   []SubmissionStatus
	Search   string
	From     *time.Time
	Until    *time.Time
	Page     int
	PageSize int
}

// StatusCounts aggregates submissions per lifecycle stage.
type StatusCounts struct {
	Pending  int `db:"pending" json:"pending"`
	Received int `db:"received" json:"received"`
	Rejected int `db:"rejected" json:"rejected"`
	Total    int `db:"total" json:"total"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
