package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxReportDescriptionLen = 2000

// IssueType classifies a content report.
type IssueType string

const (
	IssueIncorrectLyrics  IssueType = "incorrect_lyrics"
	IssueWrongTranslation IssueType = "wrong_translation"
	IssueDuplicate        IssueType = "duplicate"
	IssueInappropriate    IssueType = "inappropriate"
	IssueOther            IssueType = "other"
)

// Valid reports whether the issue type is supported.
func (t IssueType) Valid() bool {
	switch t {
	case IssueIncorrectLyrics, IssueWrongTranslation, IssueDuplicate, IssueInappropriate, IssueOther:
		return true
	default:
		return false
	}
}

// ReportStatus is the moderation lifecycle of a report.
type ReportStatus string

const (
	ReportStatusOpen        ReportStatus = "open"
	ReportStatusUnderReview ReportStatus = "under_review"
	ReportStatusResolved    ReportStatus = "resolved"
	ReportStatusDismissed   ReportStatus = "dismissed"
)

// Valid reports whether the status is supported.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusOpen, ReportStatusUnderReview, ReportStatusResolved, ReportStatusDismissed:
		return true
	default:
		return false
	}
}

// Report is a user-submitted problem report against a bhajan.
type Report struct {
	ID                string       `json:"id"                           db:"id"`
	BhajanID          string       `json:"bhajan_id"                    db:"bhajan_id"`
	BhajanTitle       *string      `json:"bhajan_title,omitempty"       db:"bhajan_title"`
	ReportedBy        string       `json:"reported_by"                  db:"reported_by"`
	IssueType         IssueType    `json:"issue_type"                   db:"issue_type"`
	Description       *string      `json:"description,omitempty"        db:"description"`
	Status            ReportStatus `json:"status"                       db:"status"`
	ResolvedBy        *string      `json:"resolved_by,omitempty"        db:"resolved_by"`
	ResolvedAt        *time.Time   `json:"resolved_at,omitempty"        db:"resolved_at"`
	ResolutionComment *string      `json:"resolution_comment,omitempty" db:"resolution_comment"`
	CreatedAt         time.Time    `json:"created_at"                   db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"                   db:"updated_at"`
}

// CreateReportRequest represents parameters to file a Report.
type CreateReportRequest struct {
	BhajanID    string    `json:"bhajan_id"`
	IssueType   IssueType `json:"issue_type"`
	Description *string   `json:"description,omitempty"`
}

// Validate validates CreateReportRequest.
func (r *CreateReportRequest) Validate() error {
	if strings.TrimSpace(r.BhajanID) == "" {
		return errors.New("bhajan_id is required")
	}
	r.IssueType = IssueType(strings.ToLower(strings.TrimSpace(string(r.IssueType))))
	if !r.IssueType.Valid() {
		return errors.New("invalid issue_type")
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > maxReportDescriptionLen {
		return errors.New("description cannot exceed 2000 characters")
	}
	return nil
}

// ReportStatusUpdate moves a report through moderation.
type ReportStatusUpdate struct {
	Status     ReportStatus
	ResolvedBy string
	Comment    *string
	ResolvedAt time.Time
}

// Validate checks the update targets a moderation state.
func (u ReportStatusUpdate) Validate() error {
	if !u.Status.Valid() || u.Status == ReportStatusOpen {
		return errors.New("status must be under_review, resolved or dismissed")
	}
	if strings.TrimSpace(u.ResolvedBy) == "" {
		return errors.New("resolved_by is required")
	}
	return nil
}

// ReportListOptions controls filtering and paging for report listings.
type ReportListOptions struct {
	Status     *ReportStatus `json:"status,omitempty"`
	BhajanID   *string       `json:"bhajan_id,omitempty"`
	ReportedBy *string       `json:"reported_by,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	Offset     int           `json:"offset,omitempty"`
}

// Normalize applies defaults and validates the options in place.
func (o *ReportListOptions) Normalize() error {
	if o.Status != nil && !o.Status.Valid() {
		return errors.New("invalid status")
	}
	o.Limit, o.Offset = clampPage(o.Limit, o.Offset)
	return nil
}

// ReportStats counts reports per status.
type ReportStats struct {
	Total       int64 `json:"total"        db:"total"`
	Open        int64 `json:"open"         db:"open"`
	UnderReview int64 `json:"under_review" db:"under_review"`
	Resolved    int64 `json:"resolved"     db:"resolved"`
	Dismissed   int64 `json:"dismissed"    db:"dismissed"`
}
