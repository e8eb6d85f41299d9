//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLen = 255
	// DefaultListLimit applies when a list request does not set a limit.
	DefaultListLimit = 50
	// MaxListLimit caps any list request.
	MaxListLimit = 200
)

// BhajanStatus is the review lifecycle of a bhajan.
type BhajanStatus string

const (
	BhajanStatusDraft         BhajanStatus = "draft"
	BhajanStatusPendingReview BhajanStatus = "pending_review"
	BhajanStatusApproved      BhajanStatus = "approved"
	BhajanStatusRejected      BhajanStatus = "rejected"
)

// Valid reports whether the status is supported.
func (s BhajanStatus) Valid() bool {
	switch s {
	case BhajanStatusDraft, BhajanStatusPendingReview, BhajanStatusApproved, BhajanStatusRejected:
		return true
	default:
		return false
	}
}

// authorSettable reports whether an editor may set this status directly (without review).
func (s BhajanStatus) authorSettable() bool {
	return s == BhajanStatusDraft || s == BhajanStatusPendingReview
}

// Bhajan is one devotional song with its scripts and review metadata.
type Bhajan struct {
	ID               string       `json:"id"                          db:"id"`
	Title            string       `json:"title"                       db:"title"`
	TitleKannada     *string      `json:"title_kannada,omitempty"     db:"title_kannada"`
	TitleDevanagari  *string      `json:"title_devanagari,omitempty"  db:"title_devanagari"`
	Lyrics           string       `json:"lyrics"                      db:"lyrics"`
	LyricsKannada    *string      `json:"lyrics_kannada,omitempty"    db:"lyrics_kannada"`
	LyricsDevanagari *string      `json:"lyrics_devanagari,omitempty" db:"lyrics_devanagari"`
	Meaning          *string      `json:"meaning,omitempty"           db:"meaning"`
	Description      *string      `json:"description,omitempty"       db:"description"`
	Status           BhajanStatus `json:"status"                      db:"status"`
	CreatedBy        string       `json:"created_by"                  db:"created_by"`
	ReviewedBy       *string      `json:"reviewed_by,omitempty"       db:"reviewed_by"`
	ReviewedAt       *time.Time   `json:"reviewed_at,omitempty"       db:"reviewed_at"`
	ReviewComment    *string      `json:"review_comment,omitempty"    db:"review_comment"`
	ViewCount        int64        `json:"view_count"                  db:"view_count"`
	CreatedAt        time.Time    `json:"created_at"                  db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"                  db:"updated_at"`
	Tags             []string     `json:"tags,omitempty"              db:"-"`
}

// BhajanListOptions controls filtering, sorting and paging for bhajan listings.
// Notes:
// - Search matches every title and lyrics script plus description via ILIKE substring.
// - Tags matches bhajans carrying any of the given tag names.
// - SortBy supports: "created_at", "updated_at", "title", "view_count".
// - SortOrder supports: "asc", "desc" (case-insensitive).
type BhajanListOptions struct {
	Status    *BhajanStatus `json:"status,omitempty"`
	Search    *string       `json:"search,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	CreatedBy *string       `json:"created_by,omitempty"`
	SortBy    string        `json:"sort_by,omitempty"`
	SortOrder string        `json:"sort_order,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
}

var bhajanSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"view_count": true,
}

// Normalize applies defaults and validates the options in place.
func (o *BhajanListOptions) Normalize() error {
	o.SortBy = strings.ToLower(strings.TrimSpace(o.SortBy))
	if o.SortBy == "" {
		o.SortBy = "created_at"
	}
	if !bhajanSortColumns[o.SortBy] {
		return errors.New("invalid sort_by")
	}
	o.SortOrder = strings.ToLower(strings.TrimSpace(o.SortOrder))
	if o.SortOrder == "" {
		o.SortOrder = "desc"
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		return errors.New("invalid sort_order")
	}
	if o.Status != nil && !o.Status.Valid() {
		return errors.New("invalid status")
	}
	if o.Search != nil && strings.TrimSpace(*o.Search) == "" {
		o.Search = nil
	}
	o.Tags = NormalizeTagNames(o.Tags)
	o.Limit, o.Offset = clampPage(o.Limit, o.Offset)
	return nil
}

// CreateBhajanRequest represents parameters to create a Bhajan.
type CreateBhajanRequest struct {
	Title            string       `json:"title"`
	TitleKannada     *string      `json:"title_kannada,omitempty"`
	TitleDevanagari  *string      `json:"title_devanagari,omitempty"`
	Lyrics           string       `json:"lyrics"`
	LyricsKannada    *string      `json:"lyrics_kannada,omitempty"`
	LyricsDevanagari *string      `json:"lyrics_devanagari,omitempty"`
	Meaning          *string      `json:"meaning,omitempty"`
	Description      *string      `json:"description,omitempty"`
	Status           BhajanStatus `json:"status,omitempty"`
	Tags             []string     `json:"tags,omitempty"`
}

// Validate validates CreateBhajanRequest and normalizes status and tags.
func (r *CreateBhajanRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Title) > maxTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	if strings.TrimSpace(r.Lyrics) == "" {
		return errors.New("lyrics are required")
	}
	if r.Status == "" {
		r.Status = BhajanStatusDraft
	}
	if !r.Status.authorSettable() {
		return errors.New("status must be draft or pending_review")
	}
	r.Tags = NormalizeTagNames(r.Tags)
	return nil
}

// UpdateBhajanRequest represents parameters to update a Bhajan.
type UpdateBhajanRequest struct {
	Title            *string       `json:"title,omitempty"`
	TitleKannada     *string       `json:"title_kannada,omitempty"`
	TitleDevanagari  *string       `json:"title_devanagari,omitempty"`
	Lyrics           *string       `json:"lyrics,omitempty"`
	LyricsKannada    *string       `json:"lyrics_kannada,omitempty"`
	LyricsDevanagari *string       `json:"lyrics_devanagari,omitempty"`
	Meaning          *string       `json:"meaning,omitempty"`
	Description      *string       `json:"description,omitempty"`
	Status           *BhajanStatus `json:"status,omitempty"`
}

// HasUpdates reports whether any field is set in UpdateBhajanRequest.
func (r *UpdateBhajanRequest) HasUpdates() bool {
	return len(r.Changes()) > 0
}

// Validate validates UpdateBhajanRequest, ensuring at least one field is set and values are sane.
func (r *UpdateBhajanRequest) Validate() error {
	if !r.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			return errors.New("title cannot be empty")
		}
		if utf8.RuneCountInString(t) > maxTitleLen {
			return errors.New("title cannot exceed 255 characters")
		}
		r.Title = &t
	}
	if r.Lyrics != nil && strings.TrimSpace(*r.Lyrics) == "" {
		return errors.New("lyrics cannot be empty")
	}
	if r.Status != nil && !r.Status.authorSettable() {
		return errors.New("status must be draft or pending_review")
	}
	return nil
}

// Changes returns the set fields keyed by column name. It doubles as the audit payload.
func (r *UpdateBhajanRequest) Changes() map[string]any {
	out := make(map[string]any)
	put := func(col string, v *string) {
		if v != nil {
			out[col] = *v
		}
	}
	put("title", r.Title)
	put("title_kannada", r.TitleKannada)
	put("title_devanagari", r.TitleDevanagari)
	put("lyrics", r.Lyrics)
	put("lyrics_kannada", r.LyricsKannada)
	put("lyrics_devanagari", r.LyricsDevanagari)
	put("meaning", r.Meaning)
	put("description", r.Description)
	if r.Status != nil {
		out["status"] = string(*r.Status)
	}
	return out
}

// ReviewDecision records an admin's approval or rejection.
type ReviewDecision struct {
	Status     BhajanStatus
	ReviewedBy string
	Comment    string
	ReviewedAt time.Time
}

// Validate checks the decision is a terminal review outcome.
func (d ReviewDecision) Validate() error {
	if d.Status != BhajanStatusApproved && d.Status != BhajanStatusRejected {
		return errors.New("review status must be approved or rejected")
	}
	if strings.TrimSpace(d.ReviewedBy) == "" {
		return errors.New("reviewed_by is required")
	}
	return nil
}

// clampPage applies the default and maximum list limits.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
