package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuditAction tags a privileged mutation.
type AuditAction string

const (
	AuditCreate          AuditAction = "create"
	AuditUpdate          AuditAction = "update"
	AuditDelete          AuditAction = "delete"
	AuditApprove         AuditAction = "approve"
	AuditReject          AuditAction = "reject"
	AuditCreateReport    AuditAction = "create_report"
	AuditMarkUnderReview AuditAction = "mark_under_review"
	AuditResolveReport   AuditAction = "resolve_report"
	AuditDismissReport   AuditAction = "dismiss_report"
	AuditRoleChange      AuditAction = "role_change"
	AuditAddTag          AuditAction = "add_tag"
	AuditRemoveTag       AuditAction = "remove_tag"
	AuditUpdateTags      AuditAction = "update_tags"
)

// Entity types recorded in the audit log.
const (
	EntityBhajan      = "bhajan"
	EntityReport      = "report"
	EntityUserProfile = "user_profile"
	EntityTag         = "tag"
)

// AuditEntry is an immutable record of a privileged action. CreatedAt is assigned by the database.
type AuditEntry struct {
	ID         string          `json:"id"                   db:"id"`
	UserID     string          `json:"user_id"              db:"user_id"`
	UserEmail  *string         `json:"user_email,omitempty" db:"user_email"`
	Action     AuditAction     `json:"action"               db:"action"`
	EntityType string          `json:"entity_type"          db:"entity_type"`
	EntityID   string          `json:"entity_id"            db:"entity_id"`
	Changes    json.RawMessage `json:"changes"              db:"changes"`
	CreatedAt  time.Time       `json:"created_at"           db:"created_at"`
}

// NewAuditEntry builds an entry, encoding changes as JSON. A nil changes value is stored as null.
func NewAuditEntry(userID string, action AuditAction, entityType, entityID string, changes any) (AuditEntry, error) {
	e := AuditEntry{UserID: userID, Action: action, EntityType: entityType, EntityID: entityID}
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			return AuditEntry{}, fmt.Errorf("encode audit changes: %w", err)
		}
		e.Changes = raw
	}
	return e, e.Validate()
}

// Validate checks the attribution fields are present.
func (e AuditEntry) Validate() error {
	switch {
	case strings.TrimSpace(e.UserID) == "":
		return errors.New("audit entry requires user_id")
	case e.Action == "":
		return errors.New("audit entry requires action")
	case e.EntityType == "" || e.EntityID == "":
		return errors.New("audit entry requires entity_type and entity_id")
	}
	return nil
}

// AuditListOptions filters the audit log. Results are newest first.
type AuditListOptions struct {
	UserID     *string `json:"user_id,omitempty"`
	EntityType *string `json:"entity_type,omitempty"`
	EntityID   *string `json:"entity_id,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}

// Normalize applies paging defaults in place.
func (o *AuditListOptions) Normalize() {
	o.Limit, o.Offset = clampPage(o.Limit, o.Offset)
}
