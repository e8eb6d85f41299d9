package model

import "time"

// DashboardStats are the admin overview counters.
type DashboardStats struct {
	TotalBhajans    int64 `json:"total_bhajans"    db:"total_bhajans"`
	ApprovedBhajans int64 `json:"approved_bhajans" db:"approved_bhajans"`
	PendingBhajans  int64 `json:"pending_bhajans"  db:"pending_bhajans"`
	DraftBhajans    int64 `json:"draft_bhajans"    db:"draft_bhajans"`
	RejectedBhajans int64 `json:"rejected_bhajans" db:"rejected_bhajans"`
	TotalUsers      int64 `json:"total_users"      db:"total_users"`
	TotalReports    int64 `json:"total_reports"    db:"total_reports"`
	OpenReports     int64 `json:"open_reports"     db:"open_reports"`
	TotalFavorites  int64 `json:"total_favorites"  db:"total_favorites"`
}

// Dashboard combines the overview counters with the moderation backlog.
type Dashboard struct {
	Stats          DashboardStats `json:"stats"`
	PendingReviews int64          `json:"pending_reviews"`
	OpenReports    int64          `json:"open_reports"`
}

// SiteStatistics are public site-wide counters.
type SiteStatistics struct {
	HomeVisits      int64     `json:"home_visits"       db:"home_visits"`
	TotalViews      int64     `json:"total_views"       db:"total_views"`
	ApprovedBhajans int64     `json:"approved_bhajans"  db:"approved_bhajans"`
	UpdatedAt       time.Time `json:"updated_at"        db:"updated_at"`
}

// ViewedBhajan is a compact row for most-viewed listings.
type ViewedBhajan struct {
	ID          string    `json:"id"                    db:"id"`
	Title       string    `json:"title"                 db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	ViewCount   int64     `json:"view_count"            db:"view_count"`
	CreatedAt   time.Time `json:"created_at"            db:"created_at"`
}
