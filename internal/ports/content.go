package ports

import (
	"context"
	"time"

	"github.com/target/bhajan-library/internal/domain/model"
)

// BhajanRepository stores bhajans.
type BhajanRepository interface {
	List(ctx context.Context, opts model.BhajanListOptions) ([]*model.Bhajan, int, error)
	GetByID(ctx context.Context, id string) (*model.Bhajan, error)
	// Create inserts the row and the tags in req together.
	Create(ctx context.Context, req model.CreateBhajanRequest, createdBy string) (*model.Bhajan, error)
	Update(ctx context.Context, id string, req model.UpdateBhajanRequest) (*model.Bhajan, error)
	// UpdateWithTags patches the row and, when tags is non-nil, replaces its tags atomically.
	UpdateWithTags(ctx context.Context, id string, req model.UpdateBhajanRequest, tags []string) (*model.Bhajan, error)
	Delete(ctx context.Context, id string) error
	Review(ctx context.Context, id string, decision model.ReviewDecision) (*model.Bhajan, error)
	CountByStatus(ctx context.Context, status model.BhajanStatus) (int, error)
}

// TagRepository stores bhajan tags.
type TagRepository interface {
	ListNames(ctx context.Context) ([]string, error)
	ListForBhajan(ctx context.Context, bhajanID string) ([]*model.Tag, error)
	Add(ctx context.Context, bhajanID, name string) (*model.Tag, error)
	// Remove deletes a tag and returns the removed row.
	Remove(ctx context.Context, tagID string) (*model.Tag, error)
	// Replace swaps every tag of a bhajan for names in one transaction.
	Replace(ctx context.Context, bhajanID string, names []string) ([]*model.Tag, error)
	Popular(ctx context.Context, limit int) ([]model.TagCount, error)
}

// ReportRepository stores content reports.
type ReportRepository interface {
	List(ctx context.Context, opts model.ReportListOptions) ([]*model.Report, int, error)
	Create(ctx context.Context, req model.CreateReportRequest, reportedBy string) (*model.Report, error)
	UpdateStatus(ctx context.Context, id string, update model.ReportStatusUpdate) (*model.Report, error)
	Stats(ctx context.Context) (*model.ReportStats, error)
}

// FavoriteRepository stores per-user favorites.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, bhajanID string) error
	Remove(ctx context.Context, userID, bhajanID string) error
	Exists(ctx context.Context, userID, bhajanID string) (bool, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*model.FavoriteBhajan, error)
	Count(ctx context.Context, userID string) (int, error)
}

// AuditRepository is the append-only audit log.
type AuditRepository interface {
	Append(ctx context.Context, entry model.AuditEntry) (*model.AuditEntry, error)
	List(ctx context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, int, error)
}

// StatsRepository serves aggregate counters and the counter RPCs.
type StatsRepository interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	Site(ctx context.Context) (*model.SiteStatistics, error)
	IncrementBhajanView(ctx context.Context, bhajanID string) error
	IncrementHomeVisits(ctx context.Context) error
	MostViewed(ctx context.Context, limit int) ([]*model.ViewedBhajan, error)
}

// PreferencesRepository persists viewer preferences per client key.
type PreferencesRepository interface {
	// Load returns ok=false when nothing was saved for key.
	Load(ctx context.Context, key string) (prefs model.Preferences, ok bool, err error)
	Save(ctx context.Context, key string, prefs model.Preferences) error
}

// QueuedAudit is an audit entry waiting to be replayed.
type QueuedAudit struct {
	Entry    model.AuditEntry `json:"entry"`
	Attempts int              `json:"attempts"`
	QueuedAt time.Time        `json:"queued_at"`
}

// AuditQueue holds audit entries whose first append failed.
type AuditQueue interface {
	Push(ctx context.Context, item QueuedAudit) error
	// Pop removes and returns up to n items, oldest first.
	Pop(ctx context.Context, n int) ([]QueuedAudit, error)
	Len(ctx context.Context) (int64, error)
}

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	// Returns true if the key was set, false if it already existed.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
