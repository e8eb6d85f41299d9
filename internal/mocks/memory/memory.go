// Package memory provides in-memory implementations of the content ports for tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

var (
	_ ports.BhajanRepository      = (*Bhajans)(nil)
	_ ports.TagRepository         = (*Tags)(nil)
	_ ports.ReportRepository      = (*Reports)(nil)
	_ ports.FavoriteRepository    = (*Favorites)(nil)
	_ ports.AuditRepository       = (*Audit)(nil)
	_ ports.AuditQueue            = (*Queue)(nil)
	_ ports.CacheRepository       = (*Cache)(nil)
	_ ports.PreferencesRepository = (*Preferences)(nil)
	_ ports.StatsRepository       = (*Stats)(nil)
)

// Bhajans is an in-memory BhajanRepository. Set Err to fail every call. Set TagErr to fail
// any write that carries tags; such a write changes nothing.
type Bhajans struct {
	mu     sync.Mutex
	Err    error
	TagErr error
	seq    int
	rows   map[string]*model.Bhajan
	calls  int
}

func NewBhajans() *Bhajans { return &Bhajans{rows: make(map[string]*model.Bhajan)} }

func (m *Bhajans) enter() error {
	m.calls++
	return m.Err
}

// Calls returns the number of repository calls.
func (m *Bhajans) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Put stores b as-is, assigning an id when empty.
func (m *Bhajans) Put(b model.Bhajan) *model.Bhajan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		m.seq++
		b.ID = fmt.Sprintf("b-%d", m.seq)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.rows[b.ID] = &b
	out := b
	return &out
}

func (m *Bhajans) List(_ context.Context, opts model.BhajanListOptions) ([]*model.Bhajan, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, 0, err
	}
	var out []*model.Bhajan
	for _, b := range m.rows {
		if opts.Status != nil && b.Status != *opts.Status {
			continue
		}
		if opts.CreatedBy != nil && b.CreatedBy != *opts.CreatedBy {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *Bhajans) GetByID(_ context.Context, id string) (*model.Bhajan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	b, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NotFound("Bhajan not found")
	}
	cp := *b
	return &cp, nil
}

func (m *Bhajans) Create(_ context.Context, req model.CreateBhajanRequest, createdBy string) (*model.Bhajan, error) {
	m.mu.Lock()
	if err := m.enter(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	tags := model.NormalizeTagNames(req.Tags)
	if len(tags) > 0 && m.TagErr != nil {
		m.mu.Unlock()
		return nil, m.TagErr
	}
	m.mu.Unlock()
	return m.Put(model.Bhajan{Title: req.Title, Lyrics: req.Lyrics, Status: req.Status, CreatedBy: createdBy, Tags: tags}), nil
}

func (m *Bhajans) Update(ctx context.Context, id string, req model.UpdateBhajanRequest) (*model.Bhajan, error) {
	return m.UpdateWithTags(ctx, id, req, nil)
}

func (m *Bhajans) UpdateWithTags(_ context.Context, id string, req model.UpdateBhajanRequest, tags []string) (*model.Bhajan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	b, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NotFound("Bhajan not found")
	}
	if tags != nil && m.TagErr != nil {
		return nil, m.TagErr
	}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Lyrics != nil {
		b.Lyrics = *req.Lyrics
	}
	if req.Status != nil {
		b.Status = *req.Status
	}
	if tags != nil {
		b.Tags = model.NormalizeTagNames(tags)
	}
	cp := *b
	return &cp, nil
}

func (m *Bhajans) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	if _, ok := m.rows[id]; !ok {
		return apperrors.NotFound("Bhajan not found")
	}
	delete(m.rows, id)
	return nil
}

func (m *Bhajans) Review(_ context.Context, id string, d model.ReviewDecision) (*model.Bhajan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	b, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NotFound("Bhajan not found")
	}
	b.Status = d.Status
	b.ReviewedBy = &d.ReviewedBy
	b.ReviewComment = &d.Comment
	cp := *b
	return &cp, nil
}

func (m *Bhajans) CountByStatus(_ context.Context, status model.BhajanStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return 0, err
	}
	n := 0
	for _, b := range m.rows {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}

// Tags is an in-memory TagRepository.
type Tags struct {
	mu      sync.Mutex
	Err     error
	seq     int
	rows    []*model.Tag
	popular int
}

func (m *Tags) ListNames(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range m.rows {
		if !seen[t.TagName] {
			seen[t.TagName] = true
			out = append(out, t.TagName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Tags) ListForBhajan(_ context.Context, bhajanID string) ([]*model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*model.Tag
	for _, t := range m.rows {
		if t.BhajanID == bhajanID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Tags) Add(_ context.Context, bhajanID, name string) (*model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.addLocked(bhajanID, name), nil
}

func (m *Tags) addLocked(bhajanID, name string) *model.Tag {
	m.seq++
	t := &model.Tag{ID: fmt.Sprintf("t-%d", m.seq), BhajanID: bhajanID, TagName: name}
	m.rows = append(m.rows, t)
	return t
}

func (m *Tags) Remove(_ context.Context, tagID string) (*model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for i, t := range m.rows {
		if t.ID == tagID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return t, nil
		}
	}
	return nil, apperrors.NotFound("Tag not found")
}

func (m *Tags) Replace(_ context.Context, bhajanID string, names []string) ([]*model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	kept := m.rows[:0]
	for _, t := range m.rows {
		if t.BhajanID != bhajanID {
			kept = append(kept, t)
		}
	}
	m.rows = kept
	out := make([]*model.Tag, 0, len(names))
	for _, n := range names {
		out = append(out, m.addLocked(bhajanID, n))
	}
	return out, nil
}

func (m *Tags) Popular(_ context.Context, limit int) ([]model.TagCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popular++
	if m.Err != nil {
		return nil, m.Err
	}
	counts := map[string]int64{}
	for _, t := range m.rows {
		counts[t.TagName]++
	}
	out := make([]model.TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, model.TagCount{TagName: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].TagName < out[j].TagName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PopularCalls returns how often Popular reached the repository.
func (m *Tags) PopularCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.popular
}

// Reports is an in-memory ReportRepository.
type Reports struct {
	mu   sync.Mutex
	Err  error
	seq  int
	rows []*model.Report
}

func (m *Reports) List(_ context.Context, opts model.ReportListOptions) ([]*model.Report, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	var out []*model.Report
	for _, r := range m.rows {
		if opts.Status != nil && r.Status != *opts.Status {
			continue
		}
		if opts.BhajanID != nil && r.BhajanID != *opts.BhajanID {
			continue
		}
		if opts.ReportedBy != nil && r.ReportedBy != *opts.ReportedBy {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *Reports) Create(_ context.Context, req model.CreateReportRequest, reportedBy string) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.seq++
	r := &model.Report{
		ID:          fmt.Sprintf("r-%d", m.seq),
		BhajanID:    req.BhajanID,
		ReportedBy:  reportedBy,
		IssueType:   req.IssueType,
		Description: req.Description,
		Status:      model.ReportStatusOpen,
	}
	m.rows = append(m.rows, r)
	cp := *r
	return &cp, nil
}

func (m *Reports) UpdateStatus(_ context.Context, id string, u model.ReportStatusUpdate) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.rows {
		if r.ID == id {
			r.Status = u.Status
			r.ResolvedBy = &u.ResolvedBy
			r.ResolutionComment = u.Comment
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Report not found")
}

func (m *Reports) Stats(context.Context) (*model.ReportStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var s model.ReportStats
	for _, r := range m.rows {
		s.Total++
		switch r.Status {
		case model.ReportStatusOpen:
			s.Open++
		case model.ReportStatusUnderReview:
			s.UnderReview++
		case model.ReportStatusResolved:
			s.Resolved++
		case model.ReportStatusDismissed:
			s.Dismissed++
		}
	}
	return &s, nil
}

// Favorites is an in-memory FavoriteRepository over a Bhajans.
type Favorites struct {
	mu      sync.Mutex
	Err     error
	bhajans *Bhajans
	set     map[string][]string
}

func NewFavorites(b *Bhajans) *Favorites {
	return &Favorites{bhajans: b, set: make(map[string][]string)}
}

func (m *Favorites) Add(_ context.Context, userID, bhajanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, id := range m.set[userID] {
		if id == bhajanID {
			return nil
		}
	}
	m.set[userID] = append(m.set[userID], bhajanID)
	return nil
}

func (m *Favorites) Remove(_ context.Context, userID, bhajanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	ids := m.set[userID]
	for i, id := range ids {
		if id == bhajanID {
			m.set[userID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Favorites) Exists(_ context.Context, userID, bhajanID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, id := range m.set[userID] {
		if id == bhajanID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Favorites) List(ctx context.Context, userID string, _, _ int) ([]*model.FavoriteBhajan, error) {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return nil, m.Err
	}
	ids := append([]string(nil), m.set[userID]...)
	m.mu.Unlock()

	out := make([]*model.FavoriteBhajan, 0, len(ids))
	for _, id := range ids {
		b, err := m.bhajans.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, &model.FavoriteBhajan{Bhajan: *b})
	}
	return out, nil
}

func (m *Favorites) Count(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.set[userID]), nil
}

// Audit is an in-memory AuditRepository. Fail makes the next n appends fail; a negative Fail
// fails every append.
type Audit struct {
	mu      sync.Mutex
	Fail    int
	entries []model.AuditEntry
}

func (m *Audit) Append(_ context.Context, e model.AuditEntry) (*model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != 0 {
		if m.Fail > 0 {
			m.Fail--
		}
		return nil, apperrors.Internal("audit log unavailable")
	}
	e.ID = fmt.Sprintf("a-%d", len(m.entries)+1)
	e.CreatedAt = time.Now().UTC()
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *Audit) List(_ context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AuditEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if opts.UserID != nil && e.UserID != *opts.UserID {
			continue
		}
		if opts.EntityType != nil && e.EntityType != *opts.EntityType {
			continue
		}
		if opts.EntityID != nil && e.EntityID != *opts.EntityID {
			continue
		}
		out = append(out, &e)
	}
	total := len(out)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, total, nil
}

// Entries returns a copy of the appended entries, oldest first.
func (m *Audit) Entries() []model.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditEntry(nil), m.entries...)
}

// Queue is an in-memory AuditQueue.
type Queue struct {
	mu      sync.Mutex
	PushErr error
	items   []ports.QueuedAudit
}

func (q *Queue) Push(_ context.Context, item ports.QueuedAudit) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.PushErr != nil {
		return q.PushErr
	}
	q.items = append(q.items, item)
	return nil
}

func (q *Queue) Pop(_ context.Context, n int) ([]ports.QueuedAudit, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n = min(n, len(q.items))
	out := append([]ports.QueuedAudit(nil), q.items[:n]...)
	q.items = q.items[n:]
	return out, nil
}

func (q *Queue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

// Items returns a copy of the queued items.
func (q *Queue) Items() []ports.QueuedAudit {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]ports.QueuedAudit(nil), q.items...)
}

// Cache is an in-memory CacheRepository without expiry.
type Cache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewCache() *Cache { return &Cache{data: make(map[string][]byte)} }

func (c *Cache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (c *Cache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	delete(c.data, key)
	return ok, nil
}

func (c *Cache) SetIfNotExists(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = append([]byte(nil), value...)
	return true, nil
}

func (c *Cache) Health(context.Context) error { return nil }

// Preferences is an in-memory PreferencesRepository.
type Preferences struct {
	mu      sync.Mutex
	SaveErr error
	data    map[string]model.Preferences
}

func (p *Preferences) Load(_ context.Context, key string) (model.Preferences, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.data[key]
	return v, ok, nil
}

func (p *Preferences) Save(_ context.Context, key string, prefs model.Preferences) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SaveErr != nil {
		return p.SaveErr
	}
	if p.data == nil {
		p.data = make(map[string]model.Preferences)
	}
	p.data[key] = prefs
	return nil
}

// Stats is a StatsRepository with fixed answers.
type Stats struct {
	mu        sync.Mutex
	Err       error
	Dash      model.DashboardStats
	SiteStats model.SiteStatistics
	views     map[string]int
	visits    int
	siteReads int
}

func (s *Stats) Dashboard(context.Context) (*model.DashboardStats, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	d := s.Dash
	return &d, nil
}

func (s *Stats) Site(context.Context) (*model.SiteStatistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.siteReads++
	if s.Err != nil {
		return nil, s.Err
	}
	st := s.SiteStats
	return &st, nil
}

func (s *Stats) IncrementBhajanView(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.views == nil {
		s.views = make(map[string]int)
	}
	s.views[id]++
	return nil
}

func (s *Stats) IncrementHomeVisits(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.visits++
	return nil
}

func (s *Stats) MostViewed(context.Context, int) ([]*model.ViewedBhajan, error) {
	return nil, s.Err
}

// SiteReads returns how often Site reached the repository.
func (s *Stats) SiteReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.siteReads
}

// Views returns the recorded view count of bhajanID.
func (s *Stats) Views(bhajanID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[bhajanID]
}

// Visits returns the recorded home visits.
func (s *Stats) Visits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visits
}
