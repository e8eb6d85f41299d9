package route

import "strings"

// Table maps request paths onto route intents.
type Table struct {
	routes []Intent
}

// DefaultTable returns the page table of the library.
func DefaultTable() *Table {
	return NewTable([]Intent{
		{Name: NameHome, Pattern: "/"},
		{Name: NameLogin, Pattern: "/login", GuestOnly: true},
		{Name: NameSignup, Pattern: "/signup", GuestOnly: true},
		{Name: NameBhajanCreate, Pattern: "/bhajan/create", RequiresAuth: true, RequiresEditor: true},
		{Name: NameBhajanDetail, Pattern: "/bhajan/{id}"},
		{Name: NameBhajanEdit, Pattern: "/bhajan/{id}/edit", RequiresAuth: true, RequiresEditor: true},
		{Name: NameMyBhajans, Pattern: "/my-bhajans", RequiresAuth: true, RequiresEditor: true},
		{Name: NameAdminDashboard, Pattern: "/admin", RequiresAuth: true, RequiresAdmin: true},
		{Name: NameAdminReviewQueue, Pattern: "/admin/review-queue", RequiresAuth: true, RequiresAdmin: true},
		{Name: NameAdminReports, Pattern: "/admin/reports", RequiresAuth: true, RequiresAdmin: true},
	})
}

// NewTable builds a table. Literal patterns win over patterns with {param} segments.
func NewTable(routes []Intent) *Table {
	return &Table{routes: append([]Intent(nil), routes...)}
}

// Routes returns a copy of the table entries.
func (t *Table) Routes() []Intent {
	return append([]Intent(nil), t.routes...)
}

// Lookup resolves the intent and path parameters for path. The query string, if any, is
// ignored.
func (t *Table) Lookup(path string) (Intent, map[string]string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segs := splitPath(path)

	var (
		best       Intent
		bestParams map[string]string
		bestScore  = -1
	)
	for _, r := range t.routes {
		params, score, ok := match(splitPath(r.Pattern), segs)
		if ok && score > bestScore {
			best, bestParams, bestScore = r, params, score
		}
	}
	if bestScore < 0 {
		return Intent{}, nil, false
	}
	return best, bestParams, true
}

// ByName returns the intent registered under name.
func (t *Table) ByName(name string) (Intent, bool) {
	for _, r := range t.routes {
		if r.Name == name {
			return r, true
		}
	}
	return Intent{}, false
}

// match compares pattern segments with path segments. The score counts literal matches.
func match(pattern, segs []string) (map[string]string, int, bool) {
	if len(pattern) != len(segs) {
		return nil, 0, false
	}
	var params map[string]string
	score := 0
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segs[i] == "" {
				return nil, 0, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:len(p)-1]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, 0, false
		}
		score++
	}
	return params, score, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
