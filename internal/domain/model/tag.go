package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

const maxTagLen = 50

// Tag attaches a free-form label to a bhajan.
type Tag struct {
	ID        string    `json:"id"         db:"id"`
	BhajanID  string    `json:"bhajan_id"  db:"bhajan_id"`
	TagName   string    `json:"tag_name"   db:"tag_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TagCount is a tag name with the number of bhajans using it.
type TagCount struct {
	TagName string `json:"tag_name" db:"tag_name"`
	Count   int64  `json:"count"    db:"count"`
}

// NormalizeTagName trims a tag name and reports whether it is usable.
func NormalizeTagName(name string) (string, bool) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || utf8.RuneCountInString(name) > maxTagLen {
		return "", false
	}
	return name, true
}

// NormalizeTagNames trims, drops unusable names and removes duplicates while keeping order.
func NormalizeTagNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n, ok := NormalizeTagName(n)
		if !ok {
			continue
		}
		key := strings.ToLower(n)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
