// Package database builds sanitized list and count queries for the pgx repositories.
package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal       ConditionType = "="
	NotEqual    ConditionType = "!="
	GreaterThan ConditionType = ">"
	LessThan    ConditionType = "<"
	ILike       ConditionType = "ILIKE"
	In          ConditionType = "IN"
	Custom      ConditionType = "CUSTOM"

	unset = -1
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// Condition is one predicate of a WHERE clause. Conditions are joined with AND.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
	raw   string
}

// WhereCond builds a column predicate. Use WhereRawCond for anything else.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // raw SQL must come through WhereRawCond.
		panic("use WhereRawCond for Custom conditions")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond builds a raw predicate. Placeholders are numbered from $1 and renumbered on build.
func WhereRawCond(raw string, params ...any) Condition {
	return Condition{Type: Custom, raw: raw, Value: params}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	o := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithColumns sets the selected columns. Qualified names ("b.title") and "col AS alias" are allowed.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction (ASC or DESC; anything else is dropped).
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly turns the query into SELECT COUNT(*) and skips ordering and paging.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

// Count derives a count query from o, sharing its table and conditions.
func (o *ListQueryOptions) Count() *ListQueryOptions {
	return &ListQueryOptions{
		Table:      o.Table,
		CountOnly:  true,
		Conditions: o.Conditions,
		Limit:      unset,
		Offset:     unset,
	}
}

func quoteIdent(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

var aliasRe = regexp.MustCompile(`(?i)\s+AS\s+`)

func quoteColumn(spec string) string {
	parts := aliasRe.Split(spec, 2)
	if len(parts) == 2 {
		return quoteIdent(strings.TrimSpace(parts[0])) + " AS " + quoteIdent(strings.TrimSpace(parts[1]))
	}
	return quoteIdent(strings.TrimSpace(spec))
}

// quoteTable accepts "table" or "table alias".
func quoteTable(spec string) string {
	fields := strings.Fields(spec)
	if len(fields) == 2 {
		return quoteIdent(fields[0]) + " " + quoteIdent(fields[1])
	}
	return quoteIdent(spec)
}

// BuildListQuery renders options into SQL and positional args.
//
//	q, args := BuildListQuery(NewListQueryOptions("bhajans",
//		WithColumns("id", "title"),
//		WithCondition(WhereCond("status", Equal, "approved")),
//		WithCondition(WhereRawCond("title ILIKE $1 OR lyrics ILIKE $1", "%om%")),
//		WithOrderBy("created_at", "DESC"),
//		WithLimit(50),
//	))
func BuildListQuery(o *ListQueryOptions) (string, []any) {
	if o == nil {
		return "", nil
	}
	var b strings.Builder
	switch {
	case o.CountOnly:
		b.WriteString("SELECT COUNT(*)")
	case len(o.Columns) == 0:
		b.WriteString("SELECT *")
	default:
		cols := make([]string, len(o.Columns))
		for i, c := range o.Columns {
			cols[i] = quoteColumn(c)
		}
		b.WriteString("SELECT ")
		b.WriteString(strings.Join(cols, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteTable(o.Table))

	where, args := buildWhere(o.Conditions)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	if o.CountOnly {
		return b.String(), args
	}

	if o.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(quoteIdent(o.OrderBy))
		if dir := strings.ToUpper(o.OrderDir); dir == "ASC" || dir == "DESC" {
			b.WriteString(" " + dir)
		}
	}
	if o.Limit != unset {
		args = append(args, o.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if o.Offset != unset {
		args = append(args, o.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func buildWhere(conds []Condition) (string, []any) {
	parts := make([]string, 0, len(conds))
	var args []any
	for _, c := range conds {
		var sql string
		sql, args = renderCondition(c, args)
		if sql != "" {
			parts = append(parts, sql)
		}
	}
	return strings.Join(parts, " AND "), args
}

func renderCondition(c Condition, args []any) (string, []any) {
	switch c.Type {
	case Custom:
		return renderRaw(c, args)
	case In:
		rv := reflect.ValueOf(c.Value)
		if c.Field == "" || rv.Kind() != reflect.Slice || rv.Len() == 0 {
			return "", args
		}
		ph := make([]string, rv.Len())
		for i := range rv.Len() {
			args = append(args, rv.Index(i).Interface())
			ph[i] = "$" + strconv.Itoa(len(args))
		}
		return fmt.Sprintf("%s IN (%s)", quoteIdent(c.Field), strings.Join(ph, ", ")), args
	case Equal, NotEqual, GreaterThan, LessThan, ILike:
		if c.Field == "" {
			return "", args
		}
		args = append(args, c.Value)
		return fmt.Sprintf("%s %s $%d", quoteIdent(c.Field), c.Type, len(args)), args
	}
	return "", args
}

func renderRaw(c Condition, args []any) (string, []any) {
	if c.raw == "" {
		return "", args
	}
	params, _ := c.Value.([]any)
	remap := make(map[int]int)
	out := placeholderRe.ReplaceAllStringFunc(c.raw, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(params) {
			return m
		}
		if _, ok := remap[n]; !ok {
			args = append(args, params[n-1])
			remap[n] = len(args)
		}
		return "$" + strconv.Itoa(remap[n])
	})
	return "(" + out + ")", args
}
