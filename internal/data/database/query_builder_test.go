package database

import (
	"reflect"
	"testing"
)

func TestBuildListQuery_BasicSelect(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("bhajans"))

	expected := `SELECT * FROM "bhajans"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if len(args) != 0 {
		t.Errorf("Expected 0 args, got %d", len(args))
	}
}

func TestBuildListQuery_ColumnsAndAliases(t *testing.T) {
	opts := NewListQueryOptions("reports r",
		WithColumns("r.id", "b.title AS bhajan_title"),
	)
	query, _ := BuildListQuery(opts)

	expected := `SELECT "r"."id", "b"."title" AS "bhajan_title" FROM "reports" "r"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
}

func TestBuildListQuery_CountOnlyIgnoresPaging(t *testing.T) {
	opts := NewListQueryOptions("bhajans",
		WithCountOnly(),
		WithCondition(WhereCond("status", Equal, "approved")),
		WithOrderBy("created_at", "desc"),
		WithLimit(10),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT COUNT(*) FROM "bhajans" WHERE "status" = $1`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	if !reflect.DeepEqual(args, []any{"approved"}) {
		t.Errorf("Expected args [approved], got %v", args)
	}
}

func TestBuildListQuery_FullQuery(t *testing.T) {
	opts := NewListQueryOptions("bhajans",
		WithColumns("id", "title"),
		WithCondition(WhereCond("status", Equal, "approved")),
		WithCondition(WhereRawCond("title ILIKE $1 OR lyrics ILIKE $1", "%om%")),
		WithCondition(WhereCond("created_by", In, []string{"u1", "u2"})),
		WithOrderBy("view_count", "desc"),
		WithLimit(20),
		WithOffset(40),
	)
	query, args := BuildListQuery(opts)

	expected := `SELECT "id", "title" FROM "bhajans" WHERE "status" = $1 AND (title ILIKE $2 OR lyrics ILIKE $2)` +
		` AND "created_by" IN ($3, $4) ORDER BY "view_count" DESC LIMIT $5 OFFSET $6`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
	want := []any{"approved", "%om%", "u1", "u2", 20, 40}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Expected args %v, got %v", want, args)
	}
}

func TestBuildListQuery_SkipsEmptyConditions(t *testing.T) {
	opts := NewListQueryOptions("bhajans",
		WithCondition(WhereCond("created_by", In, []string{})),
		WithCondition(WhereRawCond("")),
		WithCondition(WhereCond("", Equal, "x")),
	)
	query, args := BuildListQuery(opts)

	if query != `SELECT * FROM "bhajans"` {
		t.Errorf("unexpected query %q", query)
	}
	if len(args) != 0 {
		t.Errorf("Expected no args, got %v", args)
	}
}

func TestBuildListQuery_InvalidDirectionDropped(t *testing.T) {
	query, _ := BuildListQuery(NewListQueryOptions("bhajans", WithOrderBy("title", "sideways")))
	if query != `SELECT * FROM "bhajans" ORDER BY "title"` {
		t.Errorf("unexpected query %q", query)
	}
}

func TestBuildListQuery_IdentifierInjectionIsQuoted(t *testing.T) {
	query, _ := BuildListQuery(NewListQueryOptions(`bhajans"; DROP TABLE users; --`))
	expected := `SELECT * FROM "bhajans""; DROP TABLE users; --"`
	if query != expected {
		t.Errorf("Expected query %q, got %q", expected, query)
	}
}

func TestListQueryOptions_Count(t *testing.T) {
	base := NewListQueryOptions("bhajans",
		WithColumns("id"),
		WithCondition(WhereCond("status", Equal, "draft")),
		WithLimit(5),
	)
	query, args := BuildListQuery(base.Count())

	if query != `SELECT COUNT(*) FROM "bhajans" WHERE "status" = $1` {
		t.Errorf("unexpected query %q", query)
	}
	if !reflect.DeepEqual(args, []any{"draft"}) {
		t.Errorf("unexpected args %v", args)
	}
}

func TestWhereCond_PanicsOnCustom(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	WhereCond("x", Custom, 1)
}
