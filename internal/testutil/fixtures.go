package testutil

import (
	"context"
	"database/sql"
	"time"
)

// InsertUser creates a login row and matching profile and returns the user id.
// The password hash is a placeholder; tests that sign in go through the auth backend instead.
func InsertUser(t TestingTB, db *sql.DB, email, role string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	if err := db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, 'x') RETURNING id`, email,
	).Scan(&id); err != nil {
		t.Fatalf("insert user %s: %v", email, err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO user_profiles (id, email, role) VALUES ($1, $2, $3)`, id, email, role,
	); err != nil {
		t.Fatalf("insert profile %s: %v", email, err)
	}
	return id
}

// InsertBhajan creates a bhajan in the given status and returns its id.
func InsertBhajan(t TestingTB, db *sql.DB, title, status, createdBy string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	if err := db.QueryRowContext(ctx,
		`INSERT INTO bhajans (title, lyrics, status, created_by) VALUES ($1, $2, $3, $4) RETURNING id`,
		title, "Om "+title, status, createdBy,
	).Scan(&id); err != nil {
		t.Fatalf("insert bhajan %s: %v", title, err)
	}
	return id
}
