package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/target/bhajan-library/internal/data/pgxutil"
	"github.com/target/bhajan-library/internal/domain/model"
)

const favoriteListQuery = `
	SELECT b.id, b.title, b.title_kannada, b.title_devanagari, b.lyrics, b.lyrics_kannada,
	       b.lyrics_devanagari, b.meaning, b.description, b.status, b.created_by, b.reviewed_by,
	       b.reviewed_at, b.review_comment, b.view_count, b.created_at, b.updated_at,
	       f.created_at AS favorited_at
	FROM favorites f
	JOIN bhajans b ON b.id = f.bhajan_id
	WHERE f.user_id = $1
	ORDER BY f.created_at DESC
	LIMIT $2 OFFSET $3`

// FavoriteRepo provides database operations for per-user favorites.
type FavoriteRepo struct {
	DB *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// Add is idempotent.
func (r *FavoriteRepo) Add(ctx context.Context, userID, bhajanID string) error {
	return r.exec(ctx,
		`INSERT INTO favorites (user_id, bhajan_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, bhajanID)
}

// Remove is idempotent.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, bhajanID string) error {
	return r.exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND bhajan_id = $2`, userID, bhajanID)
}

func (r *FavoriteRepo) Exists(ctx context.Context, userID, bhajanID string) (bool, error) {
	var ok bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND bhajan_id = $2)`,
			userID, bhajanID,
		).Scan(&ok)
	})
	if err != nil {
		return false, mapErr(err, nil)
	}
	return ok, nil
}

// List returns favorited bhajans, most recently favorited first.
func (r *FavoriteRepo) List(ctx context.Context, userID string, limit, offset int) ([]*model.FavoriteBhajan, error) {
	if limit <= 0 {
		limit = model.DefaultListLimit
	}
	offset = max(offset, 0)
	var out []*model.FavoriteBhajan
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectAll[model.FavoriteBhajan](ctx, conn, favoriteListQuery, userID, limit, offset)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

func (r *FavoriteRepo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		n, err = pgxutil.Count(ctx, conn, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return 0, mapErr(err, nil)
	}
	return n, nil
}

func (r *FavoriteRepo) exec(ctx context.Context, query string, args ...any) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, query, args...)
		return err
	})
	return mapErr(err, nil)
}
