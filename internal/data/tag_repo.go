package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/target/bhajan-library/internal/data/pgxutil"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
)

const (
	tagListNamesQuery = `SELECT DISTINCT tag_name FROM bhajan_tags ORDER BY tag_name`

	tagForBhajanQuery = `
		SELECT id, bhajan_id, tag_name, created_at FROM bhajan_tags
		WHERE bhajan_id = $1
		ORDER BY tag_name`

	tagInsertQuery = `
		INSERT INTO bhajan_tags (bhajan_id, tag_name) VALUES ($1, $2)
		RETURNING id, bhajan_id, tag_name, created_at`

	tagDeleteQuery = `
		DELETE FROM bhajan_tags WHERE id = $1
		RETURNING id, bhajan_id, tag_name, created_at`

	// Popular counts tags on approved bhajans only.
	tagPopularQuery = `
		SELECT t.tag_name, COUNT(*) AS count
		FROM bhajan_tags t
		JOIN bhajans b ON b.id = t.bhajan_id AND b.status = 'approved'
		GROUP BY t.tag_name
		ORDER BY count DESC, t.tag_name
		LIMIT $1`
)

// TagRepo provides database operations for bhajan tags.
type TagRepo struct {
	DB *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{DB: db} }

// ListNames returns every distinct tag name in use.
func (r *TagRepo) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, tagListNamesQuery)
		if err != nil {
			return err
		}
		names, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return names, nil
}

func (r *TagRepo) ListForBhajan(ctx context.Context, bhajanID string) ([]*model.Tag, error) {
	var out []*model.Tag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectAll[model.Tag](ctx, conn, tagForBhajanQuery, bhajanID)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

// Add tags a bhajan. A name already on the bhajan (case-insensitively) is a conflict.
func (r *TagRepo) Add(ctx context.Context, bhajanID, name string) (*model.Tag, error) {
	name, ok := model.NormalizeTagName(name)
	if !ok {
		return nil, apperrors.ValidationField("tag_name", "Tag name must be 1 to 50 characters")
	}
	var out *model.Tag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.Tag](ctx, conn, tagInsertQuery, bhajanID, name)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

// Remove deletes a tag and returns the removed row.
func (r *TagRepo) Remove(ctx context.Context, tagID string) (*model.Tag, error) {
	var out *model.Tag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.Tag](ctx, conn, tagDeleteQuery, tagID)
		return err
	})
	if err != nil {
		return nil, mapErr(err, ErrTagNotFound)
	}
	return out, nil
}

// Replace swaps the full tag set of a bhajan in one transaction.
func (r *TagRepo) Replace(ctx context.Context, bhajanID string, names []string) ([]*model.Tag, error) {
	var out []*model.Tag
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		var err error
		out, err = writeTags(ctx, tx, bhajanID, names)
		return err
	}})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

// writeTags replaces the tags of bhajanID inside tx.
func writeTags(ctx context.Context, tx pgx.Tx, bhajanID string, names []string) ([]*model.Tag, error) {
	names = model.NormalizeTagNames(names)
	if _, err := tx.Exec(ctx, `DELETE FROM bhajan_tags WHERE bhajan_id = $1`, bhajanID); err != nil {
		return nil, err
	}
	out := make([]*model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := pgxutil.CollectOne[model.Tag](ctx, tx, tagInsertQuery, bhajanID, name)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}

// Popular returns the most used tag names on approved bhajans.
func (r *TagRepo) Popular(ctx context.Context, limit int) ([]model.TagCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []model.TagCount
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, tagPopularQuery, limit)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.TagCount])
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}
