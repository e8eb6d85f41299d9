package data

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/bhajan-library/internal/data/database"
	"github.com/target/bhajan-library/internal/data/pgxutil"
	"github.com/target/bhajan-library/internal/domain/model"
)

const bhajanColumnList = `id, title, title_kannada, title_devanagari, lyrics, lyrics_kannada,
	lyrics_devanagari, meaning, description, status, created_by, reviewed_by, reviewed_at,
	review_comment, view_count, created_at, updated_at`

const (
	bhajanGetByIDQuery = `SELECT ` + bhajanColumnList + ` FROM bhajans WHERE id = $1`

	bhajanInsertQuery = `
		INSERT INTO bhajans (
			title, title_kannada, title_devanagari, lyrics, lyrics_kannada, lyrics_devanagari,
			meaning, description, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + bhajanColumnList

	bhajanReviewQuery = `
		UPDATE bhajans
		SET status = $2, reviewed_by = $3, reviewed_at = $4, review_comment = NULLIF($5, '')
		WHERE id = $1
		RETURNING ` + bhajanColumnList

	bhajanTagsForQuery = `
		SELECT bhajan_id, tag_name FROM bhajan_tags
		WHERE bhajan_id = ANY($1::uuid[])
		ORDER BY tag_name`
)

// updatable bhajan columns; Changes() keys outside this set are ignored.
var bhajanUpdatable = map[string]bool{
	"title": true, "title_kannada": true, "title_devanagari": true,
	"lyrics": true, "lyrics_kannada": true, "lyrics_devanagari": true,
	"meaning": true, "description": true, "status": true,
}

func bhajanColumns() []string {
	return strings.Split(strings.Join(strings.Fields(bhajanColumnList), ""), ",")
}

// BhajanRepo provides database operations for bhajans.
type BhajanRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewBhajanRepo creates a new BhajanRepo with real time provider.
func NewBhajanRepo(db *sql.DB) *BhajanRepo {
	return &BhajanRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewBhajanRepoWithTimeProvider creates a BhajanRepo with a custom time provider (useful for tests).
func NewBhajanRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *BhajanRepo {
	return &BhajanRepo{DB: db, timeProvider: tp}
}

// List returns one page of bhajans matching opts and the total match count.
func (r *BhajanRepo) List(ctx context.Context, opts model.BhajanListOptions) ([]*model.Bhajan, int, error) {
	if err := opts.Normalize(); err != nil {
		return nil, 0, err
	}
	q := buildBhajanQuery(opts)

	var (
		out   []*model.Bhajan
		total int
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query, args := database.BuildListQuery(q)
		rows, err := pgxutil.CollectAll[model.Bhajan](ctx, conn, query, args...)
		if err != nil {
			return err
		}
		countQuery, countArgs := database.BuildListQuery(q.Count())
		if total, err = pgxutil.Count(ctx, conn, countQuery, countArgs...); err != nil {
			return err
		}
		out = rows
		return attachTags(ctx, conn, out)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bhajans: %w", mapErr(err, nil))
	}
	return out, total, nil
}

func buildBhajanQuery(opts model.BhajanListOptions) *database.ListQueryOptions {
	qo := []database.ListQueryOption{
		database.WithColumns(bhajanColumns()...),
		database.WithOrderBy(opts.SortBy, opts.SortOrder),
		database.WithLimit(opts.Limit),
		database.WithOffset(opts.Offset),
	}
	if opts.Status != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("status", database.Equal, string(*opts.Status))))
	}
	if opts.CreatedBy != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("created_by", database.Equal, *opts.CreatedBy)))
	}
	if opts.Search != nil {
		pattern := "%" + escapeLike(strings.TrimSpace(*opts.Search)) + "%"
		qo = append(qo, database.WithCondition(database.WhereRawCond(
			"title ILIKE $1 OR title_kannada ILIKE $1 OR title_devanagari ILIKE $1 OR lyrics ILIKE $1",
			pattern,
		)))
	}
	if len(opts.Tags) > 0 {
		lowered := make([]string, len(opts.Tags))
		for i, t := range opts.Tags {
			lowered[i] = strings.ToLower(t)
		}
		qo = append(qo, database.WithCondition(database.WhereRawCond(
			"id IN (SELECT bhajan_id FROM bhajan_tags WHERE lower(tag_name) = ANY($1))",
			lowered,
		)))
	}
	return database.NewListQueryOptions("bhajans", qo...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID retrieves a bhajan with its tags.
func (r *BhajanRepo) GetByID(ctx context.Context, id string) (*model.Bhajan, error) {
	var out *model.Bhajan
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		b, err := pgxutil.CollectOne[model.Bhajan](ctx, conn, bhajanGetByIDQuery, id)
		if err != nil {
			return err
		}
		out = b
		return attachTags(ctx, conn, []*model.Bhajan{out})
	})
	if err != nil {
		return nil, mapErr(err, ErrBhajanNotFound)
	}
	return out, nil
}

// Create inserts a bhajan owned by createdBy together with its tags.
func (r *BhajanRepo) Create(
	ctx context.Context,
	req model.CreateBhajanRequest,
	createdBy string,
) (*model.Bhajan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out *model.Bhajan
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		var err error
		out, err = pgxutil.CollectOne[model.Bhajan](ctx, tx, bhajanInsertQuery,
			req.Title,
			req.TitleKannada,
			req.TitleDevanagari,
			req.Lyrics,
			req.LyricsKannada,
			req.LyricsDevanagari,
			req.Meaning,
			req.Description,
			string(req.Status),
			createdBy,
		)
		if err != nil {
			return err
		}
		if len(req.Tags) == 0 {
			return nil
		}
		if _, err := writeTags(ctx, tx, out.ID, req.Tags); err != nil {
			return err
		}
		return attachTags(ctx, tx, []*model.Bhajan{out})
	}})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

// Update applies the non-nil fields of req.
func (r *BhajanRepo) Update(ctx context.Context, id string, req model.UpdateBhajanRequest) (*model.Bhajan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return r.UpdateWithTags(ctx, id, req, nil)
}

// UpdateWithTags applies the non-nil fields of req and, when tags is non-nil, swaps the tag
// set. Both land in one transaction: a rejected tag leaves the row untouched.
func (r *BhajanRepo) UpdateWithTags(
	ctx context.Context,
	id string,
	req model.UpdateBhajanRequest,
	tags []string,
) (*model.Bhajan, error) {
	query, args := bhajanGetByIDQuery, []any{id}
	if req.HasUpdates() {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		var setClause string
		setClause, args = buildBhajanUpdateClause(req.Changes())
		args = append(args, id)
		query = "UPDATE bhajans SET " + setClause + " WHERE id = $" + strconv.Itoa(len(args)) +
			" RETURNING " + bhajanColumnList
	}

	var out *model.Bhajan
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		b, err := pgxutil.CollectOne[model.Bhajan](ctx, tx, query, args...)
		if err != nil {
			return err
		}
		if tags != nil {
			if _, err := writeTags(ctx, tx, id, tags); err != nil {
				return err
			}
		}
		out = b
		return attachTags(ctx, tx, []*model.Bhajan{out})
	}})
	if err != nil {
		return nil, mapErr(err, ErrBhajanNotFound)
	}
	return out, nil
}

// buildBhajanUpdateClause renders changes in column order so the SQL text is stable.
func buildBhajanUpdateClause(changes map[string]any) (string, []any) {
	cols := make([]string, 0, len(changes))
	for col := range changes {
		if bhajanUpdatable[col] {
			cols = append(cols, col)
		}
	}
	slices.Sort(cols)

	setParts := make([]string, len(cols))
	args := make([]any, len(cols), len(cols)+1)
	for i, col := range cols {
		setParts[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args[i] = changes[col]
	}
	return strings.Join(setParts, ", "), args
}

// Delete removes a bhajan. Tags, reports and favorites cascade.
func (r *BhajanRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM bhajans WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return mapErr(err, nil)
	}
	if affected == 0 {
		return ErrBhajanNotFound
	}
	return nil
}

// Review records an approve or reject decision.
func (r *BhajanRepo) Review(ctx context.Context, id string, d model.ReviewDecision) (*model.Bhajan, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	reviewedAt := timeOr(r.timeProvider, d.ReviewedAt)

	var out *model.Bhajan
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		b, err := pgxutil.CollectOne[model.Bhajan](ctx, conn, bhajanReviewQuery,
			id, string(d.Status), d.ReviewedBy, reviewedAt, strings.TrimSpace(d.Comment))
		if err != nil {
			return err
		}
		out = b
		return attachTags(ctx, conn, []*model.Bhajan{out})
	})
	if err != nil {
		return nil, mapErr(err, ErrBhajanNotFound)
	}
	return out, nil
}

// CountByStatus counts bhajans in one workflow status.
func (r *BhajanRepo) CountByStatus(ctx context.Context, status model.BhajanStatus) (int, error) {
	var n int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		n, err = pgxutil.Count(ctx, conn, `SELECT COUNT(*) FROM bhajans WHERE status = $1`, string(status))
		return err
	})
	if err != nil {
		return 0, mapErr(err, nil)
	}
	return n, nil
}

func attachTags(ctx context.Context, q pgxutil.Querier, bhajans []*model.Bhajan) error {
	if len(bhajans) == 0 {
		return nil
	}
	ids := make([]string, len(bhajans))
	byID := make(map[string]*model.Bhajan, len(bhajans))
	for i, b := range bhajans {
		ids[i] = b.ID
		byID[b.ID] = b
	}
	rows, err := q.Query(ctx, bhajanTagsForQuery, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bhajanID, name string
		if err := rows.Scan(&bhajanID, &name); err != nil {
			return err
		}
		if b, ok := byID[bhajanID]; ok {
			b.Tags = append(b.Tags, name)
		}
	}
	return rows.Err()
}
