package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/bhajan-library/internal/data/database"
	"github.com/target/bhajan-library/internal/data/pgxutil"
	"github.com/target/bhajan-library/internal/domain/model"
)

const reportReturning = `
	RETURNING id, bhajan_id,
		(SELECT b.title FROM bhajans b WHERE b.id = reports.bhajan_id) AS bhajan_title,
		reported_by, issue_type, description, status, resolved_by, resolved_at,
		resolution_comment, created_at, updated_at`

const (
	reportInsertQuery = `
		INSERT INTO reports (bhajan_id, reported_by, issue_type, description)
		VALUES ($1, $2, $3, $4)` + reportReturning

	reportUpdateStatusQuery = `
		UPDATE reports
		SET status = $2, resolved_by = $3, resolved_at = $4, resolution_comment = $5
		WHERE id = $1` + reportReturning

	reportStatsQuery = `
		SELECT
			COUNT(*)                                        AS total,
			COUNT(*) FILTER (WHERE status = 'open')         AS open,
			COUNT(*) FILTER (WHERE status = 'under_review') AS under_review,
			COUNT(*) FILTER (WHERE status = 'resolved')     AS resolved,
			COUNT(*) FILTER (WHERE status = 'dismissed')    AS dismissed
		FROM reports`
)

// ReportRepo provides database operations for content reports.
type ReportRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewReportRepoWithTimeProvider creates a ReportRepo with a custom time provider (useful for tests).
func NewReportRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ReportRepo {
	return &ReportRepo{DB: db, timeProvider: tp}
}

// List returns reports newest first, joined with the reported bhajan title.
func (r *ReportRepo) List(ctx context.Context, opts model.ReportListOptions) ([]*model.Report, int, error) {
	if err := opts.Normalize(); err != nil {
		return nil, 0, err
	}
	qo := []database.ListQueryOption{
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(opts.Limit),
		database.WithOffset(opts.Offset),
	}
	if opts.Status != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("status", database.Equal, string(*opts.Status))))
	}
	if opts.BhajanID != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("bhajan_id", database.Equal, *opts.BhajanID)))
	}
	if opts.ReportedBy != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("reported_by", database.Equal, *opts.ReportedBy)))
	}
	q := database.NewListQueryOptions("report_details", qo...)

	var (
		out   []*model.Report
		total int
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query, args := database.BuildListQuery(q)
		var err error
		if out, err = pgxutil.CollectAll[model.Report](ctx, conn, query, args...); err != nil {
			return err
		}
		countQuery, countArgs := database.BuildListQuery(q.Count())
		total, err = pgxutil.Count(ctx, conn, countQuery, countArgs...)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", mapErr(err, nil))
	}
	return out, total, nil
}

func (r *ReportRepo) Create(
	ctx context.Context,
	req model.CreateReportRequest,
	reportedBy string,
) (*model.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out *model.Report
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.Report](ctx, conn, reportInsertQuery,
			req.BhajanID, reportedBy, string(req.IssueType), req.Description)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

// UpdateStatus moves a report through moderation. Every transition stamps the moderator and time.
func (r *ReportRepo) UpdateStatus(
	ctx context.Context,
	id string,
	u model.ReportStatusUpdate,
) (*model.Report, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	resolvedAt := timeOr(r.timeProvider, u.ResolvedAt)

	var out *model.Report
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.Report](ctx, conn, reportUpdateStatusQuery,
			id, string(u.Status), u.ResolvedBy, resolvedAt, u.Comment)
		return err
	})
	if err != nil {
		return nil, mapErr(err, ErrReportNotFound)
	}
	return out, nil
}

// Stats counts reports per status.
func (r *ReportRepo) Stats(ctx context.Context) (*model.ReportStats, error) {
	var out *model.ReportStats
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.ReportStats](ctx, conn, reportStatsQuery)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}
