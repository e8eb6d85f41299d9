package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/target/bhajan-library/internal/data/pgxutil"
	"github.com/target/bhajan-library/internal/domain/model"
)

const (
	dashboardStatsQuery = `
		SELECT total_bhajans, approved_bhajans, pending_bhajans, draft_bhajans, rejected_bhajans,
		       total_users, total_reports, open_reports, total_favorites
		FROM dashboard_stats`

	siteStatsQuery = `
		SELECT s.home_visits,
		       (SELECT COALESCE(SUM(view_count), 0)::BIGINT FROM bhajans) AS total_views,
		       (SELECT COUNT(*) FROM bhajans WHERE status = 'approved') AS approved_bhajans,
		       s.updated_at
		FROM site_statistics s
		WHERE s.id = 1`

	mostViewedQuery = `
		SELECT id, title, description, view_count, created_at
		FROM bhajans
		WHERE status = 'approved'
		ORDER BY view_count DESC, created_at DESC
		LIMIT $1`
)

// StatsRepo serves aggregate counters and the counter functions.
type StatsRepo struct {
	DB *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

func (r *StatsRepo) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	return queryOne[model.DashboardStats](ctx, r.DB, dashboardStatsQuery)
}

func (r *StatsRepo) Site(ctx context.Context) (*model.SiteStatistics, error) {
	return queryOne[model.SiteStatistics](ctx, r.DB, siteStatsQuery)
}

func (r *StatsRepo) IncrementBhajanView(ctx context.Context, bhajanID string) error {
	return r.call(ctx, `SELECT increment_bhajan_view($1)`, bhajanID)
}

func (r *StatsRepo) IncrementHomeVisits(ctx context.Context) error {
	return r.call(ctx, `SELECT increment_home_visits()`)
}

// MostViewed lists approved bhajans by view count.
func (r *StatsRepo) MostViewed(ctx context.Context, limit int) ([]*model.ViewedBhajan, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*model.ViewedBhajan
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectAll[model.ViewedBhajan](ctx, conn, mostViewedQuery, limit)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

func (r *StatsRepo) call(ctx context.Context, query string, args ...any) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, query, args...)
		return err
	})
	return mapErr(err, nil)
}

func queryOne[T any](ctx context.Context, db *sql.DB, query string, args ...any) (*T, error) {
	var out *T
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[T](ctx, conn, query, args...)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}
