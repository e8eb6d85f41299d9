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

const auditInsertQuery = `
	INSERT INTO audit_log (user_id, action, entity_type, entity_id, changes)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, user_id,
		(SELECT p.email FROM user_profiles p WHERE p.id = audit_log.user_id) AS user_email,
		action, entity_type, entity_id, changes, created_at`

// AuditRepo is the append-only audit log. Rows are never updated or deleted.
type AuditRepo struct {
	DB *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Append writes one entry. The database assigns id and created_at.
func (r *AuditRepo) Append(ctx context.Context, e model.AuditEntry) (*model.AuditEntry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	var changes any
	if len(e.Changes) > 0 {
		changes = string(e.Changes)
	}
	var out *model.AuditEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[model.AuditEntry](ctx, conn, auditInsertQuery,
			e.UserID, string(e.Action), e.EntityType, e.EntityID, changes)
		return err
	})
	if err != nil {
		return nil, mapErr(err, nil)
	}
	return out, nil
}

// List returns entries newest first with the total match count.
func (r *AuditRepo) List(ctx context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, int, error) {
	opts.Normalize()
	qo := []database.ListQueryOption{
		database.WithOrderBy("created_at", "DESC"),
		database.WithLimit(opts.Limit),
		database.WithOffset(opts.Offset),
	}
	if opts.UserID != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("user_id", database.Equal, *opts.UserID)))
	}
	if opts.EntityType != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("entity_type", database.Equal, *opts.EntityType)))
	}
	if opts.EntityID != nil {
		qo = append(qo, database.WithCondition(database.WhereCond("entity_id", database.Equal, *opts.EntityID)))
	}
	q := database.NewListQueryOptions("audit_log_details", qo...)

	var (
		out   []*model.AuditEntry
		total int
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		query, args := database.BuildListQuery(q)
		var err error
		if out, err = pgxutil.CollectAll[model.AuditEntry](ctx, conn, query, args...); err != nil {
			return err
		}
		countQuery, countArgs := database.BuildListQuery(q.Count())
		total, err = pgxutil.Count(ctx, conn, countQuery, countArgs...)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", mapErr(err, nil))
	}
	return out, total, nil
}
