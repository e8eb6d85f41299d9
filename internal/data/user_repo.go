package data

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/bhajan-library/internal/data/pgxutil"
	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/ports"
)

const profileColumnList = `id, email, role, display_name, created_at, updated_at`

const (
	userInsertQuery = `INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`

	profileInsertQuery = `
		INSERT INTO user_profiles (id, email, role) VALUES ($1, $2, $3)
		RETURNING ` + profileColumnList

	profileByIDQuery    = `SELECT ` + profileColumnList + ` FROM user_profiles WHERE id = $1`
	profileByEmailQuery = `SELECT ` + profileColumnList + ` FROM user_profiles WHERE lower(email) = lower($1)`

	profileUpdateRoleQuery = `
		UPDATE user_profiles SET role = $2 WHERE id = $1
		RETURNING ` + profileColumnList

	profileListQuery = `
		SELECT ` + profileColumnList + ` FROM user_profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	credentialsQuery = `SELECT id, email, password_hash FROM users WHERE lower(email) = lower($1)`

	consumeResetTokenQuery = `
		UPDATE users SET reset_token_hash = NULL, reset_expires_at = NULL
		WHERE reset_token_hash = $1 AND reset_expires_at > $2
		RETURNING id`
)

// UserRepo stores login accounts and their role-bearing profiles.
type UserRepo struct {
	DB *sql.DB
}

var (
	_ ports.AccountRepository = (*UserRepo)(nil)
	_ ports.ProfileRepository = (*UserRepo)(nil)
)

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateAccount inserts the login row and its profile in one transaction.
func (r *UserRepo) CreateAccount(
	ctx context.Context,
	email, passwordHash string,
	role domainauth.Role,
) (*domainauth.Profile, error) {
	var out *domainauth.Profile
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		var id string
		if err := tx.QueryRow(ctx, userInsertQuery, email, passwordHash).Scan(&id); err != nil {
			return err
		}
		var err error
		out, err = pgxutil.CollectOne[domainauth.Profile](ctx, tx, profileInsertQuery, id, email, string(role))
		return err
	}})
	if err != nil {
		mapped := mapErr(err, nil)
		if apperrors.IsConflict(mapped) {
			return nil, ErrEmailTaken
		}
		return nil, mapped
	}
	return out, nil
}

func (r *UserRepo) GetCredentials(ctx context.Context, email string) (*ports.Credentials, error) {
	var c ports.Credentials
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, credentialsQuery, email).Scan(&c.UserID, &c.Email, &c.PasswordHash)
	})
	if err != nil {
		return nil, mapErr(err, ErrAccountNotFound)
	}
	return &c, nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
}

// SetResetToken stores the hash of a password reset token. A newer token replaces an older one.
func (r *UserRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return r.execOne(ctx,
		`UPDATE users SET reset_token_hash = $2, reset_expires_at = $3 WHERE id = $1`,
		userID, tokenHash, expiresAt.UTC())
}

// ConsumeResetToken clears a live token and returns the owning user id. Tokens are single use.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var id string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, consumeResetTokenQuery, tokenHash, now.UTC()).Scan(&id)
	})
	if err != nil {
		return "", mapErr(err, ErrResetTokenInvalid)
	}
	return id, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domainauth.Profile, error) {
	return r.getProfile(ctx, profileByIDQuery, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domainauth.Profile, error) {
	return r.getProfile(ctx, profileByEmailQuery, email)
}

func (r *UserRepo) UpdateRole(ctx context.Context, id string, role domainauth.Role) (*domainauth.Profile, error) {
	if !role.Valid() {
		return nil, apperrors.ValidationField("role", "Role must be user, editor or admin")
	}
	return r.getProfile(ctx, profileUpdateRoleQuery, id, string(role))
}

// List returns profiles newest first with the total count.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*domainauth.Profile, int, error) {
	if limit <= 0 {
		limit = 50
	}
	offset = max(offset, 0)
	var (
		out   []*domainauth.Profile
		total int
	)
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		if out, err = pgxutil.CollectAll[domainauth.Profile](ctx, conn, profileListQuery, limit, offset); err != nil {
			return err
		}
		total, err = pgxutil.Count(ctx, conn, `SELECT COUNT(*) FROM user_profiles`)
		return err
	})
	if err != nil {
		return nil, 0, mapErr(err, nil)
	}
	return out, total, nil
}

func (r *UserRepo) getProfile(ctx context.Context, query string, args ...any) (*domainauth.Profile, error) {
	var out *domainauth.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectOne[domainauth.Profile](ctx, conn, query, args...)
		return err
	})
	if err != nil {
		return nil, mapErr(err, ErrProfileNotFound)
	}
	return out, nil
}

var errNoRowsAffected = errors.New("no rows affected")

func (r *UserRepo) execOne(ctx context.Context, query string, args ...any) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return errNoRowsAffected
		}
		return nil
	})
	if errors.Is(err, errNoRowsAffected) {
		return ErrAccountNotFound
	}
	return mapErr(err, nil)
}
