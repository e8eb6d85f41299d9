package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/data"
	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

type setRoleOptions struct {
	Email string
	Role  domainauth.Role
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	opts, err := parseSetRoleFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		users := data.NewUserRepo(db)
		updated, err := setRole(ctx, users, data.NewAuditRepo(db), opts)
		if err != nil {
			return err
		}
		return writef(cmdCtx.Out, "%s is now %s\n", updated.Email, updated.Role)
	})
}

// setRole changes the role of the account with opts.Email and audits the change against that
// account, since the CLI has no signed-in actor.
func setRole(
	ctx context.Context,
	profiles ports.ProfileRepository,
	audit ports.AuditRepository,
	opts setRoleOptions,
) (*domainauth.Profile, error) {
	current, err := profiles.GetByEmail(ctx, opts.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", opts.Email, err)
	}
	if current.Role == opts.Role {
		return current, nil
	}
	updated, err := profiles.UpdateRole(ctx, current.ID, opts.Role)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	entry, err := model.NewAuditEntry(current.ID, model.AuditRoleChange, model.EntityUserProfile, current.ID,
		map[string]string{"old_role": string(current.Role), "new_role": string(updated.Role), "via": "cli"})
	if err == nil {
		_, err = audit.Append(ctx, entry)
	}
	if err != nil {
		return updated, fmt.Errorf("role changed but audit failed: %w", err)
	}
	return updated, nil
}

func parseSetRoleFlags(args []string) (setRoleOptions, error) {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var email, role string
	fs.StringVar(&email, "email", "", "Email of the account to change")
	fs.StringVar(&role, "role", "", "New role: user, editor or admin")

	if err := fs.Parse(args); err != nil {
		return setRoleOptions{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return setRoleOptions{}, errors.New("--email is required")
	}
	parsed, ok := domainauth.ParseRole(role)
	if !ok {
		return setRoleOptions{}, fmt.Errorf("--role must be user, editor or admin, got %q", role)
	}
	return setRoleOptions{Email: email, Role: parsed}, nil
}
