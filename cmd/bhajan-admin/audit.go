package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jmespath-community/go-jmespath"

	"github.com/target/bhajan-library/internal/data"
	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type auditOptions struct {
	List  model.AuditListOptions
	Query string
}

func runAudit(cmdCtx *commandContext, args []string) error {
	opts, err := parseAuditFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		return printAudit(ctx, cmdCtx.Out, data.NewAuditRepo(db), opts)
	})
}

func parseAuditFlags(args []string) (auditOptions, error) {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var user, entityType, entityID string
	opts := auditOptions{}
	fs.StringVar(&user, "user", "", "Only entries by this user ID")
	fs.StringVar(&entityType, "entity-type", "", "Only entries for this entity type (bhajan, report, tag, user_profile)")
	fs.StringVar(&entityID, "entity-id", "", "Only entries for this entity ID")
	fs.IntVar(&opts.List.Limit, "limit", defaultAuditLimit, "Maximum entries to fetch")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the fetched entries; output becomes JSON")

	if err := fs.Parse(args); err != nil {
		return auditOptions{}, err
	}
	if opts.List.Limit < 1 || opts.List.Limit > maxAuditLimit {
		return auditOptions{}, fmt.Errorf("--limit must be between 1 and %d", maxAuditLimit)
	}
	if entityID != "" && entityType == "" {
		return auditOptions{}, errors.New("--entity-id requires --entity-type")
	}
	opts.List.UserID = optional(user)
	opts.List.EntityType = optional(entityType)
	opts.List.EntityID = optional(entityID)

	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Query != "" {
		if _, err := jmespath.Compile(opts.Query); err != nil {
			return auditOptions{}, fmt.Errorf("invalid --query: %w", err)
		}
	}
	return opts, nil
}

func printAudit(ctx context.Context, w io.Writer, repo ports.AuditRepository, opts auditOptions) error {
	entries, total, err := repo.List(ctx, opts.List)
	if err != nil {
		return fmt.Errorf("list audit entries: %w", err)
	}
	if opts.Query == "" {
		return writeAuditTable(w, entries, total)
	}

	result, err := queryAudit(entries, opts.Query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// queryAudit evaluates expr against entries in their JSON form, so field names in the
// expression match the API's (user_id, entity_type, changes.new_role, ...).
func queryAudit(entries []*model.AuditEntry, expr string) (any, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode entries: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	result, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate query: %w", err)
	}
	return result, nil
}

func writeAuditTable(w io.Writer, entries []*model.AuditEntry, total int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "TIME\tUSER\tACTION\tENTITY\tCHANGES\n"); err != nil {
		return err
	}
	for _, e := range entries {
		user := e.UserID
		if e.UserEmail != nil && *e.UserEmail != "" {
			user = *e.UserEmail
		}
		changes := string(e.Changes)
		if changes == "" {
			changes = "null"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s/%s\t%s\n",
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), user, e.Action, e.EntityType, e.EntityID, changes,
		); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "\n%d of %d entries\n", len(entries), total)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
