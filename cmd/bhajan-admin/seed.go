package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/target/bhajan-library/internal/bootstrap"
	"github.com/target/bhajan-library/internal/data"
	"github.com/target/bhajan-library/internal/devseed"
)

type seedOptions struct {
	File        string
	AllowRemote bool
	Migrate     bool
}

func runSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedFlags(args)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	seed, err := devseed.Load(f)
	if cerr := f.Close(); cerr != nil {
		cmdCtx.Logger.Warn("seed file close failed", "error", cerr)
	}
	if err != nil {
		return err
	}

	if _, err := guardRemoteHost(cmdCtx, opts.AllowRemote, "create accounts and bhajans"); err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultMigrationTimeout, func(ctx context.Context, db *sql.DB) error {
		if opts.Migrate {
			if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		users := data.NewUserRepo(db)
		sum, err := devseed.Run(ctx, devseed.Deps{
			Accounts: users,
			Profiles: users,
			Bhajans:  data.NewBhajanRepo(db),
			Audit:    data.NewAuditRepo(db),
			Logger:   cmdCtx.Logger,
		}, seed)
		if werr := writef(cmdCtx.Out, "accounts=%d created=%d skipped=%d\n", sum.Accounts, sum.Created, sum.Skipped); werr != nil {
			err = errors.Join(err, werr)
		}
		return err
	})
}

func parseSeedFlags(args []string) (seedOptions, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts seedOptions
	fs.StringVar(&opts.File, "file", "", "Path to the YAML seed file")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Allow seeding a database host that does not look local")
	fs.BoolVar(&opts.Migrate, "migrate", true, "Run migrations before seeding")

	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}
	if opts.File == "" {
		return seedOptions{}, errors.New("--file is required")
	}
	return opts, nil
}
