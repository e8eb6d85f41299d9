package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/target/bhajan-library/internal/adapters/redis"
	"github.com/target/bhajan-library/internal/data"
	"github.com/target/bhajan-library/internal/service"
)

func runFlushAudit(cmdCtx *commandContext, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("flush-audit takes no arguments, got %v", args)
	}
	rdb, err := connectRedis(cmdCtx.Logger, &cmdCtx.Config.Redis)
	if errors.Is(err, errRedisNotConfigured) {
		return errors.New("flush-audit needs Redis; set REDIS_URI")
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(nil, rdb); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		recorder, err := service.NewAuditRecorder(service.AuditRecorderOptions{
			Repo:  data.NewAuditRepo(db),
			Queue: redis.NewAuditQueue(rdb, cmdCtx.Config.Audit.RetryQueue, cmdCtx.Logger),
			Config: service.AuditRecorderConfig{
				MaxAttempts: cmdCtx.Config.Audit.MaxAttempts,
				FlushBatch:  cmdCtx.Config.Audit.FlushBatch,
			},
			Logger: cmdCtx.Logger,
		})
		if err != nil {
			return err
		}
		stats, err := recorder.Flush(ctx)
		if err != nil {
			return fmt.Errorf("flush audit queue: %w", err)
		}
		return writef(cmdCtx.Out, "replayed=%d requeued=%d dropped=%d\n", stats.Replayed, stats.Requeued, stats.Dropped)
	})
}
