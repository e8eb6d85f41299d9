package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/target/bhajan-library/internal/ports"
)

// periodicTask runs tick every interval until the context is cancelled.
type periodicTask struct {
	name     string
	interval time.Duration
	logger   *slog.Logger
	tick     func(ctx context.Context) error
}

// run performs one tick right after a jittered start, then one per interval.
// Returns nil on graceful shutdown (context.Canceled), the context error otherwise.
func (p periodicTask) run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "starting "+p.name, "interval", p.interval)

	// Jitter keeps replicas that start together from ticking in lockstep.
	p.waitWithJitter(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runTick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, p.name+" stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			p.runTick(ctx)
		}
	}
}

func (p periodicTask) runTick(ctx context.Context) {
	if err := p.tick(ctx); err != nil && !isContextCancellation(err) {
		p.logger.ErrorContext(ctx, p.name+" tick failed", "error", err)
	}
}

// waitWithJitter sleeps a random delay up to 10% of the interval.
func (p periodicTask) waitWithJitter(ctx context.Context) {
	maxJitter := int64(p.interval / 10)
	if maxJitter <= 0 {
		return
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		p.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

const auditFlushLockKey = "lock:audit-flush"

// AuditFlusherOptions groups dependencies for AuditFlusher.
type AuditFlusherOptions struct {
	Recorder *AuditRecorder         // Required
	Lock     ports.CacheRepository  // Optional: keeps replicas from flushing concurrently
	Interval time.Duration
	Logger   *slog.Logger
}

// AuditFlusher replays the audit retry queue on an interval.
type AuditFlusher struct {
	recorder *AuditRecorder
	lock     ports.CacheRepository
	interval time.Duration
	logger   *slog.Logger
}

// NewAuditFlusher constructs an AuditFlusher.
func NewAuditFlusher(opts AuditFlusherOptions) (*AuditFlusher, error) {
	if opts.Recorder == nil {
		return nil, errors.New("AuditRecorder is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditFlusher{
		recorder: opts.Recorder,
		lock:     opts.Lock,
		interval: opts.Interval,
		logger:   logger.With("component", "audit_flusher"),
	}, nil
}

// Run flushes until ctx is cancelled.
func (f *AuditFlusher) Run(ctx context.Context) error {
	return periodicTask{name: "audit flusher", interval: f.interval, logger: f.logger, tick: f.FlushOnce}.run(ctx)
}

// FlushOnce flushes the queue if this replica wins the flush lock.
func (f *AuditFlusher) FlushOnce(ctx context.Context) error {
	if f.lock != nil {
		acquired, err := f.lock.SetIfNotExists(ctx, auditFlushLockKey, []byte("1"), f.interval)
		if err != nil {
			return err
		}
		if !acquired {
			f.logger.DebugContext(ctx, "audit flush lock held elsewhere")
			return nil
		}
		defer func() {
			if _, err := f.lock.Delete(context.WithoutCancel(ctx), auditFlushLockKey); err != nil {
				f.logger.WarnContext(ctx, "release audit flush lock", "error", err)
			}
		}()
	}
	_, err := f.recorder.Flush(ctx)
	return err
}
