package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

// AuditOutcome reports what happened to one audit entry.
type AuditOutcome string

const (
	AuditRecorded AuditOutcome = "recorded"
	AuditQueued   AuditOutcome = "queued"
	AuditDropped  AuditOutcome = "dropped"
	AuditReplayed AuditOutcome = "replayed"
)

const (
	defaultAuditMaxAttempts = 5
	defaultAuditFlushBatch  = 100
	auditUserHistoryLimit   = 100
)

// AuditRecorderConfig tunes the retry policy.
type AuditRecorderConfig struct {
	MaxAttempts int
	FlushBatch  int
}

// AuditRecorderOptions groups dependencies for AuditRecorder.
type AuditRecorderOptions struct {
	Repo    ports.AuditRepository // Required
	Queue   ports.AuditQueue      // Optional: without it failed entries are dropped
	Config  AuditRecorderConfig
	Logger  *slog.Logger
	Metrics Metrics
	Now     func() time.Time
}

// AuditRecorder appends audit entries after privileged mutations. Entries whose append fails
// are parked in a retry queue and replayed by Flush.
type AuditRecorder struct {
	repo    ports.AuditRepository
	queue   ports.AuditQueue
	cfg     AuditRecorderConfig
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

// NewAuditRecorder constructs an AuditRecorder.
func NewAuditRecorder(opts AuditRecorderOptions) (*AuditRecorder, error) {
	if opts.Repo == nil {
		return nil, errors.New("AuditRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaultAuditMaxAttempts
	}
	if cfg.FlushBatch < 1 {
		cfg.FlushBatch = defaultAuditFlushBatch
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuditRecorder{
		repo:    opts.Repo,
		queue:   opts.Queue,
		cfg:     cfg,
		logger:  logger.With("component", "audit_recorder"),
		metrics: metricsOrNoop(opts.Metrics),
		now:     now,
	}, nil
}

// Record appends entry. It never returns an error: a failed append is queued for retry, and a
// failed enqueue is logged and dropped.
func (r *AuditRecorder) Record(ctx context.Context, entry model.AuditEntry) AuditOutcome {
	_, err := r.repo.Append(ctx, entry)
	if err == nil {
		r.metrics.ObserveAudit(string(AuditRecorded))
		return AuditRecorded
	}

	r.logger.WarnContext(ctx, "audit append failed",
		"action", entry.Action,
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
		"phase", PhasePrimaryDone,
		"error", err,
	)

	outcome := r.enqueue(context.WithoutCancel(ctx), ports.QueuedAudit{Entry: entry, Attempts: 1, QueuedAt: r.now().UTC()})
	r.metrics.ObserveAudit(string(outcome))
	return outcome
}

func (r *AuditRecorder) enqueue(ctx context.Context, item ports.QueuedAudit) AuditOutcome {
	if r.queue == nil {
		r.logger.ErrorContext(ctx, "audit entry dropped: no retry queue",
			"action", item.Entry.Action, "entity_type", item.Entry.EntityType, "entity_id", item.Entry.EntityID)
		return AuditDropped
	}
	if err := r.queue.Push(ctx, item); err != nil {
		r.logger.ErrorContext(ctx, "audit entry dropped: enqueue failed",
			"action", item.Entry.Action,
			"entity_type", item.Entry.EntityType,
			"entity_id", item.Entry.EntityID,
			"error", err,
		)
		return AuditDropped
	}
	r.updateDepth(ctx)
	return AuditQueued
}

// FlushStats summarizes one Flush.
type FlushStats struct {
	Replayed int `json:"replayed"`
	Requeued int `json:"requeued"`
	Dropped  int `json:"dropped"`
}

// Flush replays the entries queued when Flush started. Entries that fail again go back to the
// queue with one more attempt until MaxAttempts is reached.
func (r *AuditRecorder) Flush(ctx context.Context) (FlushStats, error) {
	var stats FlushStats
	if r.queue == nil {
		return stats, nil
	}
	pending, err := r.queue.Len(ctx)
	if err != nil {
		return stats, fmt.Errorf("audit queue length: %w", err)
	}

	for remaining := int(pending); remaining > 0; remaining -= r.cfg.FlushBatch {
		items, err := r.queue.Pop(ctx, min(remaining, r.cfg.FlushBatch))
		if err != nil {
			return stats, fmt.Errorf("pop audit queue: %w", err)
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			r.replay(ctx, item, &stats)
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
	}

	r.updateDepth(ctx)
	if stats != (FlushStats{}) {
		r.logger.InfoContext(ctx, "flushed audit queue",
			"replayed", stats.Replayed, "requeued", stats.Requeued, "dropped", stats.Dropped)
	}
	return stats, nil
}

func (r *AuditRecorder) replay(ctx context.Context, item ports.QueuedAudit, stats *FlushStats) {
	if _, err := r.repo.Append(ctx, item.Entry); err == nil {
		stats.Replayed++
		r.metrics.ObserveAudit(string(AuditReplayed))
		return
	}

	item.Attempts++
	if item.Attempts >= r.cfg.MaxAttempts {
		stats.Dropped++
		r.metrics.ObserveAudit(string(AuditDropped))
		r.logger.ErrorContext(ctx, "audit entry dropped after retries",
			"action", item.Entry.Action,
			"entity_type", item.Entry.EntityType,
			"entity_id", item.Entry.EntityID,
			"attempts", item.Attempts,
			"queued_at", item.QueuedAt,
		)
		return
	}
	if r.enqueue(ctx, item) == AuditQueued {
		stats.Requeued++
		return
	}
	stats.Dropped++
}

func (r *AuditRecorder) updateDepth(ctx context.Context) {
	if r.queue == nil {
		return
	}
	n, err := r.queue.Len(ctx)
	if err != nil {
		return
	}
	r.metrics.SetAuditQueueDepth(n)
}

// List returns one page of the audit log, newest first, with the total match count.
func (r *AuditRecorder) List(ctx context.Context, opts model.AuditListOptions) ([]*model.AuditEntry, int, error) {
	opts.Normalize()
	return r.repo.List(ctx, opts)
}

// ForEntity returns the history of one entity.
func (r *AuditRecorder) ForEntity(ctx context.Context, entityType, entityID string) ([]*model.AuditEntry, error) {
	entries, _, err := r.repo.List(ctx, model.AuditListOptions{
		EntityType: &entityType,
		EntityID:   &entityID,
		Limit:      model.MaxListLimit,
	})
	return entries, err
}

// ForUser returns the latest actions of one user.
func (r *AuditRecorder) ForUser(ctx context.Context, userID string) ([]*model.AuditEntry, error) {
	entries, _, err := r.repo.List(ctx, model.AuditListOptions{UserID: &userID, Limit: auditUserHistoryLimit})
	return entries, err
}

// Recent returns the latest limit entries.
func (r *AuditRecorder) Recent(ctx context.Context, limit int) ([]*model.AuditEntry, error) {
	opts := model.AuditListOptions{Limit: limit}
	opts.Normalize()
	entries, _, err := r.repo.List(ctx, opts)
	return entries, err
}
