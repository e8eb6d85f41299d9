package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/ports"
)

const (
	siteStatsCacheKey      = "stats:site"
	defaultSiteStatsTTL    = time.Minute
	defaultMostViewedLimit = 10
)

// AnalyticsServiceOptions groups dependencies for AnalyticsService.
type AnalyticsServiceOptions struct {
	Repo   ports.StatsRepository // Required
	Cache  SiteStatsCacheOptions // Optional
	Logger *slog.Logger
}

// SiteStatsCacheOptions configures the site statistics cache.
type SiteStatsCacheOptions struct {
	Repo ports.CacheRepository
	TTL  time.Duration
}

// AnalyticsService counts views and visits and serves public statistics. It is shared by all
// clients and holds no per-client state.
type AnalyticsService struct {
	repo     ports.StatsRepository
	cache    ports.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(opts AnalyticsServiceOptions) (*AnalyticsService, error) {
	if opts.Repo == nil {
		return nil, errors.New("StatsRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.Cache.TTL
	if ttl <= 0 {
		ttl = defaultSiteStatsTTL
	}
	return &AnalyticsService{
		repo:     opts.Repo,
		cache:    opts.Cache.Repo,
		cacheTTL: ttl,
		logger:   logger.With("component", "analytics"),
	}, nil
}

// TrackBhajanView counts one view. Failures are logged and swallowed.
func (s *AnalyticsService) TrackBhajanView(ctx context.Context, bhajanID string) {
	if bhajanID == "" {
		return
	}
	if err := s.repo.IncrementBhajanView(ctx, bhajanID); err != nil {
		s.logger.WarnContext(ctx, "track bhajan view", "bhajan_id", bhajanID, "error", err)
	}
}

// TrackHomeVisit counts one home page visit. Failures are logged and swallowed.
func (s *AnalyticsService) TrackHomeVisit(ctx context.Context) {
	if err := s.repo.IncrementHomeVisits(ctx); err != nil {
		s.logger.WarnContext(ctx, "track home visit", "error", err)
	}
}

// SiteStatistics returns the public counters, served from cache when fresh.
func (s *AnalyticsService) SiteStatistics(ctx context.Context) (*model.SiteStatistics, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, siteStatsCacheKey)
		if err != nil {
			s.logger.WarnContext(ctx, "read site stats cache", "error", err)
		} else if raw != nil {
			var cached model.SiteStatistics
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	stats, err := s.repo.Site(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, siteStatsCacheKey, raw, s.cacheTTL); err != nil {
				s.logger.WarnContext(ctx, "write site stats cache", "error", err)
			}
		}
	}
	return stats, nil
}

// MostViewed lists approved bhajans by view count. limit defaults to 10.
func (s *AnalyticsService) MostViewed(ctx context.Context, limit int) ([]*model.ViewedBhajan, error) {
	if limit <= 0 {
		limit = defaultMostViewedLimit
	}
	return s.repo.MostViewed(ctx, min(limit, model.MaxListLimit))
}
