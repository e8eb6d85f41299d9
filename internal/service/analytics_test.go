package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/bhajan-library/internal/domain/model"
	"github.com/target/bhajan-library/internal/mocks"
)

func TestNewAnalyticsService_RequiresRepo(t *testing.T) {
	_, err := NewAnalyticsService(AnalyticsServiceOptions{})
	require.Error(t, err)
}

func TestAnalyticsService_TrackingSwallowsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatsRepository(ctrl)
	repo.EXPECT().IncrementBhajanView(gomock.Any(), "b-1").Return(errors.New("rpc failed"))
	repo.EXPECT().IncrementHomeVisits(gomock.Any()).Return(nil)

	svc, err := NewAnalyticsService(AnalyticsServiceOptions{Repo: repo})
	require.NoError(t, err)

	svc.TrackBhajanView(context.Background(), "b-1")
	svc.TrackBhajanView(context.Background(), "")
	svc.TrackHomeVisit(context.Background())
}

func TestAnalyticsService_SiteStatisticsCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatsRepository(ctrl)
	repo.EXPECT().Site(gomock.Any()).Return(&model.SiteStatistics{HomeVisits: 12, TotalViews: 40}, nil).Times(1)

	svc, err := NewAnalyticsService(AnalyticsServiceOptions{Repo: repo, Cache: SiteStatsCacheOptions{Repo: newMemCache()}})
	require.NoError(t, err)

	for range 3 {
		stats, err := svc.SiteStatistics(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(12), stats.HomeVisits)
		assert.Equal(t, int64(40), stats.TotalViews)
	}
}

func TestAnalyticsService_MostViewedDefaultsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockStatsRepository(ctrl)
	repo.EXPECT().MostViewed(gomock.Any(), 10).Return([]*model.ViewedBhajan{{ID: "b-1", ViewCount: 9}}, nil)
	repo.EXPECT().MostViewed(gomock.Any(), model.MaxListLimit).Return(nil, nil)

	svc, err := NewAnalyticsService(AnalyticsServiceOptions{Repo: repo})
	require.NoError(t, err)

	top, err := svc.MostViewed(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	_, err = svc.MostViewed(context.Background(), 10_000)
	require.NoError(t, err)
}
