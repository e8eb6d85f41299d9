// Package mocks provides gomock mocks of the ports the service layer depends on.
//
// The mocks are generated with go.uber.org/mock (gomock). Hand-written fakes for the auth
// surface live in the auth subpackage.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockAuditRepository(ctrl)
//	repo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(entry, nil)
package mocks

// AuditRepository: Append, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=audit_repository_mock.go github.com/target/bhajan-library/internal/ports AuditRepository

// AuditQueue: Push, Pop, Len
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=audit_queue_mock.go github.com/target/bhajan-library/internal/ports AuditQueue

// StatsRepository: Dashboard, Site, IncrementBhajanView, IncrementHomeVisits, MostViewed
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=stats_repository_mock.go github.com/target/bhajan-library/internal/ports StatsRepository
