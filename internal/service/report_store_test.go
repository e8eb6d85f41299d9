package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
)

func newReportStore(t *testing.T, repo *memReports, actor ActorSource, audit *memAudit) *ReportStore {
	t.Helper()
	s, err := NewReportStore(ReportStoreOptions{Repo: repo, Deps: storeDeps(t, actor, audit, nil)})
	require.NoError(t, err)
	return s
}

func TestReportStore_CreateAndModerate(t *testing.T) {
	repo, audit := &memReports{}, &memAudit{}
	reporter := newReportStore(t, repo, actorAs("u1", domainauth.RoleUser), audit)
	admin := newReportStore(t, repo, actorAs("admin-1", domainauth.RoleAdmin), audit)
	ctx := context.Background()

	created := reporter.Create(ctx, model.CreateReportRequest{BhajanID: "b-1", IssueType: " Incorrect_Lyrics "})
	require.True(t, created.Success, created.Error)
	assert.Equal(t, PhaseAudited, created.Phase)
	report := created.Data.(*model.Report)
	assert.Equal(t, model.IssueIncorrectLyrics, report.IssueType)
	require.Len(t, reporter.Snapshot().UserReports, 1)

	require.True(t, admin.FetchAll(ctx, model.ReportListOptions{}).Success)
	require.Len(t, admin.Snapshot().Reports, 1)

	review := admin.MarkUnderReview(ctx, report.ID)
	require.True(t, review.Success)
	assert.Equal(t, model.ReportStatusUnderReview, admin.Snapshot().Reports[0].Status)

	resolved := admin.Resolve(ctx, report.ID, "fixed the typo")
	require.True(t, resolved.Success)
	assert.Equal(t, model.ReportStatusResolved, admin.Snapshot().Reports[0].Status)

	entries := audit.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, model.AuditCreateReport, entries[0].Action)
	assert.JSONEq(t, `{"bhajan_id":"b-1","issue_type":"incorrect_lyrics"}`, string(entries[0].Changes))
	assert.Equal(t, model.AuditMarkUnderReview, entries[1].Action)
	assert.Nil(t, entries[1].Changes)
	assert.Equal(t, model.AuditResolveReport, entries[2].Action)
	assert.JSONEq(t, `{"resolution_comment":"fixed the typo"}`, string(entries[2].Changes))
	assert.Equal(t, "admin-1", entries[2].UserID)
}

func TestReportStore_ModerationRequiresAdmin(t *testing.T) {
	repo := &memReports{}
	store := newReportStore(t, repo, actorAs("e1", domainauth.RoleEditor), &memAudit{})

	assert.True(t, apperrors.IsNotAuthorized(store.Dismiss(context.Background(), "r-1", "").Err()))
	assert.True(t, apperrors.IsNotAuthorized(store.FetchAll(context.Background(), model.ReportListOptions{}).Err()))
	assert.True(t, apperrors.IsNotAuthorized(store.Stats(context.Background()).Err()))
	assert.True(t, apperrors.IsNotAuthorized(store.FetchForBhajan(context.Background(), "b-1").Err()))
}

func TestReportStore_CreateRequiresUserAndValidInput(t *testing.T) {
	anon := newReportStore(t, &memReports{}, actorAs("", ""), &memAudit{})
	res := anon.Create(context.Background(), model.CreateReportRequest{BhajanID: "b-1", IssueType: model.IssueOther})
	assert.True(t, apperrors.IsNotAuthenticated(res.Err()))

	user := newReportStore(t, &memReports{}, actorAs("u1", domainauth.RoleUser), &memAudit{})
	res = user.Create(context.Background(), model.CreateReportRequest{BhajanID: "b-1", IssueType: "spam"})
	assert.True(t, apperrors.IsValidation(res.Err()))
}

func TestReportStore_FailureKeepsMirror(t *testing.T) {
	repo, audit := &memReports{}, &memAudit{}
	admin := newReportStore(t, repo, actorAs("admin-1", domainauth.RoleAdmin), audit)
	require.True(t, admin.Create(context.Background(), model.CreateReportRequest{BhajanID: "b-1", IssueType: model.IssueDuplicate}).Success)
	require.True(t, admin.FetchAll(context.Background(), model.ReportListOptions{}).Success)
	repo.Err = errors.New("timeout")

	res := admin.Resolve(context.Background(), "r-1", "")

	assert.False(t, res.Success)
	assert.Equal(t, model.ReportStatusOpen, admin.Snapshot().Reports[0].Status)
	assert.Equal(t, "timeout", admin.LastError())
	assert.Len(t, audit.Entries(), 1)
}

func TestReportStore_Stats(t *testing.T) {
	repo := &memReports{}
	admin := newReportStore(t, repo, actorAs("admin-1", domainauth.RoleAdmin), &memAudit{})
	for range 2 {
		require.True(t, admin.Create(context.Background(), model.CreateReportRequest{BhajanID: "b-1", IssueType: model.IssueOther}).Success)
	}
	require.True(t, admin.Dismiss(context.Background(), "r-2", "not an issue").Success)

	res := admin.Stats(context.Background())

	require.True(t, res.Success)
	assert.Equal(t, &model.ReportStats{Total: 2, Open: 1, Dismissed: 1}, res.Data)
}
