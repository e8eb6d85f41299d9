package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/bhajan-library/internal/data/database"
	"github.com/target/bhajan-library/internal/domain/model"
	apperrors "github.com/target/bhajan-library/internal/errors"
	"github.com/target/bhajan-library/internal/testutil"
)

func TestBuildBhajanUpdateClause(t *testing.T) {
	set, args := buildBhajanUpdateClause(map[string]any{
		"title":   "Govinda",
		"status":  "pending_review",
		"bogus":   "ignored",
		"meaning": "praise",
	})
	assert.Equal(t, "meaning = $1, status = $2, title = $3", set)
	assert.Equal(t, []any{"praise", "pending_review", "Govinda"}, args)
}

func TestBuildBhajanQuery(t *testing.T) {
	status := model.BhajanStatusApproved
	search := "50%_off"
	opts := model.BhajanListOptions{Status: &status, Search: &search, Tags: []string{"Aarti"}}
	require.NoError(t, opts.Normalize())

	query, args := database.BuildListQuery(buildBhajanQuery(opts))
	assert.Contains(t, query, `FROM "bhajans" WHERE "status" = $1 AND (title ILIKE $2`)
	assert.Contains(t, query, `lower(tag_name) = ANY($3)`)
	assert.Contains(t, query, `ORDER BY "created_at" DESC LIMIT $4 OFFSET $5`)
	assert.Equal(t, []any{"approved", `%50\%\_off%`, []string{"aarti"}, model.DefaultListLimit, 0}, args)
}

func TestBhajanColumnsMatchStruct(t *testing.T) {
	cols := bhajanColumns()
	assert.Len(t, cols, 17)
	assert.Equal(t, "id", cols[0])
	assert.Equal(t, "updated_at", cols[len(cols)-1])
}

func seedEditor(t *testing.T, db *sql.DB) string {
	t.Helper()
	return testutil.InsertUser(t, db, "editor@example.com", "editor")
}

func TestBhajanRepo_CRUD(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		editor := seedEditor(t, db)
		reviewedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		repo := NewBhajanRepoWithTimeProvider(db, NewFixedTimeProvider(reviewedAt))

		created, err := repo.Create(ctx, model.CreateBhajanRequest{
			Title:  "  Govinda Jaya Jaya ",
			Lyrics: "Govinda jaya jaya gopala jaya jaya",
		}, editor)
		require.NoError(t, err)
		assert.Equal(t, "Govinda Jaya Jaya", created.Title)
		assert.Equal(t, model.BhajanStatusDraft, created.Status)
		assert.Equal(t, editor, created.CreatedBy)

		meaning := "Victory to Govinda"
		updated, err := repo.Update(ctx, created.ID, model.UpdateBhajanRequest{Meaning: &meaning})
		require.NoError(t, err)
		require.NotNil(t, updated.Meaning)
		assert.Equal(t, meaning, *updated.Meaning)

		admin := testutil.InsertUser(t, db, "admin@example.com", "admin")
		reviewed, err := repo.Review(ctx, created.ID, model.ReviewDecision{
			Status: model.BhajanStatusApproved, ReviewedBy: admin, Comment: "lovely",
		})
		require.NoError(t, err)
		assert.Equal(t, model.BhajanStatusApproved, reviewed.Status)
		require.NotNil(t, reviewed.ReviewedAt)
		assert.True(t, reviewed.ReviewedAt.Equal(reviewedAt))

		n, err := repo.CountByStatus(ctx, model.BhajanStatusApproved)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, repo.Delete(ctx, created.ID))
		_, err = repo.GetByID(ctx, created.ID)
		assert.True(t, apperrors.IsNotFound(err))
		assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrBhajanNotFound)
	})
}

func TestBhajanRepo_ListFiltersAndTags(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		editor := seedEditor(t, db)
		repo := NewBhajanRepo(db)
		tags := NewTagRepo(db)

		a := testutil.InsertBhajan(t, db, "Shiva Shambho", "approved", editor)
		testutil.InsertBhajan(t, db, "Rama Rama", "approved", editor)
		testutil.InsertBhajan(t, db, "Draft Song", "draft", editor)
		_, err := tags.Replace(ctx, a, []string{"Shiva", "aarti"})
		require.NoError(t, err)

		approved := model.BhajanStatusApproved
		list, total, err := repo.List(ctx, model.BhajanListOptions{Status: &approved})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, list, 2)

		list, total, err = repo.List(ctx, model.BhajanListOptions{Tags: []string{"AARTI"}})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, a, list[0].ID)
		assert.ElementsMatch(t, []string{"Shiva", "aarti"}, list[0].Tags)

		search := "rama"
		_, total, err = repo.List(ctx, model.BhajanListOptions{Search: &search})
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		_, _, err = repo.List(ctx, model.BhajanListOptions{SortBy: "lyrics; DROP"})
		assert.Error(t, err)
	})
}

func TestBhajanRepo_CreateWritesTags(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewBhajanRepo(db)

		created, err := repo.Create(ctx, model.CreateBhajanRequest{
			Title:  "Hare Krishna",
			Lyrics: "hare krishna hare rama",
			Tags:   []string{"krishna", " Krishna ", "kirtan"},
		}, seedEditor(t, db))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"krishna", "kirtan"}, created.Tags)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"krishna", "kirtan"}, got.Tags)
	})
}

func TestBhajanRepo_UpdateWithTagsRollsBack(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		editor := seedEditor(t, db)
		repo := NewBhajanRepo(db)
		id := testutil.InsertBhajan(t, db, "Old", "draft", editor)
		_, err := NewTagRepo(db).Replace(ctx, id, []string{"shiva"})
		require.NoError(t, err)

		_, err = db.ExecContext(ctx, `
			CREATE FUNCTION reject_blocked_tag() RETURNS trigger AS $$
			BEGIN
				IF NEW.tag_name = 'blocked' THEN
					RAISE EXCEPTION 'tag rejected' USING ERRCODE = 'check_violation';
				END IF;
				RETURN NEW;
			END $$ LANGUAGE plpgsql`)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, `
			CREATE TRIGGER reject_blocked_tag BEFORE INSERT ON bhajan_tags
				FOR EACH ROW EXECUTE FUNCTION reject_blocked_tag()`)
		require.NoError(t, err)
		defer func() {
			_, _ = db.ExecContext(ctx, `DROP TRIGGER reject_blocked_tag ON bhajan_tags`)
			_, _ = db.ExecContext(ctx, `DROP FUNCTION reject_blocked_tag()`)
		}()

		title := "New"
		_, err = repo.UpdateWithTags(ctx, id, model.UpdateBhajanRequest{Title: &title}, []string{"krishna", "blocked"})
		require.Error(t, err)

		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Old", got.Title)
		assert.Equal(t, []string{"shiva"}, got.Tags)

		updated, err := repo.UpdateWithTags(ctx, id, model.UpdateBhajanRequest{Title: &title}, []string{"krishna"})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, []string{"krishna"}, updated.Tags)

		tagsOnly, err := repo.UpdateWithTags(ctx, id, model.UpdateBhajanRequest{}, []string{})
		require.NoError(t, err)
		assert.Equal(t, "New", tagsOnly.Title)
		assert.Empty(t, tagsOnly.Tags)

		_, err = repo.UpdateWithTags(ctx, "00000000-0000-0000-0000-000000000000", model.UpdateBhajanRequest{}, nil)
		assert.ErrorIs(t, err, ErrBhajanNotFound)
	})
}
