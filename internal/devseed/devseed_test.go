package devseed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
	"github.com/target/bhajan-library/internal/mocks/memory"
)

const seedYAML = `
accounts:
  - email: Admin@Example.com
    password: admin-password
    role: admin
  - email: editor@example.com
    password: editor-password
    role: editor
bhajans:
  - owner: editor@example.com
    title: "  Om Namah Shivaya "
    lyrics: |
      Om namah shivaya
    meaning: Salutations to Shiva
    tags: [shiva, " Morning "]
    approved: true
  - owner: editor@example.com
    title: Govinda Bolo
    lyrics: Govinda bolo hari gopala bolo
`

type fixture struct {
	accounts *mockauth.MemoryAccounts
	bhajans  *memory.Bhajans
	audit    *memory.Audit
	deps     Deps
}

func newFixture() *fixture {
	f := &fixture{
		accounts: mockauth.NewMemoryAccounts(),
		bhajans:  memory.NewBhajans(),
		audit:    &memory.Audit{},
	}
	f.deps = Deps{
		Accounts: f.accounts,
		Profiles: f.accounts,
		Bhajans:  f.bhajans,
		Audit:    f.audit,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return f
}

func TestLoad(t *testing.T) {
	file, err := Load(strings.NewReader(seedYAML))
	require.NoError(t, err)

	require.Len(t, file.Accounts, 2)
	require.Len(t, file.Bhajans, 2)
	assert.True(t, file.Bhajans[0].Approved)
	require.NotNil(t, file.Bhajans[0].Meaning)
	assert.Equal(t, "Salutations to Shiva", *file.Bhajans[0].Meaning)

	_, err = Load(strings.NewReader("bhajans:\n  - titel: typo\n"))
	assert.Error(t, err)

	empty, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Bhajans)
}

func TestRun_SeedsAccountsAndBhajans(t *testing.T) {
	f := newFixture()
	file, err := Load(strings.NewReader(seedYAML))
	require.NoError(t, err)

	sum, err := Run(t.Context(), f.deps, file)

	require.NoError(t, err)
	assert.Equal(t, Summary{Accounts: 2, Created: 2}, sum)

	admin, err := f.accounts.GetByEmail(t.Context(), "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, admin.Role)

	editor, err := f.accounts.GetByEmail(t.Context(), "editor@example.com")
	require.NoError(t, err)
	rows, _, err := f.bhajans.List(t.Context(), model.BhajanListOptions{CreatedBy: &editor.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byTitle := map[string]*model.Bhajan{}
	for _, r := range rows {
		byTitle[r.Title] = r
	}
	require.Contains(t, byTitle, "Om Namah Shivaya")
	assert.Equal(t, model.BhajanStatusApproved, byTitle["Om Namah Shivaya"].Status)
	assert.Equal(t, model.BhajanStatusDraft, byTitle["Govinda Bolo"].Status)

	assert.ElementsMatch(t, []string{"shiva", "Morning"}, byTitle["Om Namah Shivaya"].Tags)

	var actions []model.AuditAction
	for _, e := range f.audit.Entries() {
		assert.Equal(t, editor.ID, e.UserID)
		actions = append(actions, e.Action)
	}
	assert.ElementsMatch(t, []model.AuditAction{model.AuditCreate, model.AuditApprove, model.AuditCreate}, actions)
}

func TestRun_IsIdempotent(t *testing.T) {
	f := newFixture()
	file, err := Load(strings.NewReader(seedYAML))
	require.NoError(t, err)

	_, err = Run(t.Context(), f.deps, file)
	require.NoError(t, err)
	sum, err := Run(t.Context(), f.deps, file)

	require.NoError(t, err)
	assert.Equal(t, Summary{Accounts: 2, Skipped: 2}, sum)
	assert.Equal(t, 2, f.accounts.Created())
}

func TestRun_CountsFailuresAndContinues(t *testing.T) {
	f := newFixture()
	file := File{
		Accounts: []Account{{Email: "x@example.com", Password: "long-password", Role: "owner"}},
		Bhajans: []Bhajan{
			{Owner: "nobody@example.com", Title: "Lost", Lyrics: "L"},
			{Owner: "x@example.com", Title: "", Lyrics: "L"},
		},
	}

	sum, err := Run(context.Background(), f.deps, file)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 seed errors")
	assert.Equal(t, Summary{}, sum)
	assert.Zero(t, f.bhajans.Calls())
}

func TestRun_RequiresRepositories(t *testing.T) {
	_, err := Run(t.Context(), Deps{}, File{})
	assert.Error(t, err)
}
