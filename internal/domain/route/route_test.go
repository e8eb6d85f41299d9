package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		flags  Flags
		want   Outcome
	}{
		{"open page anonymous", Intent{}, Flags{}, Allowed},
		{"guest page anonymous", Intent{GuestOnly: true}, Flags{}, Allowed},
		{"guest page authenticated", Intent{GuestOnly: true}, Flags{Authenticated: true}, RedirectedToHome},
		{"auth page anonymous", Intent{RequiresAuth: true}, Flags{}, RedirectedToLogin},
		{"auth page authenticated", Intent{RequiresAuth: true}, Flags{Authenticated: true}, Allowed},
		{
			"editor page plain user",
			Intent{RequiresAuth: true, RequiresEditor: true},
			Flags{Authenticated: true},
			RedirectedToHome,
		},
		{
			"editor page editor",
			Intent{RequiresAuth: true, RequiresEditor: true},
			Flags{Authenticated: true, Editor: true},
			Allowed,
		},
		{
			"admin page editor",
			Intent{RequiresAuth: true, RequiresAdmin: true},
			Flags{Authenticated: true, Editor: true},
			RedirectedToHome,
		},
		{
			"admin page admin",
			Intent{RequiresAuth: true, RequiresAdmin: true},
			Flags{Authenticated: true, Editor: true, Admin: true},
			Allowed,
		},
		{
			"auth check precedes role checks",
			Intent{RequiresAuth: true, RequiresEditor: true, RequiresAdmin: true},
			Flags{},
			RedirectedToLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.intent, tt.flags, "/x").Outcome)
		})
	}
}

func TestDecide_GuestOnlyAuthenticatedAlwaysHome(t *testing.T) {
	for mask := 0; mask < 1<<5; mask++ {
		intent := Intent{
			GuestOnly:      true,
			RequiresAuth:   mask&1 != 0,
			RequiresEditor: mask&2 != 0,
			RequiresAdmin:  mask&4 != 0,
		}
		flags := Flags{Authenticated: true, Editor: mask&8 != 0, Admin: mask&16 != 0}

		d := Decide(intent, flags, "/login")
		assert.Equal(t, RedirectedToHome, d.Outcome, "intent=%+v flags=%+v", intent, flags)
		assert.Equal(t, HomePath, d.Location)
	}
}

func TestDecide_IsPureOverAllCombinations(t *testing.T) {
	for mask := 0; mask < 1<<7; mask++ {
		intent := Intent{
			GuestOnly:      mask&1 != 0,
			RequiresAuth:   mask&2 != 0,
			RequiresEditor: mask&4 != 0,
			RequiresAdmin:  mask&8 != 0,
		}
		flags := Flags{Authenticated: mask&16 != 0, Editor: mask&32 != 0, Admin: mask&64 != 0}

		first := Decide(intent, flags, "/p")
		assert.Equal(t, first, Decide(intent, flags, "/p"))
		if first.Outcome == Allowed {
			assert.Empty(t, first.Location)
		} else {
			assert.NotEmpty(t, first.Location)
		}
	}
}

func TestDecide_EditorCheckShortCircuitsAdmin(t *testing.T) {
	intent := Intent{RequiresAuth: true, RequiresEditor: true, RequiresAdmin: true}
	d := Decide(intent, Flags{Authenticated: true}, "/admin/x")
	assert.Equal(t, RedirectedToHome, d.Outcome)
	assert.Equal(t, "/", d.Location)
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login?redirect=/bhajan/create", LoginURL("/bhajan/create"))
	assert.Equal(t, "/login?redirect=/admin%3Ftab%3Dusers", LoginURL("/admin?tab=users"))
	assert.Equal(t, "/login", LoginURL(""))
}

func TestSafeReturnPath(t *testing.T) {
	assert.Equal(t, "/my-bhajans", SafeReturnPath("/my-bhajans"))
	assert.Equal(t, "/admin?tab=users", SafeReturnPath("/admin?tab=users"))
	for _, bad := range []string{"", "https://evil.example", "//evil.example", `/\evil`, "relative"} {
		assert.Equal(t, HomePath, SafeReturnPath(bad), bad)
	}
}

func TestTable_Lookup(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		path     string
		name     string
		params   map[string]string
		editor   bool
		admin    bool
		guest    bool
		authOnly bool
	}{
		{path: "/", name: NameHome},
		{path: "/login?redirect=/admin", name: NameLogin, guest: true},
		{path: "/signup", name: NameSignup, guest: true},
		{path: "/bhajan/create", name: NameBhajanCreate, editor: true, authOnly: true},
		{path: "/bhajan/abc", name: NameBhajanDetail, params: map[string]string{"id": "abc"}},
		{path: "/bhajan/abc/edit", name: NameBhajanEdit, params: map[string]string{"id": "abc"}, editor: true, authOnly: true},
		{path: "/my-bhajans/", name: NameMyBhajans, editor: true, authOnly: true},
		{path: "/admin", name: NameAdminDashboard, admin: true, authOnly: true},
		{path: "/admin/review-queue", name: NameAdminReviewQueue, admin: true, authOnly: true},
		{path: "/admin/reports", name: NameAdminReports, admin: true, authOnly: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			intent, params, ok := table.Lookup(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.name, intent.Name)
			assert.Equal(t, tt.params, params)
			assert.Equal(t, tt.editor, intent.RequiresEditor)
			assert.Equal(t, tt.admin, intent.RequiresAdmin)
			assert.Equal(t, tt.guest, intent.GuestOnly)
			assert.Equal(t, tt.authOnly, intent.RequiresAuth)
		})
	}

	_, _, ok := table.Lookup("/nope/at/all")
	assert.False(t, ok)
}

func TestTable_ByName(t *testing.T) {
	intent, ok := DefaultTable().ByName(NameAdminReports)
	require.True(t, ok)
	assert.Equal(t, "/admin/reports", intent.Pattern)

	_, ok = DefaultTable().ByName("missing")
	assert.False(t, ok)
}
