package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/bhajan-library/config"
	domainauth "github.com/target/bhajan-library/internal/domain/auth"
	"github.com/target/bhajan-library/internal/domain/model"
	mockauth "github.com/target/bhajan-library/internal/mocks/auth"
	"github.com/target/bhajan-library/internal/mocks/memory"
)

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	for name := range commands() {
		assert.Contains(t, buf.String(), name)
	}
}

func TestIsLikelyRemoteHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"", false},
		{"localhost", false},
		{" LOCALHOST ", false},
		{"127.0.0.1", false},
		{"::1", false},
		{"db.local", false},
		{"127.0.0.2", false},
		{"10.0.0.5", true},
		{"db.prod.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isLikelyRemoteHost(tt.host))
		})
	}
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	opts, err = parseMigrateFlags([]string{"-timeout", "30s"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, opts.Timeout)

	_, err = parseMigrateFlags([]string{"-timeout", "0s"})
	require.Error(t, err)
}

func TestParseSetRoleFlags(t *testing.T) {
	opts, err := parseSetRoleFlags([]string{"-email", " Editor@Example.com ", "-role", "editor"})
	require.NoError(t, err)
	assert.Equal(t, setRoleOptions{Email: "editor@example.com", Role: domainauth.RoleEditor}, opts)

	_, err = parseSetRoleFlags([]string{"-role", "admin"})
	require.ErrorContains(t, err, "--email")

	_, err = parseSetRoleFlags([]string{"-email", "a@example.com", "-role", "root"})
	require.ErrorContains(t, err, "--role")
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	accounts := mockauth.NewMemoryAccounts()
	audit := &memory.Audit{}
	p, err := accounts.CreateAccount(ctx, "singer@example.com", "hash", domainauth.RoleUser)
	require.NoError(t, err)

	updated, err := setRole(ctx, accounts, audit, setRoleOptions{Email: "singer@example.com", Role: domainauth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, updated.Role)

	entries := audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditRoleChange, entries[0].Action)
	assert.Equal(t, model.EntityUserProfile, entries[0].EntityType)
	assert.Equal(t, p.ID, entries[0].EntityID)
	assert.JSONEq(t, `{"old_role":"user","new_role":"admin","via":"cli"}`, string(entries[0].Changes))

	t.Run("unchanged role is not audited", func(t *testing.T) {
		_, err := setRole(ctx, accounts, audit, setRoleOptions{Email: "singer@example.com", Role: domainauth.RoleAdmin})
		require.NoError(t, err)
		assert.Len(t, audit.Entries(), 1)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := setRole(ctx, accounts, audit, setRoleOptions{Email: "nobody@example.com", Role: domainauth.RoleEditor})
		require.ErrorContains(t, err, "nobody@example.com")
	})

	t.Run("audit failure is reported after the change", func(t *testing.T) {
		failing := &memory.Audit{Fail: 1}
		updated, err := setRole(ctx, accounts, failing, setRoleOptions{Email: "singer@example.com", Role: domainauth.RoleEditor})
		require.ErrorContains(t, err, "audit failed")
		require.NotNil(t, updated)
		assert.Equal(t, domainauth.RoleEditor, updated.Role)
	})
}

func TestParseAuditFlags(t *testing.T) {
	opts, err := parseAuditFlags([]string{"-entity-type", "bhajan", "-entity-id", "b-1", "-query", " [].action "})
	require.NoError(t, err)
	require.NotNil(t, opts.List.EntityType)
	assert.Equal(t, "bhajan", *opts.List.EntityType)
	assert.Equal(t, "b-1", *opts.List.EntityID)
	assert.Nil(t, opts.List.UserID)
	assert.Equal(t, defaultAuditLimit, opts.List.Limit)
	assert.Equal(t, "[].action", opts.Query)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"entity id without type", []string{"-entity-id", "b-1"}, "--entity-type"},
		{"limit too large", []string{"-limit", "501"}, "--limit"},
		{"limit too small", []string{"-limit", "0"}, "--limit"},
		{"bad query", []string{"-query", "[?action=="}, "invalid --query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAuditFlags(tt.args)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func seededAudit(t *testing.T) *memory.Audit {
	t.Helper()
	audit := &memory.Audit{}
	for _, e := range []struct {
		action  model.AuditAction
		entity  string
		id      string
		changes any
	}{
		{model.AuditCreate, model.EntityBhajan, "b-1", map[string]string{"title": "Om Namah Shivaya"}},
		{model.AuditApprove, model.EntityBhajan, "b-1", nil},
		{model.AuditRoleChange, model.EntityUserProfile, "u-2", map[string]string{"new_role": "editor"}},
	} {
		entry, err := model.NewAuditEntry("u-1", e.action, e.entity, e.id, e.changes)
		require.NoError(t, err)
		_, err = audit.Append(context.Background(), entry)
		require.NoError(t, err)
	}
	return audit
}

func TestPrintAudit_Query(t *testing.T) {
	audit := seededAudit(t)
	var buf bytes.Buffer

	err := printAudit(context.Background(), &buf, audit, auditOptions{
		List:  model.AuditListOptions{Limit: 10},
		Query: "[?entity_type=='bhajan'].action",
	})

	require.NoError(t, err)
	var got []string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, []string{"approve", "create"}, got)
}

func TestQueryAudit_NestedChanges(t *testing.T) {
	audit := seededAudit(t)
	entries, _, err := audit.List(context.Background(), model.AuditListOptions{})
	require.NoError(t, err)

	got, err := queryAudit(entries, "[?action=='role_change'].changes.new_role | [0]")

	require.NoError(t, err)
	assert.Equal(t, "editor", got)
}

func TestPrintAudit_Table(t *testing.T) {
	audit := seededAudit(t)
	entityType := model.EntityBhajan
	var buf bytes.Buffer

	err := printAudit(context.Background(), &buf, audit, auditOptions{
		List: model.AuditListOptions{EntityType: &entityType, Limit: 1},
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "ACTION")
	assert.Contains(t, out, "bhajan/b-1")
	assert.Contains(t, out, "approve")
	assert.NotContains(t, out, "role_change")
	assert.Contains(t, out, "1 of 2 entries")
}

func TestParseSeedFlags(t *testing.T) {
	_, err := parseSeedFlags(nil)
	require.ErrorContains(t, err, "--file")

	opts, err := parseSeedFlags([]string{"-file", "seed.yaml", "-allow-remote", "-migrate=false"})
	require.NoError(t, err)
	assert.Equal(t, seedOptions{File: "seed.yaml", AllowRemote: true}, opts)
}

func TestGuardRemoteHost_RefusesWithoutFlag(t *testing.T) {
	cmdCtx := &commandContext{Config: config.AppConfig{Postgres: config.DBConfig{Host: "db.prod.example.com"}}}

	remote, err := guardRemoteHost(cmdCtx, false, "seed")

	assert.True(t, remote)
	require.ErrorContains(t, err, "--allow-remote")

	cmdCtx.Config.Postgres.Host = "localhost"
	remote, err = guardRemoteHost(cmdCtx, false, "seed")
	assert.False(t, remote)
	require.NoError(t, err)
}

func TestHasRedisConfig(t *testing.T) {
	assert.False(t, hasRedisConfig(nil))
	assert.False(t, hasRedisConfig(&config.RedisConfig{}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{URI: "localhost:6379"}))
	assert.False(t, hasRedisConfig(&config.RedisConfig{UseSentinel: true}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{UseCluster: true, ClusterNodes: []string{"a:1"}}))
}
