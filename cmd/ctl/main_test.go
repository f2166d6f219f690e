package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/app"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("PORTFOLIO_AUTH_JWT_SECRET", "secret")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--storage", "memory"}, args...))

	err := root.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestCtl_CreateProjectPrintsTable(t *testing.T) {
	res := run(t, "create", "project", "--name", "Apollo", "--budget", "100.25")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "Apollo")
	assert.Contains(t, res.stdout, "active")
	assert.Contains(t, strings.ToUpper(res.stdout), "RESTORABLE UNTIL")
}

func TestCtl_CreateJSON(t *testing.T) {
	res := run(t, "--json", "create", "portfolio", "--name", "Space", "--actor-id", "ops")
	require.NoError(t, res.err)

	var records []app.Record
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records), res.stdout)
	require.Len(t, records, 1)
	assert.Equal(t, "Space", records[0].Name)
	assert.Equal(t, "active", records[0].State)
	assert.Equal(t, 1, records[0].Version)
}

func TestCtl_FlagsDoNotLeakBetweenRuns(t *testing.T) {
	first := run(t, "--json", "list", "projects", "--include-deleted")
	require.NoError(t, first.err)
	assert.JSONEq(t, "[]", first.stdout)

	second := run(t, "list", "projects")
	require.NoError(t, second.err)
	assert.False(t, json.Valid([]byte(second.stdout)), "expected a table, got %q", second.stdout)
	assert.Contains(t, strings.ToUpper(second.stdout), "NAME")
}

func TestCtl_FailureToastOnStderr(t *testing.T) {
	res := run(t, "delete", "project", "0195a0f2-7c1e-7000-8000-000000000001")

	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "[error] project not found")
	assert.Empty(t, res.stdout)
}

func TestCtl_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"invalid id", []string{"get", "project", "not-a-uuid"}, "invalid id"},
		{"unknown entity", []string{"list", "task"}, "unknown entity"},
		{"missing name", []string{"create", "project"}, "name"},
		{"invalid budget", []string{"create", "project", "--name", "Apollo", "--budget", "lots"}, "invalid budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.want)
		})
	}
}

func TestCtl_PurgeExpired(t *testing.T) {
	res := run(t, "purge-expired", "--json")
	require.NoError(t, res.err)

	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &counts), res.stdout)
	assert.Equal(t, map[string]int{"project": 0, "portfolio": 0}, counts)
}

func TestCtl_Token(t *testing.T) {
	res := run(t, "token", "--user", "u-1", "--perm", "project:delete")
	require.NoError(t, res.err)

	token := strings.TrimSpace(res.stdout)
	assert.Len(t, strings.Split(token, "."), 3, "expected a JWT, got %q", token)

	res = run(t, "--json", "token", "--admin")
	require.NoError(t, res.err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &body))
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["expiresAt"])
}
