package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"migrate", "branch", "user", "token", "stock", "audit"} {
		assert.Contains(t, names, want)
	}
}

func TestStockVerify_RequiresBranch(t *testing.T) {
	_, err := run(t, "stock", "verify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--branch is required")
}

func TestAuditHistory_RejectsBadBranch(t *testing.T) {
	_, err := run(t, "audit", "history", "--branch", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --branch")
}

func TestTokenIssue_RequiresUser(t *testing.T) {
	_, err := run(t, "token", "issue", "--branch", "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user is required")
}

func TestTokenIssue_SignsToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-with-enough-length-123456")

	out, err := run(t, "token", "issue",
		"--branch", "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b",
		"--user", "ops", "--roles", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, `"accessToken"`)
	assert.Contains(t, out, `"tokenType"`)
}
