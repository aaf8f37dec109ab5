package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/aretw0/sticky/internal/testutils"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScript = `
steps:
  - to: inbox.thread
    params: {thread_id: 1}
  - to: settings
  - to: inbox.thread
    params: {thread_id: 1}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseStep(t *testing.T) {
	name, params, err := parseStep("inbox.thread:thread_id=1, page = 2")
	require.NoError(t, err)
	assert.Equal(t, "inbox.thread", name)
	assert.Equal(t, domain.Params{"thread_id": "1", "page": "2"}, params)

	name, params, err = parseStep("settings")
	require.NoError(t, err)
	assert.Equal(t, "settings", name)
	assert.Empty(t, params)

	_, _, err = parseStep("inbox:broken")
	assert.Error(t, err)

	_, _, err = parseStep("")
	assert.Error(t, err)
}

func TestPlanCommand(t *testing.T) {
	tree := testutils.WriteFile(t, "mail.yaml", testutils.MailTreeYAML)

	out, err := run(t, "plan", "inbox.thread", "--tree", tree,
		"--param", "thread_id=1",
		"--via", "inbox.thread:thread_id=1", "--via", "settings",
		"--json")
	require.NoError(t, err, out)

	var plan struct {
		From  string   `json:"from"`
		Enter []string `json:"enter"`
		Exit  []string `json:"exit"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &plan), out)
	assert.Equal(t, "settings", plan.From)
	assert.Equal(t, []string{"reactivate", "reactivate"}, plan.Enter)
	assert.Equal(t, []string{"exit"}, plan.Exit)
}

func TestSimulateCommand(t *testing.T) {
	tree := testutils.WriteFile(t, "mail.yaml", testutils.MailTreeYAML)
	script := testutils.WriteFile(t, "script.yaml", testScript)

	out, err := run(t, "simulate", script, "--tree", tree, "--session", "s1", "--store", "memory")
	require.NoError(t, err, out)

	assert.Contains(t, out, "session s1 at (root)")
	assert.Contains(t, out, "park     inbox.thread")
	assert.Contains(t, out, "resume   inbox.thread")
	assert.Contains(t, out, "discard  settings")
	assert.Contains(t, out, "current: inbox.thread")
}

func TestSimulateCommand_UnknownStore(t *testing.T) {
	tree := testutils.WriteFile(t, "mail.yaml", testutils.MailTreeYAML)
	script := testutils.WriteFile(t, "script.yaml", testScript)

	_, err := run(t, "simulate", script, "--tree", tree, "--session", "s1", "--store", "etcd")
	assert.ErrorContains(t, err, "unknown store")
}

func TestGraphCommand(t *testing.T) {
	tree := testutils.WriteFile(t, "mail.yaml", testutils.MailTreeYAML)

	out, err := run(t, "graph", "--tree", tree)
	require.NoError(t, err)
	assert.Contains(t, out, `s_inbox(["inbox"])`)
	assert.Contains(t, out, "s_inbox --> s_inbox_thread")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sticky version")
}
