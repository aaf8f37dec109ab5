// Package testutils holds fixtures shared by the tree loader, facade and CLI tests.
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// MailTreeYAML is a small mail client tree: a sticky inbox holding sticky
// threads keyed by thread_id, and a plain settings screen.
const MailTreeYAML = `
name: mail
states:
  - name: inbox
    sticky: true
    states:
      - name: thread
        sticky: true
        params: [thread_id]
  - name: settings
`

// SetupStateRepo initializes a Loam repository in a temporary directory.
// Versioning is off unless opts turn it back on: state documents are fixtures.
func SetupStateRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	opts = append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SaveStates stores state documents through repo.
func SaveStates(t *testing.T, repo core.Repository, docs ...core.Document) {
	t.Helper()
	ctx := context.Background()
	for _, doc := range docs {
		require.NoError(t, repo.Save(ctx, doc), "Failed to save %s", doc.ID)
	}
}

// WriteFile writes content to name inside a fresh temporary directory and returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	return WriteFileIn(t, t.TempDir(), name, content)
}

// WriteFileIn writes content to name inside dir and returns its path.
func WriteFileIn(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
