package sticky_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/sticky"
	"github.com/aretw0/sticky/internal/testutils"
	"github.com/aretw0/sticky/pkg/adapters/memory"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacade_FromFile(t *testing.T) {
	path := testutils.WriteFile(t, "mail.yaml", testutils.MailTreeYAML)

	ctx := context.Background()
	router, err := sticky.New(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "mail.yaml", router.Name)
	assert.Equal(t, 3, router.Tree().Len())
	assert.NotNil(t, router.Loader())

	_, err = router.TransitionTo(ctx, "inbox.thread", domain.Params{"thread_id": 1})
	require.NoError(t, err)
	_, err = router.TransitionTo(ctx, "settings", nil)
	require.NoError(t, err)

	parked := router.Inactive()
	require.Len(t, parked, 2)
	assert.Equal(t, "inbox", parked[0].Name())
	assert.Equal(t, "inbox.thread", parked[1].Name())

	plan, err := router.TransitionTo(ctx, "inbox.thread", domain.Params{"thread_id": 1})
	require.NoError(t, err)
	assert.Equal(t, []domain.EnterAction{domain.EnterReactivate, domain.EnterReactivate}, plan.Enter)
	assert.Empty(t, router.Inactive())
}

func TestFacade_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFileIn(t, dir, "inbox.md", "---\nsticky: true\n---\nThe inbox.")
	testutils.WriteFileIn(t, dir, "settings.md", "---\nsticky: false\n---\n")

	router, err := sticky.New(context.Background(), dir)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, s := range router.States() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"inbox", "settings"}, names)
	assert.True(t, router.States()[0].Sticky)
}

func TestFacade_WithLoader(t *testing.T) {
	loader, err := memory.NewLoader(
		domain.StateNode{Name: "a", Sticky: true, OwnParams: []string{}},
		domain.StateNode{Name: "a.b", OwnParams: []string{"id"}},
	)
	require.NoError(t, err)

	router, err := sticky.New(context.Background(), "", sticky.WithLoader(loader))
	require.NoError(t, err)
	path, err := router.PathNames("a.b")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RootName, "a", "a.b"}, path)
}

func TestFacade_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := sticky.New(ctx, "")
	assert.Error(t, err, "a source is required without a tree or loader")

	_, err = sticky.New(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	txt := testutils.WriteFile(t, "tree.txt", "a")
	_, err = sticky.New(ctx, txt)
	assert.ErrorContains(t, err, "unsupported tree file")
}

func TestFacade_ResolverAndHooks(t *testing.T) {
	b := dsl.New()
	b.Add("inbox").Sticky()
	b.Add("settings")

	var resolved []string
	var parked []string
	router, err := sticky.New(context.Background(), "",
		sticky.WithTree(b.MustBuild()),
		sticky.WithResolver(func(ctx context.Context, node *domain.StateNode, params domain.Params) (any, error) {
			resolved = append(resolved, node.Name)
			return node.Name + "-data", nil
		}),
		sticky.WithLifecycleHooks(domain.LifecycleHooks{
			OnPark: func(ctx context.Context, ev *domain.StateEvent) { parked = append(parked, ev.State) },
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = router.TransitionTo(ctx, "inbox", nil)
	require.NoError(t, err)
	_, err = router.TransitionTo(ctx, "settings", nil)
	require.NoError(t, err)
	_, err = router.TransitionTo(ctx, "inbox", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"inbox", "settings"}, resolved, "reactivation never resolves")
	assert.Equal(t, []string{"inbox"}, parked)
	assert.Equal(t, "inbox-data", router.ActivePath()[1].Locals)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, sticky.Version)
}
