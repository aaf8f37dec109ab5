package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/registry"
	"github.com/aretw0/sticky/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures per-state hook invocations in order.
type recorder struct {
	calls []string
	fail  map[string]error
}

func (r *recorder) hook(kind string) domain.Hook {
	return func(ctx context.Context, inst *domain.StateInstance) error {
		key := kind + ":" + inst.Name()
		r.calls = append(r.calls, key)
		return r.fail[key]
	}
}

func (r *recorder) hooks() domain.Hooks {
	return domain.Hooks{
		OnEnter:      r.hook("enter"),
		OnExit:       r.hook("exit"),
		OnInactivate: r.hook("inactivate"),
		OnReactivate: r.hook("reactivate"),
	}
}

func newTree(t *testing.T, rec *recorder) *tree.Tree {
	t.Helper()
	tr := tree.New()
	require.NoError(t, tr.RegisterAll(
		domain.StateNode{Name: "a", Sticky: true, OwnParams: []string{}, Hooks: rec.hooks()},
		domain.StateNode{Name: "a.b", Sticky: true, OwnParams: []string{}, Hooks: rec.hooks()},
		domain.StateNode{Name: "a.b.c", OwnParams: []string{"id"}, Hooks: rec.hooks()},
		domain.StateNode{Name: "a.bc", OwnParams: []string{}, Hooks: rec.hooks()},
		domain.StateNode{Name: "x", OwnParams: []string{}, Hooks: rec.hooks()},
	))
	return tr
}

func instance(t *testing.T, tr *tree.Tree, name string, p domain.Params, locals any) *domain.StateInstance {
	t.Helper()
	node, err := tr.Get(name)
	require.NoError(t, err)
	return domain.NewInstance(node, p, locals)
}

func TestRegistry_ParkAndResume(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := newTree(t, rec)
	reg := registry.New(tr)

	var seenLocals any
	b := instance(t, tr, "a.b", nil, "locals-b")
	b.Node = &domain.StateNode{Name: "a.b", Parent: "a", Sticky: true, Hooks: domain.Hooks{
		OnInactivate: func(ctx context.Context, inst *domain.StateInstance) error {
			seenLocals = inst.Locals
			return nil
		},
	}}

	require.NoError(t, reg.Park(ctx, b))
	got, ok := reg.Get("a.b")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, "locals-b", seenLocals)
	assert.Equal(t, "locals-b", got.Locals, "parking keeps locals")

	require.NoError(t, reg.Resume(ctx, b))
	_, ok = reg.Get("a.b")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())

	// Resuming an instance that is not parked only runs the hook.
	require.NoError(t, reg.Resume(ctx, instance(t, tr, "x", nil, nil)))
	assert.Equal(t, []string{"reactivate:x"}, rec.calls)
}

func TestRegistry_HookFailureKeepsRegistryConsistent(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	rec := &recorder{fail: map[string]error{
		"inactivate:a.b": boom,
		"reactivate:a.b": boom,
	}}
	tr := newTree(t, rec)
	reg := registry.New(tr)
	b := instance(t, tr, "a.b", nil, nil)

	err := reg.Park(ctx, b)
	var hookErr *domain.HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "a.b", hookErr.State)
	assert.Equal(t, domain.HookInactivate, hookErr.Hook)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, reg.Len(), "park is recorded before the hook runs")

	err = reg.Resume(ctx, b)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, reg.Len(), "resume is recorded before the hook runs")
}

func TestRegistry_ParkDisplacesParkedInstance(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := newTree(t, rec)

	var discarded []string
	reg := registry.New(tr, registry.WithLifecycleHooks(domain.LifecycleHooks{
		OnDiscard: func(ctx context.Context, ev *domain.StateEvent) {
			discarded = append(discarded, ev.InstanceID)
		},
	}))

	first := instance(t, tr, "a.b", domain.Params{"n": 1}, "locals-1")
	second := instance(t, tr, "a.b", domain.Params{"n": 2}, "locals-2")
	require.NoError(t, reg.Park(ctx, first))
	require.NoError(t, reg.Park(ctx, second))

	got, ok := reg.Get("a.b")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, reg.Len())

	assert.Equal(t, []string{"inactivate:a.b", "exit:a.b", "inactivate:a.b"}, rec.calls)
	assert.Equal(t, []string{first.ID}, discarded)
	assert.Nil(t, first.Locals)
	assert.Equal(t, "locals-2", second.Locals)

	// Parking the same instance again displaces nothing.
	rec.calls = nil
	require.NoError(t, reg.Park(ctx, second))
	assert.Equal(t, []string{"inactivate:a.b"}, rec.calls)
	assert.Equal(t, []string{first.ID}, discarded)
}

func TestRegistry_DiscardSubtree(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := newTree(t, rec)
	reg := registry.New(tr)

	b := instance(t, tr, "a.b", nil, "b")
	c := instance(t, tr, "a.b.c", domain.Params{"id": 1}, "c")
	bc := instance(t, tr, "a.bc", nil, "bc")
	x := instance(t, tr, "x", nil, "x")
	for _, inst := range []*domain.StateInstance{c, b, bc, x} {
		require.NoError(t, reg.Park(ctx, inst))
	}
	rec.calls = nil

	live := instance(t, tr, "a.b", nil, "live")
	// a.b is both parked and the exiting node here; the registry entry goes too.
	require.NoError(t, reg.DiscardSubtree(ctx, live, nil))

	assert.Equal(t, []string{"exit:a.b.c", "exit:a.b"}, rec.calls, "descendants exit deepest first, then the node itself")
	_, ok := reg.Get("a.b.c")
	assert.False(t, ok)
	_, ok = reg.Get("a.b")
	assert.False(t, ok)
	assert.Nil(t, c.Locals)
	assert.Nil(t, live.Locals)

	// Entries outside the "a.b." prefix are untouched, including the "a.bc" sibling.
	_, ok = reg.Get("a.bc")
	assert.True(t, ok)
	_, ok = reg.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "bc", bc.Locals)
}

func TestRegistry_DiscardSubtree_SkipsHandledAndNoDescendants(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := newTree(t, rec)
	reg := registry.New(tr)

	c := instance(t, tr, "a.b.c", nil, "c")
	require.NoError(t, reg.Park(ctx, c))
	rec.calls = nil

	b := instance(t, tr, "a.b", nil, nil)
	require.NoError(t, reg.DiscardSubtree(ctx, b, []string{"a.b.c"}))
	assert.Equal(t, []string{"exit:a.b"}, rec.calls)
	_, ok := reg.Get("a.b.c")
	assert.True(t, ok, "handled names are left to the caller")

	rec.calls = nil
	leaf := instance(t, tr, "x", nil, nil)
	require.NoError(t, reg.DiscardSubtree(ctx, leaf, nil))
	assert.Equal(t, []string{"exit:x"}, rec.calls)
}

func TestRegistry_DiscardSubtree_ContinuesAfterHookError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	rec := &recorder{fail: map[string]error{"exit:a.b.c": boom}}
	tr := newTree(t, rec)
	reg := registry.New(tr)

	require.NoError(t, reg.Park(ctx, instance(t, tr, "a.b.c", nil, nil)))
	require.NoError(t, reg.Park(ctx, instance(t, tr, "a.b", nil, nil)))
	rec.calls = nil

	err := reg.DiscardSubtree(ctx, instance(t, tr, "a", nil, nil), nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"exit:a.b.c", "exit:a.b", "exit:a"}, rec.calls)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_EnterWithStaleCheck(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := newTree(t, rec)
	reg := registry.New(tr)

	t.Run("No parked instance", func(t *testing.T) {
		rec.calls = nil
		require.NoError(t, reg.EnterWithStaleCheck(ctx, instance(t, tr, "x", nil, nil)))
		assert.Equal(t, []string{"enter:x"}, rec.calls)
	})

	t.Run("Stale parked instance is discarded first", func(t *testing.T) {
		parked := instance(t, tr, "a.b.c", domain.Params{"id": 1}, "old")
		require.NoError(t, reg.Park(ctx, parked))
		rec.calls = nil

		fresh := instance(t, tr, "a.b.c", domain.Params{"id": 2}, "new")
		require.NoError(t, reg.EnterWithStaleCheck(ctx, fresh))

		assert.Equal(t, []string{"exit:a.b.c", "enter:a.b.c"}, rec.calls)
		assert.Nil(t, parked.Locals)
		assert.Equal(t, "new", fresh.Locals)
		assert.Equal(t, 0, reg.Len())
	})

	t.Run("Matching parked instance is superseded", func(t *testing.T) {
		parked := instance(t, tr, "a.b.c", domain.Params{"id": 1}, "old")
		require.NoError(t, reg.Park(ctx, parked))
		rec.calls = nil

		fresh := instance(t, tr, "a.b.c", domain.Params{"id": "1"}, "new")
		require.NoError(t, reg.EnterWithStaleCheck(ctx, fresh))
		assert.Equal(t, []string{"exit:a.b.c", "enter:a.b.c"}, rec.calls)
		assert.Equal(t, 0, reg.Len())
	})
}

func TestRegistry_ByOwner(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := newTree(t, rec)
	reg := registry.New(tr)

	require.NoError(t, reg.Park(ctx, instance(t, tr, "a.b", nil, nil)))
	require.NoError(t, reg.Park(ctx, instance(t, tr, "a.b.c", nil, nil)))

	byOwner := reg.ByOwner()
	// a.b sits below sticky "a" (owner root) and is sticky itself (owner "a").
	require.Len(t, byOwner[""], 2)
	assert.Equal(t, "a.b", byOwner[""][0].Name())
	assert.Equal(t, "a.b.c", byOwner[""][1].Name())
	require.Len(t, byOwner["a"], 2)
	assert.Empty(t, byOwner["a.b"])

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a.b", list[0].Name())
}

func TestRegistry_LifecycleHooks(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	tr := newTree(t, rec)

	var events []domain.EventType
	observe := func(ctx context.Context, e *domain.StateEvent) { events = append(events, e.Type) }
	reg := registry.New(tr, registry.WithLifecycleHooks(domain.LifecycleHooks{
		OnEnter:   observe,
		OnPark:    observe,
		OnResume:  observe,
		OnDiscard: observe,
	}))

	b := instance(t, tr, "a.b", nil, nil)
	require.NoError(t, reg.EnterWithStaleCheck(ctx, b))
	require.NoError(t, reg.Park(ctx, b))
	require.NoError(t, reg.Resume(ctx, b))
	require.NoError(t, reg.DiscardSubtree(ctx, b, nil))

	assert.Equal(t, []domain.EventType{
		domain.EventStateEnter,
		domain.EventStatePark,
		domain.EventStateResume,
		domain.EventStateDiscard,
	}, events)
}

func TestRegistry_Load(t *testing.T) {
	rec := &recorder{}
	tr := newTree(t, rec)
	reg := registry.New(tr)

	reg.Load(instance(t, tr, "a.b", nil, nil), instance(t, tr, "x", nil, nil))
	assert.Equal(t, 2, reg.Len())
	assert.Empty(t, rec.calls, "loading runs no hooks")

	reg.Load()
	assert.Equal(t, 0, reg.Len())
}
