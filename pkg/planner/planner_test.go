package planner_test

import (
	"context"
	"testing"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/planner"
	"github.com/aretw0/sticky/pkg/registry"
	"github.com/aretw0/sticky/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	tree     *tree.Tree
	registry *registry.Registry
	planner  *planner.Planner
}

// newFixture builds:
//
//	a (sticky)
//	├── a.b (sticky)
//	│   └── a.b.c   own params: id
//	└── a.d
//	x
//	└── x.y (sticky, own params: tab)
func newFixture(t *testing.T) *fixture {
	t.Helper()
	tr := tree.New()
	require.NoError(t, tr.RegisterAll(
		domain.StateNode{Name: "a", Sticky: true, OwnParams: []string{}},
		domain.StateNode{Name: "a.b", Sticky: true, OwnParams: []string{}},
		domain.StateNode{Name: "a.b.c", OwnParams: []string{"id"}},
		domain.StateNode{Name: "a.d", OwnParams: []string{}},
		domain.StateNode{Name: "x", OwnParams: []string{}},
		domain.StateNode{Name: "x.y", Sticky: true, OwnParams: []string{"tab"}},
	))
	reg := registry.New(tr)
	return &fixture{tree: tr, registry: reg, planner: planner.New(reg)}
}

func (f *fixture) path(t *testing.T, name string, p domain.Params) planner.Path {
	t.Helper()
	nodes, err := f.tree.Path(name)
	require.NoError(t, err)
	return planner.Path{Nodes: nodes, Params: p}
}

func (f *fixture) park(t *testing.T, name string, p domain.Params) *domain.StateInstance {
	t.Helper()
	node, err := f.tree.Get(name)
	require.NoError(t, err)
	inst := domain.NewInstance(node, p, "locals:"+name)
	require.NoError(t, f.registry.Park(context.Background(), inst))
	return inst
}

func TestPlan_SamePathIsNoop(t *testing.T) {
	f := newFixture(t)
	from := f.path(t, "a.b.c", domain.Params{"id": 1})
	to := f.path(t, "a.b.c", domain.Params{"id": "1"})

	plan := f.planner.Plan(from, to)

	assert.Equal(t, len(from.Nodes), plan.Keep)
	assert.Empty(t, plan.Enter)
	assert.Empty(t, plan.Exit)
	assert.Empty(t, plan.Inactive)
	assert.Equal(t, domain.StickyTransition{}, plan.Sticky)
}

func TestPlan_PivotStopsAtParamChange(t *testing.T) {
	f := newFixture(t)
	from := f.path(t, "a.b.c", domain.Params{"id": 1})
	to := f.path(t, "a.b.c", domain.Params{"id": 2})

	plan := f.planner.Plan(from, to)

	// root, a, a.b are kept; a.b.c differs on its own param.
	assert.Equal(t, 3, plan.Keep)
	assert.Equal(t, []domain.EnterAction{domain.EnterFresh}, plan.Enter)
	assert.Equal(t, []domain.ExitAction{domain.ExitDiscard}, plan.Exit)
}

func TestPlan_MissingOwnParamsComparesAllKeys(t *testing.T) {
	tr := tree.New()
	_, err := tr.Register(domain.StateNode{Name: "p"})
	require.NoError(t, err)
	pl := planner.New(registry.New(tr))

	nodes, err := tr.Path("p")
	require.NoError(t, err)

	plan := pl.Plan(
		planner.Path{Nodes: nodes, Params: domain.Params{"q": "x"}},
		planner.Path{Nodes: nodes, Params: domain.Params{"q": "y"}},
	)
	// The root declares no params; "p" declares none at all, so every key counts.
	assert.Equal(t, 1, plan.Keep)
	assert.Equal(t, []domain.EnterAction{domain.EnterFresh}, plan.Enter)
}

func TestPlan_NonStickyNeverInactivates(t *testing.T) {
	f := newFixture(t)

	plan := f.planner.Plan(f.path(t, "a.d", nil), f.path(t, "a.b", nil))
	assert.Equal(t, 2, plan.Keep)
	assert.Equal(t, []domain.ExitAction{domain.ExitDiscard}, plan.Exit)
	assert.False(t, plan.Sticky.From)
	assert.True(t, plan.Sticky.To)

	plan = f.planner.Plan(f.path(t, "x", nil), f.path(t, "a", nil))
	assert.Equal(t, []domain.ExitAction{domain.ExitDiscard}, plan.Exit)
}

func TestPlan_StickyExitInactivatesWholeBranch(t *testing.T) {
	f := newFixture(t)
	from := f.path(t, "a.b.c", domain.Params{"id": 1})
	live := []*domain.StateInstance{nil, nil, nil, domain.NewInstance(from.Nodes[3], from.Params, "live-c")}
	from.Instances = live

	plan := f.planner.Plan(from, f.path(t, "a", domain.Params{}))

	assert.Equal(t, 2, plan.Keep)
	assert.Equal(t, domain.StickyTransition{From: true, To: false}, plan.Sticky)
	assert.Equal(t, []domain.ExitAction{domain.ExitInactivate, domain.ExitInactivate}, plan.Exit)
	assert.Empty(t, plan.Enter)
	assert.Equal(t, []string{"a.b", "a.b.c"}, plan.InactiveNames())
	assert.Same(t, live[3], plan.Inactive[1], "live instances are reported as newly parked")
	assert.Equal(t, domain.Params{"id": 1}, plan.Inactive[0].Params)
}

func TestPlan_ReactivateWhenParamsMatch(t *testing.T) {
	f := newFixture(t)
	f.park(t, "a.b", domain.Params{"id": 1})
	f.park(t, "a.b.c", domain.Params{"id": 1})

	plan := f.planner.Plan(f.path(t, "a", domain.Params{}), f.path(t, "a.b.c", domain.Params{"id": 1}))

	assert.Equal(t, 2, plan.Keep)
	assert.True(t, plan.Sticky.To)
	assert.Equal(t, []domain.EnterAction{domain.EnterReactivate, domain.EnterReactivate}, plan.Enter)
	assert.Empty(t, plan.Exit)
	assert.Empty(t, plan.Inactive, "reactivated states leave the inactive set")
}

func TestPlan_UpdateParamsWhenOwnParamsDiffer(t *testing.T) {
	f := newFixture(t)
	f.park(t, "a.b", domain.Params{"id": 1})
	f.park(t, "a.b.c", domain.Params{"id": 1})

	plan := f.planner.Plan(f.path(t, "a", domain.Params{}), f.path(t, "a.b.c", domain.Params{"id": 2}))

	assert.Equal(t, []domain.EnterAction{domain.EnterReactivate, domain.EnterUpdateParams}, plan.Enter)
	assert.Empty(t, plan.Inactive)
}

func TestPlan_AncestorUpdateForcesDescendants(t *testing.T) {
	f := newFixture(t)
	f.park(t, "x.y", domain.Params{"tab": "info"})

	// Nothing below x.y is parked, yet its descendants must follow it.
	_, err := f.tree.Register(domain.StateNode{Name: "x.y.z", OwnParams: []string{}})
	require.NoError(t, err)
	_, err = f.tree.Register(domain.StateNode{Name: "x.y.z.w", OwnParams: []string{}})
	require.NoError(t, err)
	f.park(t, "x.y.z", domain.Params{"tab": "info"})

	plan := f.planner.Plan(f.path(t, "x", domain.Params{}), f.path(t, "x.y.z.w", domain.Params{"tab": "edit"}))

	assert.Equal(t, []domain.EnterAction{
		domain.EnterUpdateParams,
		domain.EnterUpdateParams,
		domain.EnterUpdateParams,
	}, plan.Enter)
	assert.Empty(t, plan.Inactive, "descendants of an updated state are not kept parked")
}

// Entering a state with new own params discards its parked subtree, so nothing
// under the first updated state is reported as staying parked, even when the
// forced updates reach deeper than the parked siblings.
func TestPlan_UpdatedStateTakesParkedSubtreeOutOfInactive(t *testing.T) {
	tr := tree.New()
	require.NoError(t, tr.RegisterAll(
		domain.StateNode{Name: "a", Sticky: true, OwnParams: []string{"g"}},
		domain.StateNode{Name: "a.b", Sticky: true, OwnParams: []string{}},
		domain.StateNode{Name: "a.b.c", OwnParams: []string{}},
		domain.StateNode{Name: "a.b.d", OwnParams: []string{}},
		domain.StateNode{Name: "x", OwnParams: []string{}},
	))
	reg := registry.New(tr)
	f := &fixture{tree: tr, registry: reg, planner: planner.New(reg)}

	f.park(t, "a", domain.Params{"g": 1})
	f.park(t, "a.b", domain.Params{"g": 1})
	f.park(t, "a.b.d", domain.Params{"g": 1})

	plan := f.planner.Plan(f.path(t, "x", domain.Params{"g": 1}), f.path(t, "a.b.c", domain.Params{"g": 2}))

	assert.Equal(t, []domain.EnterAction{
		domain.EnterUpdateParams,
		domain.EnterUpdateParams,
		domain.EnterUpdateParams,
	}, plan.Enter)
	assert.Empty(t, plan.Inactive)
}

func TestPlan_EnterWhenPivotNotSticky(t *testing.T) {
	f := newFixture(t)
	f.park(t, "x.y", domain.Params{"tab": "info"})

	plan := f.planner.Plan(f.path(t, "a.d", nil), f.path(t, "x.y", domain.Params{"tab": "info"}))

	assert.Equal(t, 1, plan.Keep)
	assert.False(t, plan.Sticky.To)
	assert.Equal(t, []domain.EnterAction{domain.EnterFresh, domain.EnterFresh}, plan.Enter)
}

func TestPlan_ContinuingInactives(t *testing.T) {
	f := newFixture(t)
	b := f.park(t, "a.b", domain.Params{})
	c := f.park(t, "a.b.c", domain.Params{"id": 7})
	f.park(t, "x.y", domain.Params{"tab": "info"})

	// Moving between a's children keeps a.b's branch parked.
	_, err := f.tree.Register(domain.StateNode{Name: "a.e", OwnParams: []string{}})
	require.NoError(t, err)
	plan := f.planner.Plan(f.path(t, "a.d", nil), f.path(t, "a.e", nil))

	assert.Equal(t, 2, plan.Keep)
	assert.Equal(t, []domain.ExitAction{domain.ExitDiscard}, plan.Exit)

	// Owners: a.b -> "" and "a"; a.b.c -> "" and "a"; x.y -> "x" (not on the prefix).
	assert.Equal(t, []string{"a.b", "a.b.c"}, plan.InactiveNames(), "each instance is listed once")
	assert.Same(t, b, plan.Inactive[0])
	assert.Same(t, c, plan.Inactive[1])
}

func TestPlan_DoesNotMutateRegistry(t *testing.T) {
	f := newFixture(t)
	f.park(t, "a.b", domain.Params{})

	_ = f.planner.Plan(f.path(t, "a", nil), f.path(t, "a.b", nil))
	_, ok := f.registry.Get("a.b")
	assert.True(t, ok)
	assert.Equal(t, 1, f.registry.Len())
}

func TestClassifyEnter(t *testing.T) {
	f := newFixture(t)
	c, err := f.tree.Get("a.b.c")
	require.NoError(t, err)

	assert.Equal(t, domain.EnterFresh, f.planner.ClassifyEnter(c, domain.Params{"id": 1}, false))
	assert.Equal(t, domain.EnterUpdateParams, f.planner.ClassifyEnter(c, domain.Params{"id": 1}, true))

	f.park(t, "a.b.c", domain.Params{"id": 1, "other": "ignored"})
	assert.Equal(t, domain.EnterReactivate, f.planner.ClassifyEnter(c, domain.Params{"id": "1", "other": "x"}, false))
	assert.Equal(t, domain.EnterUpdateParams, f.planner.ClassifyEnter(c, domain.Params{"id": 2}, false))
}
