package sticky

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/sticky/internal/logging"
	"github.com/aretw0/sticky/internal/runtime"
	"github.com/aretw0/sticky/pkg/adapters/file"
	loamAdapter "github.com/aretw0/sticky/pkg/adapters/loam"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/planner"
	"github.com/aretw0/sticky/pkg/ports"
	"github.com/aretw0/sticky/pkg/registry"
	"github.com/aretw0/sticky/pkg/tree"
)

// Resolver produces the locals of a state that is entered fresh or with new params.
type Resolver = runtime.Resolver

// Router is the high-level entry point for the sticky library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Router struct {
	runtime  *runtime.Engine
	loader   ports.TreeLoader
	tree     *tree.Tree
	resolver Resolver
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	Name     string
}

var _ ports.Router = (*Router)(nil)

// Option defines a functional option for configuring the Router.
type Option func(*Router)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Router) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithLoader injects a custom TreeLoader, bypassing the source path.
func WithLoader(l ports.TreeLoader) Option {
	return func(r *Router) {
		r.loader = l
	}
}

// WithTree uses an already built tree, e.g. from the dsl package.
func WithTree(t *tree.Tree) Option {
	return func(r *Router) {
		r.tree = t
	}
}

// WithResolver sets the function resolving the locals of entered states.
func WithResolver(res Resolver) Option {
	return func(r *Router) {
		r.resolver = res
	}
}

// WithLogger sets a custom structured logger for the router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New initializes a Router positioned at the root state.
//
// The tree comes from WithTree, from WithLoader, or from source: a .yaml, .yml or
// .json tree file, or a directory of markdown state documents. source may be empty
// when a tree or loader is provided; it then only names the router.
func New(ctx context.Context, source string, opts ...Option) (*Router, error) {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}

	if source != "" {
		r.Name = filepath.Base(source)
	}

	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.Name != "" {
		r.logger = r.logger.With("tree", r.Name)
	}

	if r.tree == nil {
		if r.loader == nil {
			if source == "" {
				return nil, fmt.Errorf("source is required when no tree or loader is provided")
			}
			l, err := LoaderFor(source)
			if err != nil {
				return nil, err
			}
			r.loader = l
		}
		t, err := r.loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load state tree: %w", err)
		}
		r.tree = t
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(r.hooks),
		runtime.WithLogger(r.logger),
	}
	if r.resolver != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithResolver(r.resolver))
	}
	r.runtime = runtime.NewEngine(r.tree, runtimeOpts...)

	r.logger.Debug("router ready", "states", r.tree.Len())
	return r, nil
}

// LoaderFor picks the tree loader for source: a markdown directory goes through
// Loam, a tree file through the file loader.
func LoaderFor(source string) (ports.TreeLoader, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("invalid tree source: %w", err)
	}
	if info.IsDir() {
		return loamAdapter.Open(source)
	}
	if !file.IsTreeFile(source) {
		return nil, fmt.Errorf("unsupported tree file %q: expected .yaml, .yml or .json", source)
	}
	return file.NewLoader(source), nil
}

// TransitionTo moves to the named state and returns the applied plan.
// A nil plan means the transition was aborted before anything changed.
func (r *Router) TransitionTo(ctx context.Context, name string, params domain.Params) (*domain.TransitionPlan, error) {
	return r.runtime.TransitionTo(ctx, name, params)
}

// Plan computes the plan for moving to name without applying it.
func (r *Router) Plan(name string, params domain.Params) (*domain.TransitionPlan, error) {
	return r.runtime.Plan(name, params)
}

// Current returns the name of the deepest active state ("" at the root).
func (r *Router) Current() string {
	return r.runtime.Current()
}

// Params returns the params of the active path.
func (r *Router) Params() domain.Params {
	return r.runtime.Params()
}

// ActivePath returns the active instances, root first.
func (r *Router) ActivePath() []*domain.StateInstance {
	return r.runtime.ActivePath()
}

// States returns every registered state, sorted by name.
func (r *Router) States() []*domain.StateNode {
	return r.runtime.States()
}

// Inactive returns the parked instances, sorted by name.
func (r *Router) Inactive() []*domain.StateInstance {
	return r.runtime.Inactive()
}

// InactiveByOwner buckets parked instances by owner state.
func (r *Router) InactiveByOwner() map[string][]*domain.StateInstance {
	return r.runtime.InactiveByOwner()
}

// PathNames returns the state names from the root to name, root first.
func (r *Router) PathNames(name string) ([]string, error) {
	nodes, err := r.tree.Path(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	return names, nil
}

// Snapshot captures the active path and the inactive registry.
func (r *Router) Snapshot() *domain.Snapshot {
	return r.runtime.Snapshot()
}

// Restore repositions the router at snap without running any hook.
func (r *Router) Restore(snap *domain.Snapshot) error {
	return r.runtime.Restore(snap)
}

// Tree returns the state tree.
func (r *Router) Tree() *tree.Tree {
	return r.tree
}

// Registry returns the inactive registry.
func (r *Router) Registry() *registry.Registry {
	return r.runtime.Registry()
}

// Planner returns the planner used by the router.
func (r *Router) Planner() *planner.Planner {
	return r.runtime.Planner()
}

// Loader returns the loader the tree came from, or nil when built with WithTree.
func (r *Router) Loader() ports.TreeLoader {
	return r.loader
}
