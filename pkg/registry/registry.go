// Package registry keeps the inactive (parked) state instances of a router and
// applies the lifecycle notifications that move instances in and out of it.
//
// A state name is present in the registry if and only if that state is parked.
// Entries are added by Park and removed by Resume, DiscardSubtree and
// EnterWithStaleCheck. Every mutation of the map completes before the matching
// per-state hook runs, so a failing hook can never leave an entry half-registered.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/sticky/internal/logging"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/params"
	"github.com/aretw0/sticky/pkg/tree"
)

// Registry maps state names to parked instances.
// Safe for concurrent readers; notifications are expected to come from one transition at a time.
type Registry struct {
	mu       sync.RWMutex
	inactive map[string]*domain.StateInstance

	tree   *tree.Tree
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Registry) {
		r.hooks = hooks
	}
}

// New creates an empty registry for states of t.
func New(t *tree.Tree, opts ...Option) *Registry {
	r := &Registry{
		inactive: make(map[string]*domain.StateInstance),
		tree:     t,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the parked instance of the named state.
func (r *Registry) Get(name string) (*domain.StateInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.inactive[name]
	return inst, ok
}

// Len returns the number of parked instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.inactive)
}

// List returns every parked instance, sorted by state name.
func (r *Registry) List() []*domain.StateInstance {
	r.mu.RLock()
	out := make([]*domain.StateInstance, 0, len(r.inactive))
	for _, inst := range r.inactive {
		out = append(out, inst)
	}
	r.mu.RUnlock()

	sortByName(out)
	return out
}

// ByOwner groups parked instances by the parent of each of their sticky ancestors.
//
// An instance below two sticky states appears in two buckets. Buckets are sorted by
// state name.
func (r *Registry) ByOwner() map[string][]*domain.StateInstance {
	byOwner := make(map[string][]*domain.StateInstance)
	for _, inst := range r.List() {
		for _, owner := range r.tree.OwnerNames(inst.Node) {
			byOwner[owner] = append(byOwner[owner], inst)
		}
	}
	return byOwner
}

// Load replaces the registry content with insts without running any hook.
// It rehydrates a registry from a persisted snapshot.
func (r *Registry) Load(insts ...*domain.StateInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inactive = make(map[string]*domain.StateInstance, len(insts))
	for _, inst := range insts {
		r.inactive[inst.Name()] = inst
	}
}

// Park registers inst as inactive and runs its OnInactivate hook.
// The instance keeps its locals.
//
// A state is parked at most once: another instance already parked under the same
// name is displaced and discarded.
func (r *Registry) Park(ctx context.Context, inst *domain.StateInstance) error {
	name := inst.Name()

	r.mu.Lock()
	displaced := r.inactive[name]
	r.inactive[name] = inst
	r.mu.Unlock()

	var errs []error
	if displaced != nil && displaced != inst {
		r.logger.Warn("parking displaces a parked instance", "state", name, "instance", displaced.ID)
		errs = append(errs, r.discard(ctx, displaced))
	}

	r.logger.Debug("state parked", "state", name, "instance", inst.ID)
	if r.hooks.OnPark != nil {
		r.hooks.OnPark(ctx, domain.NewStateEvent(domain.EventStatePark, inst))
	}
	errs = append(errs, r.invoke(ctx, inst, domain.HookInactivate, inst.Node.Hooks.OnInactivate))
	return errors.Join(errs...)
}

// Resume removes inst from the registry, if present, and runs its OnReactivate hook.
func (r *Registry) Resume(ctx context.Context, inst *domain.StateInstance) error {
	name := inst.Name()

	r.mu.Lock()
	delete(r.inactive, name)
	r.mu.Unlock()

	r.logger.Debug("state resumed", "state", name, "instance", inst.ID)
	if r.hooks.OnResume != nil {
		r.hooks.OnResume(ctx, domain.NewStateEvent(domain.EventStateResume, inst))
	}
	return r.invoke(ctx, inst, domain.HookReactivate, inst.Node.Hooks.OnReactivate)
}

// DiscardSubtree exits every parked descendant of exiting that is not listed in
// handled, deepest first, and then exits exiting itself.
//
// Each discarded instance is removed from the registry, has its OnExit hook run and
// its locals dropped. Hook failures do not stop the discard; they are joined into the
// returned error.
func (r *Registry) DiscardSubtree(ctx context.Context, exiting *domain.StateInstance, handled []string) error {
	skip := make(map[string]bool, len(handled))
	for _, name := range handled {
		skip[name] = true
	}

	r.mu.Lock()
	var descendants []*domain.StateInstance
	for name, inst := range r.inactive {
		if skip[name] || !exiting.Node.IsAncestorOf(name) {
			continue
		}
		descendants = append(descendants, inst)
		delete(r.inactive, name)
	}
	delete(r.inactive, exiting.Name())
	r.mu.Unlock()

	sortDeepestFirst(descendants)

	var errs []error
	for _, inst := range descendants {
		r.logger.Debug("discarding parked descendant", "state", inst.Name(), "ancestor", exiting.Name())
		errs = append(errs, r.discard(ctx, inst))
	}
	errs = append(errs, r.discard(ctx, exiting))
	return errors.Join(errs...)
}

// EnterWithStaleCheck runs the OnEnter hook of a freshly entered instance after
// discarding any parked instance of the same state.
//
// A parked instance whose params differ from inst's on the state's own params is
// stale; its subtree is discarded. A parked instance with matching params is
// superseded by inst and discarded the same way, since a name cannot be both live
// and parked.
func (r *Registry) EnterWithStaleCheck(ctx context.Context, inst *domain.StateInstance) error {
	var errs []error
	if parked, ok := r.Get(inst.Name()); ok && parked != inst {
		if !params.Equal(inst.Params, parked.Params, inst.Node.OwnParams) {
			r.logger.Debug("discarding stale parked instance", "state", inst.Name(), "instance", parked.ID)
		} else {
			r.logger.Warn("fresh entry supersedes parked instance", "state", inst.Name(), "instance", parked.ID)
		}
		errs = append(errs, r.DiscardSubtree(ctx, parked, nil))
	}

	r.logger.Debug("state entered", "state", inst.Name(), "instance", inst.ID)
	if r.hooks.OnEnter != nil {
		r.hooks.OnEnter(ctx, domain.NewStateEvent(domain.EventStateEnter, inst))
	}
	errs = append(errs, r.invoke(ctx, inst, domain.HookEnter, inst.Node.Hooks.OnEnter))
	return errors.Join(errs...)
}

func (r *Registry) discard(ctx context.Context, inst *domain.StateInstance) error {
	err := r.invoke(ctx, inst, domain.HookExit, inst.Node.Hooks.OnExit)
	inst.Locals = nil
	if r.hooks.OnDiscard != nil {
		r.hooks.OnDiscard(ctx, domain.NewStateEvent(domain.EventStateDiscard, inst))
	}
	return err
}

func (r *Registry) invoke(ctx context.Context, inst *domain.StateInstance, name domain.HookName, hook domain.Hook) error {
	if hook == nil {
		return nil
	}
	if err := hook(ctx, inst); err != nil {
		r.logger.Warn("state hook failed", "state", inst.Name(), "hook", string(name), "err", err)
		return &domain.HookError{State: inst.Name(), Hook: name, Err: err}
	}
	return nil
}

func sortByName(insts []*domain.StateInstance) {
	sort.Slice(insts, func(i, j int) bool { return insts[i].Name() < insts[j].Name() })
}

func sortDeepestFirst(insts []*domain.StateInstance) {
	sort.Slice(insts, func(i, j int) bool {
		di := strings.Count(insts[i].Name(), ".")
		dj := strings.Count(insts[j].Name(), ".")
		if di != dj {
			return di > dj
		}
		return insts[i].Name() < insts[j].Name()
	})
}
