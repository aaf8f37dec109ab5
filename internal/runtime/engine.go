package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sticky/internal/logging"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/planner"
	"github.com/aretw0/sticky/pkg/ports"
	"github.com/aretw0/sticky/pkg/registry"
	"github.com/aretw0/sticky/pkg/tree"
)

var _ ports.Router = (*Engine)(nil)

// Resolver produces the locals of a state that is entered fresh.
// It is never called for reactivated states.
type Resolver func(ctx context.Context, node *domain.StateNode, params domain.Params) (any, error)

// Engine drives transitions over a state tree: it asks the planner for a plan and
// applies it through the inactive registry.
// Transitions are serialized; one is fully applied before the next begins.
type Engine struct {
	mu sync.Mutex

	tree     *tree.Tree
	registry *registry.Registry
	planner  *planner.Planner
	resolver Resolver
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	active []*domain.StateInstance
	params domain.Params
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithResolver sets the function resolving locals for freshly entered states.
func WithResolver(r Resolver) EngineOption {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine positioned at the root of t with no parked states.
func NewEngine(t *tree.Tree, opts ...EngineOption) *Engine {
	e := &Engine{
		tree:   t,
		logger: logging.NewNop(),
		params: domain.Params{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = func(context.Context, *domain.StateNode, domain.Params) (any, error) { return nil, nil }
	}

	e.registry = registry.New(t, registry.WithLogger(e.logger), registry.WithLifecycleHooks(e.hooks))
	e.planner = planner.New(e.registry, planner.WithLogger(e.logger))
	e.active = []*domain.StateInstance{domain.NewInstance(t.Root(), e.params, nil)}
	return e
}

// Plan computes the plan for moving to name with params without applying it.
func (e *Engine) Plan(name string, params domain.Params) (*domain.TransitionPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	to, err := e.pathTo(name, params)
	if err != nil {
		return nil, err
	}
	return e.planner.Plan(e.fromPath(), to), nil
}

// TransitionTo moves the engine to the state name entered with params.
//
// Locals of every freshly entered state are resolved before anything changes; a
// resolver failure aborts the transition untouched. Hook failures do not abort:
// the transition completes and the hook errors are returned joined together with
// the applied plan.
func (e *Engine) TransitionTo(ctx context.Context, name string, params domain.Params) (*domain.TransitionPlan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	to, err := e.pathTo(name, params)
	if err != nil {
		return nil, err
	}
	from := e.fromPath()
	plan := e.planner.Plan(from, to)
	e.emitTransition(ctx, domain.EventTransitionBegin, leaf(from.Nodes), name, plan, 0, nil)

	// 1. Resolve locals up front.
	locals := make([]any, len(plan.Enter))
	for i, action := range plan.Enter {
		if action == domain.EnterReactivate {
			continue
		}
		node := to.Nodes[plan.Keep+i]
		v, err := e.resolver(ctx, node, to.Params)
		if err != nil {
			err = fmt.Errorf("resolve %q: %w", node.Name, err)
			// No plan: nothing was applied.
			e.emitTransition(ctx, domain.EventTransitionEnd, leaf(from.Nodes), name, nil, time.Since(start), err)
			return nil, err
		}
		locals[i] = v
	}

	var errs []error

	// 2. Exit leaf first. States exited in this transition are each handled by their own exit.
	handled := make([]string, 0, len(plan.Exit))
	for _, n := range from.Nodes[plan.Keep:] {
		handled = append(handled, n.Name)
	}
	for i := len(plan.Exit) - 1; i >= 0; i-- {
		inst := e.active[plan.Keep+i]
		switch plan.Exit[i] {
		case domain.ExitInactivate:
			errs = append(errs, e.registry.Park(ctx, inst))
		default:
			errs = append(errs, e.registry.DiscardSubtree(ctx, inst, handled))
		}
	}

	// 3. Enter root first.
	active := append([]*domain.StateInstance{}, e.active[:plan.Keep]...)
	for i, action := range plan.Enter {
		node := to.Nodes[plan.Keep+i]
		if action == domain.EnterReactivate {
			if parked, ok := e.registry.Get(node.Name); ok {
				errs = append(errs, e.registry.Resume(ctx, parked))
				active = append(active, parked)
				continue
			}
			// Unreachable while transitions are serialized; enter fresh rather than lose the state.
			e.logger.Warn("state planned for reactivation is not parked", "state", node.Name)
			v, err := e.resolver(ctx, node, to.Params)
			if err != nil {
				errs = append(errs, fmt.Errorf("resolve %q: %w", node.Name, err))
			}
			locals[i] = v
		}
		inst := domain.NewInstance(node, to.Params, locals[i])
		errs = append(errs, e.registry.EnterWithStaleCheck(ctx, inst))
		active = append(active, inst)
	}

	e.active = active
	e.params = to.Params

	err = errors.Join(errs...)
	e.logger.Info("transition applied", "from", leaf(from.Nodes), "to", name, "plan", plan.String(), "duration", time.Since(start))
	e.emitTransition(ctx, domain.EventTransitionEnd, leaf(from.Nodes), name, plan, time.Since(start), err)
	return plan, err
}

// Current returns the name of the deepest active state.
func (e *Engine) Current() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active[len(e.active)-1].Name()
}

// Params returns a copy of the params of the active path.
func (e *Engine) Params() domain.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.Clone()
}

// ActivePath returns the live instances from the root to the current state.
func (e *Engine) ActivePath() []*domain.StateInstance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*domain.StateInstance{}, e.active...)
}

// States returns every registered state except the root, sorted by name.
func (e *Engine) States() []*domain.StateNode { return e.tree.Nodes() }

// Inactive returns the parked instances, sorted by name.
func (e *Engine) Inactive() []*domain.StateInstance { return e.registry.List() }

// InactiveByOwner buckets parked instances under the owners that keep them alive.
func (e *Engine) InactiveByOwner() map[string][]*domain.StateInstance { return e.registry.ByOwner() }

// Tree returns the state tree.
func (e *Engine) Tree() *tree.Tree { return e.tree }

// Registry returns the inactive registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Planner returns the transition planner.
func (e *Engine) Planner() *planner.Planner { return e.planner }

func (e *Engine) fromPath() planner.Path {
	nodes := make([]*domain.StateNode, len(e.active))
	for i, inst := range e.active {
		nodes[i] = inst.Node
	}
	return planner.Path{Nodes: nodes, Params: e.params, Instances: e.active}
}

func (e *Engine) pathTo(name string, params domain.Params) (planner.Path, error) {
	nodes, err := e.tree.Path(name)
	if err != nil {
		return planner.Path{}, err
	}
	return planner.Path{Nodes: nodes, Params: params.Clone()}, nil
}

func (e *Engine) emitTransition(ctx context.Context, t domain.EventType, from, to string, plan *domain.TransitionPlan, d time.Duration, err error) {
	if e.hooks.OnTransition == nil {
		return
	}
	e.hooks.OnTransition(ctx, &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t},
		From:      from,
		To:        to,
		Plan:      plan,
		Duration:  d,
		Err:       err,
	})
}

func leaf(nodes []*domain.StateNode) string {
	if len(nodes) == 0 {
		return ""
	}
	return nodes[len(nodes)-1].Name
}
