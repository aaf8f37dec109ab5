package ports

import (
	"context"

	"github.com/aretw0/sticky/pkg/domain"
)

// Router is the surface of a running sticky router used by adapters (HTTP, MCP, sessions).
type Router interface {
	// TransitionTo moves to the named state, applying the computed plan.
	TransitionTo(ctx context.Context, name string, params domain.Params) (*domain.TransitionPlan, error)

	// Plan computes the plan for a transition without applying it.
	Plan(name string, params domain.Params) (*domain.TransitionPlan, error)

	Current() string
	Params() domain.Params

	// States returns every registered state, sorted by name.
	States() []*domain.StateNode

	// Inactive returns the parked instances, sorted by name.
	Inactive() []*domain.StateInstance

	// InactiveByOwner buckets parked instances under the parent of each of their sticky ancestors.
	InactiveByOwner() map[string][]*domain.StateInstance

	Snapshot() *domain.Snapshot
	Restore(snap *domain.Snapshot) error
}
