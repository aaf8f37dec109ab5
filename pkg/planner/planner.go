// Package planner decides what happens to every state node during a transition.
//
// Plan is pure: it reads the inactive registry but never mutates it and performs
// no I/O. The router applies the resulting plan through the registry's lifecycle
// notifications.
package planner

import (
	"log/slog"
	"strings"

	"github.com/aretw0/sticky/internal/logging"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/params"
	"github.com/aretw0/sticky/pkg/registry"
)

// Path is one side of a transition: the nodes from the root to the leaf and the
// params in effect.
type Path struct {
	Nodes  []*domain.StateNode
	Params domain.Params

	// Instances optionally holds the live instances aligned with Nodes.
	// When present they are the ones reported as newly parked.
	Instances []*domain.StateInstance
}

// Planner computes transition plans against an inactive registry.
type Planner struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// Option configures the Planner.
type Option func(*Planner)

// WithLogger configures a logger for the Planner.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// New creates a Planner reading from reg.
func New(reg *registry.Registry, opts ...Option) *Planner {
	p := &Planner{
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ClassifyEnter decides how node is entered with newParams.
//
// A parameter change on an ancestor forces updateParams: a parked descendant was
// resolved against the old ancestor params. Otherwise a node without a parked
// instance is entered fresh, and a parked instance is reactivated only when its
// saved params match newParams on the node's own params.
func (p *Planner) ClassifyEnter(node *domain.StateNode, newParams domain.Params, ancestorForcedUpdate bool) domain.EnterAction {
	if ancestorForcedUpdate {
		return domain.EnterUpdateParams
	}
	parked, ok := p.registry.Get(node.Name)
	if !ok {
		return domain.EnterFresh
	}
	if params.Equal(newParams, parked.Params, node.OwnParams) {
		return domain.EnterReactivate
	}
	return domain.EnterUpdateParams
}

// Plan computes the transition plan for moving from one path to another.
func (p *Planner) Plan(from, to Path) *domain.TransitionPlan {
	plan := &domain.TransitionPlan{
		Enter:    []domain.EnterAction{},
		Exit:     []domain.ExitAction{},
		Inactive: []*domain.StateInstance{},
	}

	// 1. Pivot: shared prefix by identity and own params.
	keep := 0
	for keep < len(to.Nodes) && keep < len(from.Nodes) {
		node := to.Nodes[keep]
		if node != from.Nodes[keep] || !params.Equal(to.Params, from.Params, node.OwnParams) {
			break
		}
		keep++
	}
	plan.Keep = keep
	plan.Sticky = stickyTransition(from.Nodes, to.Nodes, keep)

	// 2. Entering nodes.
	var deepestReactivate, firstUpdated string
	reactivated := make(map[string]bool)
	ancestorUpdated := false
	for _, node := range to.Nodes[keep:] {
		action := domain.EnterFresh
		if plan.Sticky.To {
			action = p.ClassifyEnter(node, to.Params, ancestorUpdated)
		}
		ancestorUpdated = ancestorUpdated || action == domain.EnterUpdateParams

		switch action {
		case domain.EnterReactivate:
			reactivated[node.Name] = true
			deepestReactivate = node.Prefix()
		case domain.EnterUpdateParams:
			if firstUpdated == "" {
				firstUpdated = node.Name
			}
		}
		plan.Enter = append(plan.Enter, action)
	}

	// 3. Parked instances hanging off the kept prefix stay parked, unless this
	// transition reactivates them or re-enters them or one of their ancestors.
	// Every node from the first updateParams down is updateParams too, and its
	// stale parked subtree is discarded on entry.
	byOwner := p.registry.ByOwner()
	seen := make(map[*domain.StateInstance]bool)
	for _, node := range from.Nodes[:keep] {
		for _, inst := range byOwner[node.Name] {
			name := inst.Name()
			switch {
			case seen[inst],
				reactivated[name],
				deepestReactivate != "" && strings.HasPrefix(name, deepestReactivate),
				firstUpdated != "" && (name == firstUpdated || strings.HasPrefix(name, firstUpdated+".")):
				continue
			}
			seen[inst] = true
			plan.Inactive = append(plan.Inactive, inst)
		}
	}

	// 4. Exiting nodes.
	for i, node := range from.Nodes[keep:] {
		if !plan.Sticky.From {
			plan.Exit = append(plan.Exit, domain.ExitDiscard)
			continue
		}
		plan.Exit = append(plan.Exit, domain.ExitInactivate)
		plan.Inactive = append(plan.Inactive, from.instanceAt(keep+i, node))
	}

	p.logger.Debug("transition planned", "from", leafName(from.Nodes), "to", leafName(to.Nodes), "plan", plan.String())
	return plan
}

// stickyTransition reports the sticky flags of the nodes at the pivot.
// The same node on both sides means no sticky transition happens there.
func stickyTransition(from, to []*domain.StateNode, keep int) domain.StickyTransition {
	var fromNode, toNode *domain.StateNode
	if keep < len(from) {
		fromNode = from[keep]
	}
	if keep < len(to) {
		toNode = to[keep]
	}
	if fromNode == toNode {
		return domain.StickyTransition{}
	}
	return domain.StickyTransition{
		From: fromNode != nil && fromNode.Sticky,
		To:   toNode != nil && toNode.Sticky,
	}
}

func (p Path) instanceAt(depth int, node *domain.StateNode) *domain.StateInstance {
	if depth < len(p.Instances) && p.Instances[depth] != nil {
		return p.Instances[depth]
	}
	return domain.NewInstance(node, p.Params, nil)
}

func leafName(nodes []*domain.StateNode) string {
	if len(nodes) == 0 {
		return ""
	}
	return nodes[len(nodes)-1].Name
}
