package dsl

import (
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/tree"
)

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	node    domain.StateNode
	builder *Builder
}

// Sticky marks the state as sticky: navigating away parks it instead of exiting it.
func (s *StateBuilder) Sticky() *StateBuilder {
	s.node.Sticky = true
	return s
}

// Params declares the parameter keys the state introduces.
func (s *StateBuilder) Params(keys ...string) *StateBuilder {
	if s.node.OwnParams == nil {
		s.node.OwnParams = []string{}
	}
	s.node.OwnParams = append(s.node.OwnParams, keys...)
	return s
}

// CompareAllParams makes the state compare every parameter key when deciding
// whether it is entered with the same params. Use it when the state does not
// know which keys it owns.
func (s *StateBuilder) CompareAllParams() *StateBuilder {
	s.node.OwnParams = nil
	return s
}

// Describe sets the description shown by diagnostics.
func (s *StateBuilder) Describe(text string) *StateBuilder {
	s.node.Description = text
	return s
}

// OnEnter sets the hook run when a fresh instance of the state is entered.
func (s *StateBuilder) OnEnter(h domain.Hook) *StateBuilder {
	s.node.Hooks.OnEnter = h
	return s
}

// OnExit sets the hook run when an instance is destroyed.
func (s *StateBuilder) OnExit(h domain.Hook) *StateBuilder {
	s.node.Hooks.OnExit = h
	return s
}

// OnInactivate sets the hook run when an instance is parked.
func (s *StateBuilder) OnInactivate(h domain.Hook) *StateBuilder {
	s.node.Hooks.OnInactivate = h
	return s
}

// OnReactivate sets the hook run when a parked instance becomes active again.
func (s *StateBuilder) OnReactivate(h domain.Hook) *StateBuilder {
	s.node.Hooks.OnReactivate = h
	return s
}

// Add declares another state on the same builder, allowing chained definitions.
func (s *StateBuilder) Add(name string) *StateBuilder {
	return s.builder.Add(name)
}

// Build builds the tree of the owning builder.
func (s *StateBuilder) Build() (*tree.Tree, error) {
	return s.builder.Build()
}
