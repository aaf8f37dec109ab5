package dsl

import (
	"fmt"
	"sort"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/tree"
)

// Builder manages the state tree construction.
type Builder struct {
	states map[string]*StateBuilder
}

// New creates a new tree builder.
func New() *Builder {
	return &Builder{
		states: make(map[string]*StateBuilder),
	}
}

// Add declares a state in the tree.
// If the state already exists, it returns the existing builder.
func (b *Builder) Add(name string) *StateBuilder {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	sb := &StateBuilder{
		node: domain.StateNode{
			Name:      name,
			OwnParams: []string{},
		},
		builder: b,
	}
	b.states[name] = sb
	return sb
}

// Build registers every declared state, parents before children, into a new tree.
func (b *Builder) Build() (*tree.Tree, error) {
	names := make([]string, 0, len(b.states))
	for name := range b.states {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]domain.StateNode, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, b.states[name].node)
	}

	t := tree.New()
	if err := t.RegisterAll(nodes...); err != nil {
		return nil, fmt.Errorf("failed to build state tree: %w", err)
	}
	return t, nil
}

// MustBuild is like Build but panics on error. Intended for tests and static trees.
func (b *Builder) MustBuild() *tree.Tree {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
