package domain

import (
	"context"
	"strings"
)

// RootName is the name of the implicit root of every state tree.
const RootName = ""

// Hook is a lifecycle callback invoked with the instance whose locals it may use.
type Hook func(ctx context.Context, inst *StateInstance) error

// Hooks groups the optional lifecycle callbacks of a state.
// A nil field means the state does not react to that lifecycle event.
type Hooks struct {
	OnEnter      Hook
	OnExit       Hook
	OnInactivate Hook
	OnReactivate Hook
}

// StateNode is the immutable definition of a state in the tree.
//
// Nodes reference their parent by name; the tree arena resolves the name.
type StateNode struct {
	// Name is the dot-delimited hierarchical identifier, e.g. "a.b.c".
	Name string `json:"name" yaml:"name"`

	// Parent is the name of the parent state. Empty for top-level states (their parent is the root).
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	// Sticky marks states that are parked instead of destroyed when navigated away from.
	Sticky bool `json:"sticky,omitempty" yaml:"sticky,omitempty"`

	// OwnParams lists the parameter keys this state introduces.
	// A nil slice means "unknown": equality falls back to every key in the parameter map.
	OwnParams []string `json:"own_params" yaml:"own_params"`

	// Description is free text shown by diagnostics.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Hooks Hooks `json:"-" yaml:"-"`
}

// IsRoot reports whether the node is the implicit tree root.
func (n *StateNode) IsRoot() bool {
	return n != nil && n.Name == RootName
}

// Depth returns the number of dot-delimited segments in the name (root is 0).
func (n *StateNode) Depth() int {
	if n == nil || n.Name == RootName {
		return 0
	}
	return strings.Count(n.Name, ".") + 1
}

// Prefix returns the name prefix shared by every descendant of the node.
func (n *StateNode) Prefix() string {
	return n.Name + "."
}

// IsAncestorOf reports whether name is a strict descendant of the node by dot-prefix.
func (n *StateNode) IsAncestorOf(name string) bool {
	if n.IsRoot() {
		return name != RootName
	}
	return strings.HasPrefix(name, n.Prefix())
}

// ParentName derives the parent name from a dotted state name ("a.b.c" -> "a.b").
func ParentName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return RootName
}
