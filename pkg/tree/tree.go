// Package tree holds the state definitions of a router in an arena keyed by name.
//
// Nodes never point at each other: a node names its parent and the Tree resolves
// the name. Every tree has an implicit root named "" that is the parent of all
// top-level states and the first element of every Path.
package tree

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/sticky/pkg/domain"
)

// Tree is the arena owning every registered StateNode.
// Safe for concurrent use.
type Tree struct {
	mu       sync.RWMutex
	nodes    map[string]*domain.StateNode
	children map[string][]string
}

// New creates a tree holding only the root state.
func New() *Tree {
	t := &Tree{
		nodes:    make(map[string]*domain.StateNode),
		children: make(map[string][]string),
	}
	t.nodes[domain.RootName] = &domain.StateNode{Name: domain.RootName, OwnParams: []string{}}
	return t
}

// Register adds a state to the tree and returns the arena-owned node.
// The parent is derived from the dotted name and must already be registered.
func (t *Tree) Register(node domain.StateNode) (*domain.StateNode, error) {
	if node.Name == domain.RootName {
		return nil, fmt.Errorf("cannot register the root state: %w", domain.ErrDuplicateState)
	}
	if strings.HasPrefix(node.Name, ".") || strings.HasSuffix(node.Name, ".") || strings.Contains(node.Name, "..") {
		return nil, fmt.Errorf("invalid state name %q", node.Name)
	}

	parent := domain.ParentName(node.Name)
	if node.Parent != "" && node.Parent != parent {
		return nil, fmt.Errorf("state %q declares parent %q but its name implies %q", node.Name, node.Parent, parent)
	}
	node.Parent = parent
	if node.OwnParams != nil {
		node.OwnParams = append([]string{}, node.OwnParams...)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.nodes[node.Name]; exists {
		return nil, fmt.Errorf("state %q: %w", node.Name, domain.ErrDuplicateState)
	}
	if _, ok := t.nodes[parent]; !ok {
		return nil, fmt.Errorf("state %q needs %q: %w", node.Name, parent, domain.ErrParentNotFound)
	}

	stored := node
	t.nodes[node.Name] = &stored
	t.children[parent] = append(t.children[parent], node.Name)
	sort.Strings(t.children[parent])
	return &stored, nil
}

// RegisterAll registers nodes shallowest first, so callers need not order them.
func (t *Tree) RegisterAll(nodes ...domain.StateNode) error {
	sorted := append([]domain.StateNode{}, nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.Count(sorted[i].Name, ".") < strings.Count(sorted[j].Name, ".")
	})
	for _, n := range sorted {
		if _, err := t.Register(n); err != nil {
			return err
		}
	}
	return nil
}

// Root returns the implicit root state.
func (t *Tree) Root() *domain.StateNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[domain.RootName]
}

// Lookup returns the node registered under name.
func (t *Tree) Lookup(name string) (*domain.StateNode, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[name]
	return n, ok
}

// Get returns the node registered under name or domain.ErrStateNotFound.
func (t *Tree) Get(name string) (*domain.StateNode, error) {
	n, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("state %q: %w", name, domain.ErrStateNotFound)
	}
	return n, nil
}

// Parent returns the parent of node, or nil for the root and unknown nodes.
func (t *Tree) Parent(node *domain.StateNode) *domain.StateNode {
	if node == nil || node.IsRoot() {
		return nil
	}
	p, _ := t.Lookup(node.Parent)
	return p
}

// Path returns the nodes from the root to name, root first.
func (t *Tree) Path(name string) ([]*domain.StateNode, error) {
	node, err := t.Get(name)
	if err != nil {
		return nil, err
	}
	path := make([]*domain.StateNode, 0, node.Depth()+1)
	for n := node; n != nil; n = t.Parent(n) {
		path = append(path, n)
	}
	reverse(path)
	return path, nil
}

// Children returns the direct children of name, sorted by name.
func (t *Tree) Children(name string) []*domain.StateNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := t.children[name]
	out := make([]*domain.StateNode, 0, len(names))
	for _, n := range names {
		out = append(out, t.nodes[n])
	}
	return out
}

// Nodes returns every registered state except the root, sorted by name.
func (t *Tree) Nodes() []*domain.StateNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*domain.StateNode, 0, len(t.nodes))
	for name, n := range t.nodes {
		if name == domain.RootName {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered states, root excluded.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes) - 1
}

func reverse(nodes []*domain.StateNode) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
