package tree

import "github.com/aretw0/sticky/pkg/domain"

// StickyAncestors returns every sticky node on the chain from the root to node,
// node included, root first. A nil node yields an empty list.
func (t *Tree) StickyAncestors(node *domain.StateNode) []*domain.StateNode {
	stack := []*domain.StateNode{}
	for n := node; n != nil; n = t.Parent(n) {
		if n.Sticky {
			stack = append(stack, n)
		}
	}
	reverse(stack)
	return stack
}

// OwnerNames returns, for each sticky ancestor of node, the name of that
// ancestor's parent. An inactive instance hangs off these states.
func (t *Tree) OwnerNames(node *domain.StateNode) []string {
	stickies := t.StickyAncestors(node)
	owners := make([]string, 0, len(stickies))
	for _, s := range stickies {
		owners = append(owners, s.Parent)
	}
	return owners
}
