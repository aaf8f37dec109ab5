package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/tree"
)

// Loader implements ports.TreeLoader over state nodes held in memory.
// Each Load builds a fresh tree, so routers never share an arena.
type Loader struct {
	nodes []domain.StateNode
}

// NewLoader creates a loader from domain nodes.
func NewLoader(nodes ...domain.StateNode) (*Loader, error) {
	for _, n := range nodes {
		if n.Name == domain.RootName {
			return nil, fmt.Errorf("state missing name")
		}
	}
	return &Loader{nodes: append([]domain.StateNode{}, nodes...)}, nil
}

// Load registers the nodes into a new tree.
func (l *Loader) Load(ctx context.Context) (*tree.Tree, error) {
	t := tree.New()
	if err := t.RegisterAll(l.nodes...); err != nil {
		return nil, err
	}
	return t, nil
}
