package ports

import (
	"context"

	"github.com/aretw0/sticky/pkg/tree"
)

// TreeLoader builds a state tree from its source.
// This allows the definition format (YAML, JSON, markdown documents) to be decoupled.
type TreeLoader interface {
	Load(ctx context.Context) (*tree.Tree, error)
}
