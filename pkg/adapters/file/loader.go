package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/sticky/internal/dto"
	"github.com/aretw0/sticky/pkg/tree"
)

// Loader builds a state tree from a YAML or JSON file.
type Loader struct {
	Path string
}

// NewLoader creates a loader for the tree file at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads and registers the tree. It implements ports.TreeLoader.
func (l *Loader) Load(ctx context.Context) (*tree.Tree, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	return Parse(data, filepath.Ext(l.Path))
}

// Parse builds a tree from the contents of a tree file.
func Parse(data []byte, ext string) (*tree.Tree, error) {
	var def dto.TreeDefinition
	if err := Decode(data, ext, &def); err != nil {
		return nil, err
	}
	nodes, err := def.Nodes()
	if err != nil {
		return nil, err
	}
	t := tree.New()
	if err := t.RegisterAll(nodes...); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadScript reads a transition script (YAML or JSON).
func LoadScript(path string) (*dto.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	var script dto.Script
	if err := Decode(data, filepath.Ext(path), &script); err != nil {
		return nil, err
	}
	for i, step := range script.Steps {
		if step.Params == nil {
			script.Steps[i].Params = map[string]any{}
		}
	}
	return &script, nil
}
