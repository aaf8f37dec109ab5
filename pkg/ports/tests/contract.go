package tests

import (
	"context"
	"testing"

	"github.com/aretw0/sticky/pkg/ports"
)

// ExpectedState describes a state a loader must produce.
type ExpectedState struct {
	Sticky bool
	// OwnParams nil means the state compares every parameter key.
	OwnParams []string
}

// TreeLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.TreeLoader.
func TreeLoaderContractTest(t *testing.T, loader ports.TreeLoader, expected map[string]ExpectedState) {
	t.Helper()

	tr, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading tree: %v", err)
	}

	t.Run("Load_States", func(t *testing.T) {
		if tr.Len() != len(expected) {
			t.Errorf("state count mismatch. got %d, want %d", tr.Len(), len(expected))
		}
		for name, want := range expected {
			node, err := tr.Get(name)
			if err != nil {
				t.Fatalf("unexpected error getting state %s: %v", name, err)
			}
			if node.Sticky != want.Sticky {
				t.Errorf("sticky mismatch for %s. got %v, want %v", name, node.Sticky, want.Sticky)
			}
			if (node.OwnParams == nil) != (want.OwnParams == nil) {
				t.Errorf("own params mode mismatch for %s. got %#v, want %#v", name, node.OwnParams, want.OwnParams)
				continue
			}
			if len(node.OwnParams) != len(want.OwnParams) {
				t.Errorf("own params mismatch for %s. got %v, want %v", name, node.OwnParams, want.OwnParams)
				continue
			}
			for i := range want.OwnParams {
				if node.OwnParams[i] != want.OwnParams[i] {
					t.Errorf("own params mismatch for %s. got %v, want %v", name, node.OwnParams, want.OwnParams)
				}
			}
		}
	})

	t.Run("Load_Paths", func(t *testing.T) {
		for name := range expected {
			path, err := tr.Path(name)
			if err != nil {
				t.Fatalf("unexpected error resolving path of %s: %v", name, err)
			}
			if path[len(path)-1].Name != name {
				t.Errorf("path of %s ends at %s", name, path[len(path)-1].Name)
			}
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		if _, err := tr.Get("non-existent-state"); err == nil {
			t.Error("expected error for non-existent state, got nil")
		}
	})
}
