package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/sticky/internal/dto"
	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/tree"
)

// Loader builds a state tree from a Loam repository: a directory of markdown
// (or JSON/YAML) documents, one per state. The frontmatter declares the state and
// the body becomes its description.
//
// A document named "inbox/thread.md" or "inbox.thread.md" declares "inbox.thread".
type Loader struct {
	Repo *loam.TypedRepository[StateMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[StateMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it in a Loader.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// The router never writes state documents; read-only avoids Loam's dev-mode sandbox.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[StateMetadata](repo)), nil
}

// Load lists every document and registers the declared states. It implements ports.TreeLoader.
//
// List only carries Loam's index entries, so each document is fetched again for
// its frontmatter and body.
func (l *Loader) Load(ctx context.Context) (*tree.Tree, error) {
	listed, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	nodes := make([]domain.StateNode, 0, len(listed))
	for _, entry := range listed {
		doc, err := l.get(ctx, entry.ID)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", entry.ID, err)
		}

		name := doc.Data.Name
		if name == "" {
			name = stateName(doc.ID)
		}

		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: state '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID

		def := dto.StateDefinition{
			Sticky:           doc.Data.Sticky,
			Params:           doc.Data.Params,
			CompareAllParams: doc.Data.CompareAllParams,
			Description:      strings.TrimSpace(doc.Content),
			Metadata:         doc.Data.Metadata,
		}
		nodes = append(nodes, def.Node(name))
	}

	t := tree.New()
	if err := t.RegisterAll(nodes...); err != nil {
		return nil, err
	}
	return t, nil
}

// documentExts are the extensions Loam serves documents from, in its lookup order.
var documentExts = []string{".md", ".json", ".yaml", ".yml", ".csv"}

// get fetches a document by its index ID. Loam indexes files without their
// extension, and a dotted ID such as "inbox.thread" would otherwise be read as
// file "inbox.thread", so each document extension is tried in turn.
func (l *Loader) get(ctx context.Context, id string) (*loam.DocumentModel[StateMetadata], error) {
	doc, err := l.Repo.Get(ctx, id)
	if err == nil || isDocumentExt(filepath.Ext(id)) {
		return doc, err
	}
	for _, ext := range documentExts {
		if withExt, extErr := l.Repo.Get(ctx, id+ext); extErr == nil {
			return withExt, nil
		}
	}
	return nil, err
}

func isDocumentExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range documentExts {
		if e == ext {
			return true
		}
	}
	return false
}

// stateName derives a state name from a document ID: "inbox/thread.md" -> "inbox.thread".
// Only document extensions are stripped; the dots of a dotted ID are kept.
func stateName(id string) string {
	id = filepath.ToSlash(id)
	if ext := filepath.Ext(id); isDocumentExt(ext) {
		id = id[:len(id)-len(ext)]
	}
	return strings.ReplaceAll(id, "/", ".")
}
