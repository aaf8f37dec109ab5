package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/aretw0/sticky/pkg/ports"
)

// masked replaces values of sensitive keys.
const masked = "***"

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks params and locals whose keys match
// one of the patterns before the snapshot reaches the store.
//
// Masking is one-way. A restored instance carries "***" for the masked keys, so a
// later transition that owns one of them sees different params and updates the
// state instead of reactivating it.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Never touch the snapshot the caller still holds.
	cloned := snap.Clone()

	cloned.Params = m.maskParams(cloned.Params)
	for _, recs := range [][]domain.InstanceRecord{cloned.Active, cloned.Inactive} {
		for i := range recs {
			recs[i].Params = m.maskParams(recs[i].Params)
			if locals, ok := recs[i].Locals.(map[string]any); ok {
				copied := deepCopyMap(locals)
				maskMap(copied, m.patterns)
				recs[i].Locals = copied
			}
		}
	}

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) maskParams(p domain.Params) domain.Params {
	if p == nil {
		return nil
	}
	out := domain.Params(deepCopyMap(p))
	maskMap(out, m.patterns)
	return out
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		matched := false
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = masked
				matched = true
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok && !matched {
			maskMap(subMap, patterns)
		}
	}
}
