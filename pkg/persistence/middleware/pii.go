package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/mohae/deepcopy"
)

// Mask replaces masked values in stored snapshots.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of model keys matching the
// patterns before they reach the store. Attribute names are keys too, so a pattern such as
// "^data-secret" hides the matching attributes of every element.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, widgetID string, snap domain.Snapshot) error {
	// The live model is shared with every view; mask a copy.
	snap.Model = mask(deepcopy.Copy(snap.Model), m.patterns)
	return m.next.Save(ctx, widgetID, snap)
}

func (m *piiMiddleware) Load(ctx context.Context, widgetID string) (domain.Snapshot, error) {
	return m.next.Load(ctx, widgetID)
}

func (m *piiMiddleware) Delete(ctx context.Context, widgetID string) error {
	return m.next.Delete(ctx, widgetID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func mask(node any, patterns []*regexp.Regexp) any {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			if matchAny(k, patterns) {
				v[k] = Mask
				continue
			}
			v[k] = mask(child, patterns)
		}
	case []any:
		for i, child := range v {
			v[i] = mask(child, patterns)
		}
	}
	return node
}

func matchAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
