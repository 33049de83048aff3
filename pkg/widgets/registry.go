package widgets

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-trscan/pkg/layout"
)

// Constructor builds the widget for a layout entry.
type Constructor func(ctx context.Context, entry layout.Entry, env BuildEnv) (Widget, error)

type registration struct {
	build Constructor
	order int
}

// Registry maps widget kinds to constructors. Kinds are listed in
// registration order; re-registering a kind replaces its constructor but
// keeps its position.
type Registry struct {
	mu      sync.RWMutex
	entries map[layout.Kind]registration
}

// NewRegistry constructs a registry with the built-in kinds registered.
func NewRegistry() *Registry {
	reg := &Registry{entries: make(map[layout.Kind]registration)}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces the constructor of kind.
func (r *Registry) Register(kind layout.Kind, build Constructor) {
	if r == nil || build == nil {
		return
	}
	kind = layout.Kind(strings.TrimSpace(string(kind)))
	if kind == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[layout.Kind]registration)
	}
	order := len(r.entries)
	if existing, ok := r.entries[kind]; ok {
		order = existing.order
	}
	r.entries[kind] = registration{build: build, order: order}
}

// Get returns the constructor of kind.
func (r *Registry) Get(kind layout.Kind) (Constructor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[kind]
	return entry.build, ok
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind layout.Kind) bool {
	_, ok := r.Get(kind)
	return ok
}

// Kinds lists the registered kinds in registration order.
func (r *Registry) Kinds() []layout.Kind {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]layout.Kind, 0, len(r.entries))
	for kind := range r.entries {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return r.entries[kinds[i]].order < r.entries[kinds[j]].order
	})
	return kinds
}

func (r *Registry) registerBuiltins() {
	r.Register(layout.KindTrscanOptions, panelConstructor(func(cfg PanelConfig) Widget { return NewTrscanOptions(cfg) }))
	r.Register(layout.KindExclusionContent, panelConstructor(func(cfg PanelConfig) Widget { return NewExclusionContent(cfg) }))
	r.Register(layout.KindFPContent, panelConstructor(func(cfg PanelConfig) Widget { return NewFPContent(cfg) }))
	r.Register(layout.KindAnalysisContent, panelConstructor(func(cfg PanelConfig) Widget { return NewAnalysisContent(cfg) }))
	r.Register(layout.KindLanguageContent, panelConstructor(func(cfg PanelConfig) Widget { return NewLanguageContent(cfg) }))
	r.Register(layout.KindOpenXMLContent, panelConstructor(func(cfg PanelConfig) Widget { return NewOpenXMLContent(cfg) }))
	r.Register(layout.KindLoadFilesContent, buildContent)
	r.Register(layout.KindReportOptions, buildReportOptions)
	r.Register(layout.KindCoverPage, buildCoverPage)
	r.Register(layout.KindTableOfContents, buildTableOfContents)
	r.Register(layout.KindWYSIWYGContent, buildContent)
	r.Register(layout.KindFindingList, buildFindingList)
	r.Register(layout.KindEndpointList, buildEndpointList)
	r.Register(layout.KindPageBreak, func(context.Context, layout.Entry, BuildEnv) (Widget, error) {
		return NewPageBreak(), nil
	})
}
