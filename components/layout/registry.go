package layout

import (
	"fmt"
	"sort"
	"sync"
)

// PageHook lets packages register page definitions during init().
type PageHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []PageHook
)

// RegisterPageHook registers a hook executed against new registries.
func RegisterPageHook(h PageHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry maps page ids to their ordered widget definitions.
type Registry struct {
	mu    sync.RWMutex
	pages map[string][]WidgetDefinition
}

// NewRegistry builds an empty registry and applies global hooks.
func NewRegistry() *Registry {
	reg := &Registry{pages: map[string][]WidgetDefinition{}}
	_ = reg.ApplyHooks()
	return reg
}

// ApplyHooks executes registered page hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterPage validates and stores the definitions for pageID, replacing any
// previous entry.
func (r *Registry) RegisterPage(pageID string, defs []WidgetDefinition) error {
	if pageID == "" {
		return fmt.Errorf("layout: page id is required")
	}
	normalized, err := NormalizeDefinitions(defs)
	if err != nil {
		return fmt.Errorf("layout: page %s: %w", pageID, err)
	}
	if err := ValidateDefinitions(normalized); err != nil {
		return fmt.Errorf("layout: page %s: %w", pageID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[pageID] = normalized
	return nil
}

// Definitions returns a copy of the definitions for pageID.
func (r *Registry) Definitions(pageID string) ([]WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs, ok := r.pages[pageID]
	if !ok {
		return nil, false
	}
	return append([]WidgetDefinition(nil), defs...), true
}

// Pages returns the registered page ids sorted.
func (r *Registry) Pages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.pages))
	for id := range r.pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadManifestFile reads a manifest from disk and registers its pages.
func (r *Registry) LoadManifestFile(path string) (*PageManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers every page of a decoded manifest.
func (r *Registry) LoadManifestDocument(doc *PageManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("layout: manifest document is nil")
	}
	for _, page := range doc.Pages {
		if err := r.RegisterPage(page.ID, page.Widgets); err != nil {
			return fmt.Errorf("layout: register page %s from %s: %w", page.ID, doc.Source, err)
		}
	}
	return nil
}
