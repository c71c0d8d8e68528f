package provider

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ModelInfo describes one registered model. Identity is ID; Provider is the
// backend tag serving it and DisplayName is what UIs show.
type ModelInfo struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName"`
}

type registration struct {
	info     ModelInfo
	provider Provider
}

// Registry maps model ids to the Provider serving them. Insertion order is
// preserved and reflects discovery priority: it drives both ListModels and
// the First fallback. A registry is built once at startup and read-only
// afterwards, so it needs no locking.
type Registry struct {
	entries *orderedmap.OrderedMap[string, registration]
}

func NewRegistry() *Registry {
	return &Registry{entries: orderedmap.New[string, registration]()}
}

// Register inserts a provider for info.ID. The first registration for a
// given id wins; registering a duplicate id is a silent no-op.
func (r *Registry) Register(info ModelInfo, p Provider) {
	if _, ok := r.entries.Get(info.ID); ok {
		return
	}
	r.entries.Set(info.ID, registration{info: info, provider: p})
}

// Get returns the provider registered for the exact model id.
func (r *Registry) Get(modelID string) (Provider, bool) {
	reg, ok := r.entries.Get(modelID)
	if !ok {
		return nil, false
	}
	return reg.provider, true
}

// First returns the provider of the first-registered model. It is the
// fallback used when a caller does not specify a model.
func (r *Registry) First() (Provider, bool) {
	oldest := r.entries.Oldest()
	if oldest == nil {
		return nil, false
	}
	return oldest.Value.provider, true
}

// ListModels returns every registered model in registration order.
func (r *Registry) ListModels() []ModelInfo {
	models := make([]ModelInfo, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		models = append(models, pair.Value.info)
	}
	return models
}

func (r *Registry) IsEmpty() bool {
	return r.entries.Len() == 0
}

// Summary renders a human-readable "provider: id" listing for startup logs
// and error messages.
func (r *Registry) Summary() string {
	if r.IsEmpty() {
		return "no LLM providers configured"
	}
	parts := make([]string, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("%s: %s", pair.Value.info.Provider, pair.Value.info.ID))
	}
	return strings.Join(parts, ", ")
}
