package llm

import (
	"log"
	"strings"
)

// Registry maps model-name prefixes to providers. Routing rules are
// declared once at construction instead of being scattered through
// call sites as string checks.
type Registry struct {
	fallback ChatProvider
	prefixes []prefixRule
}

type prefixRule struct {
	prefix   string
	provider ChatProvider
}

// NewRegistry creates a registry that routes unmatched model ids to fallback
func NewRegistry(fallback ChatProvider) *Registry {
	return &Registry{fallback: fallback}
}

// Register routes model ids starting with prefix (case-insensitive) to p.
// Rules are checked in registration order.
func (r *Registry) Register(prefix string, p ChatProvider) {
	r.prefixes = append(r.prefixes, prefixRule{prefix: strings.ToLower(prefix), provider: p})
}

// Resolve picks the provider for a model id
func (r *Registry) Resolve(modelID string) ChatProvider {
	id := strings.ToLower(modelID)
	for _, rule := range r.prefixes {
		if strings.HasPrefix(id, rule.prefix) {
			return rule.provider
		}
	}
	log.Printf("🔍 Model %q matched no registered prefix, using %s", modelID, r.fallback.Name())
	return r.fallback
}

// Default returns the fallback provider
func (r *Registry) Default() ChatProvider {
	return r.fallback
}

// ByName finds a registered provider by its Name, or nil
func (r *Registry) ByName(name string) ChatProvider {
	if r.fallback.Name() == name {
		return r.fallback
	}
	for _, rule := range r.prefixes {
		if rule.provider.Name() == name {
			return rule.provider
		}
	}
	return nil
}
