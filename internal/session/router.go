package session

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/mixmentor/mixmentor-api/internal/llm"
)

// Router owns the sessionId namespace. Callers see opaque UUIDs; the
// provider handle behind each one never leaves this package.
type Router struct {
	registry *llm.Registry
	store    Store
}

// NewRouter wires a provider registry to a session store
func NewRouter(registry *llm.Registry, store Store) *Router {
	return &Router{registry: registry, store: store}
}

// Start resolves the provider for the requested model, opens a session, and
// returns a fresh sessionId alongside the first reply. Nothing is recorded
// when the provider fails.
func (r *Router) Start(ctx context.Context, req llm.SessionRequest) (string, *llm.ChatResult, error) {
	provider := r.registry.Resolve(req.Model)
	log.Printf("🚀 Starting session (model: %s, provider: %s)", req.Model, provider.Name())

	result, err := provider.StartSession(ctx, req)
	if err != nil {
		return "", nil, err
	}

	sessionID := uuid.NewString()
	r.store.Put(sessionID, Entry{Provider: provider.Name(), Handle: result.Handle})
	log.Printf("✅ Session %s -> %s/%s", sessionID, provider.Name(), result.Handle)
	return sessionID, result, nil
}

// Continue delivers a follow-up message. Unknown session ids are not
// rejected outright: the message goes to the default provider with the
// sessionId as the handle, and that provider's own not-found error is what
// the caller sees.
func (r *Router) Continue(ctx context.Context, sessionID, message string) (*llm.ChatResult, error) {
	provider := r.registry.Default()
	handle := sessionID

	if entry, ok := r.store.Get(sessionID); ok {
		if p := r.registry.ByName(entry.Provider); p != nil {
			provider = p
		}
		handle = entry.Handle
	} else {
		log.Printf("⚠️ Unknown session %s, attempting delivery via %s", sessionID, provider.Name())
	}

	return provider.ContinueSession(ctx, handle, message)
}

// ProviderName reports which provider owns a session, or the default when
// the session is unknown.
func (r *Router) ProviderName(sessionID string) string {
	if entry, ok := r.store.Get(sessionID); ok {
		return entry.Provider
	}
	return r.registry.Default().Name()
}

// ProviderNameForModel reports which provider a model id routes to
func (r *Router) ProviderNameForModel(modelID string) string {
	return r.registry.Resolve(modelID).Name()
}

// End removes a session from the table
func (r *Router) End(sessionID string) {
	r.store.Remove(sessionID)
}
