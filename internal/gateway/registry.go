package gateway

import "sync"

// Registry holds named Translator implementations.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Translator
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Translator)}
}

func (r *Registry) Register(name string, t Translator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = t
}

func (r *Registry) Get(name string) (Translator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.providers[name]
	return t, ok
}

// Names returns the registered provider identifiers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}
