package subacquirer

import "strings"

// Registry resolves a provider name to its adapter. Providers are a fixed,
// finite set wired at startup; this is a lookup table, not a plugin system.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// NewRegistryFromEnv wires both production adapters from their env config.
func NewRegistryFromEnv() *Registry {
	return NewRegistry(NewSubadqAFromEnv(), NewSubadqBFromEnv())
}

// Resolve looks up an adapter by name, both the name persisted on a
// transaction row and the one carried in a webhook envelope.
func (r *Registry) Resolve(name string) (Adapter, bool) {
	a, ok := r.adapters[strings.TrimSpace(name)]
	return a, ok
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
