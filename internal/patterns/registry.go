package patterns

import "fmt"

// Registry is an explicitly constructed collection of pattern
// definitions. It is passed into the orchestrator rather than shared as
// module state, so test suites can run against synthetic patterns.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry builds a registry from the given definitions. Duplicate
// ids are a configuration error.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if err := r.Add(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends a definition to the registry.
func (r *Registry) Add(d Definition) error {
	if _, exists := r.index[d.ID]; exists {
		return fmt.Errorf("%w: duplicate pattern id %s", ErrInvalidDefinition, d.ID)
	}
	r.index[d.ID] = len(r.defs)
	r.defs = append(r.defs, d)
	return nil
}

// All returns the definitions in registration order.
func (r *Registry) All() []Definition {
	return r.defs
}

// Get returns the definition with the given id.
func (r *Registry) Get(id string) (Definition, bool) {
	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int {
	return len(r.defs)
}
