package engine

import (
	"fmt"
	"time"

	"seasonkit/core"
)

// Registry holds the configured event definitions. It is built once at
// process start and never mutated; every component resolves events
// through it so name-resolution failures stay uniform.
type Registry struct {
	defs   []core.EventDefinition
	byName map[string]int
}

// NewRegistry validates the definitions and builds an immutable registry.
// Configuration order is preserved.
func NewRegistry(defs ...core.EventDefinition) (*Registry, error) {
	r := &Registry{
		defs:   make([]core.EventDefinition, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	copy(r.defs, defs)
	for i, d := range r.defs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("invalid event definition: %w", err)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate event definition %q", d.Name)
		}
		r.byName[d.Name] = i
	}
	return r, nil
}

// All returns every configured definition in configuration order.
func (r *Registry) All() []core.EventDefinition {
	out := make([]core.EventDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Active returns the definitions whose window contains now, preserving
// configuration order.
func (r *Registry) Active(now time.Time) []core.EventDefinition {
	var out []core.EventDefinition
	for _, d := range r.defs {
		if d.Active(now) {
			out = append(out, d)
		}
	}
	return out
}

// ByName resolves one definition or fails with ErrEventNotFound.
func (r *Registry) ByName(name string) (core.EventDefinition, error) {
	i, ok := r.byName[name]
	if !ok {
		return core.EventDefinition{}, fmt.Errorf("%w: %s", ErrEventNotFound, name)
	}
	return r.defs[i], nil
}

// Len reports the number of configured definitions.
func (r *Registry) Len() int { return len(r.defs) }
