package effectchain

import (
	"errors"
	"fmt"
)

// Factory builds one Runtime for a node, starting from params.
type Factory func(ctx Context, params Params) (Runtime, error)

// Registry maps effect kinds to their factories.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register adds a factory for kind.
func (r *Registry) Register(kind Kind, factory Factory) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if factory == nil {
		return errors.New("effectchain: nil factory")
	}

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", errDuplicateKind, kind)
	}

	r.factories[kind] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind Kind, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the factory for kind, or nil.
func (r *Registry) Lookup(kind Kind) Factory {
	return r.factories[kind]
}

// Build creates a runtime for kind.
func (r *Registry) Build(ctx Context, kind Kind, params Params) (Runtime, error) {
	factory := r.Lookup(kind)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	rt, err := factory(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("effectchain: build %s: %w", kind, err)
	}

	return rt, nil
}
