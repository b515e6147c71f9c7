package storage

import "fmt"

// Transformer is a factory that wraps a Store in a new Store of compatible
// capability (§4.B). Transformers are registered by name so a chain can be
// constructed purely from metadata (the storage_transformers array of
// zarr.json).
type Transformer func(inner Store, config map[string]any) (Store, error)

var registry = map[string]Transformer{}

// RegisterTransformer adds a named transformer constructor to the global
// registry. Call from an init() in the package defining the transformer.
func RegisterTransformer(name string, t Transformer) {
	registry[name] = t
}

func init() {
	RegisterTransformer("performance_metrics", func(inner Store, _ map[string]any) (Store, error) {
		return NewMetrics(inner), nil
	})
}

// BuildChain composes a storage transformer chain from an ordered list of
// (name, config) pairs, wrapping store innermost-first (the first entry in
// specs is closest to the real store, matching the order storage
// transformers are declared in array metadata and applied between the
// array and the store).
func BuildChain(store Store, specs []TransformerSpec) (Store, error) {
	cur := store
	for _, spec := range specs {
		ctor, ok := registry[spec.Name]
		if !ok {
			return nil, fmt.Errorf("storage: unsupported storage transformer %q", spec.Name)
		}
		wrapped, err := ctor(cur, spec.Configuration)
		if err != nil {
			return nil, fmt.Errorf("storage: constructing transformer %q: %w", spec.Name, err)
		}
		cur = wrapped
	}
	return cur, nil
}

// TransformerSpec is the metadata shape of one storage_transformers entry.
type TransformerSpec struct {
	Name          string
	Configuration map[string]any
}
