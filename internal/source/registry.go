// Package source resolves configured content sources to their fetch
// adapters and groups them into pipelines.
package source

import (
	"fmt"

	"MediaScan/internal/config"
	"MediaScan/internal/ports"
)

// Builder constructs an adapter instance for one configured source.
type Builder func(cfg config.SourceConfig) (ports.SourceAdapter, error)

// Registry keeps a mapping from adapter kind names to their builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]Builder{}}
}

// Register adds or replaces a builder for the given adapter kind.
func (r *Registry) Register(kind string, b Builder) {
	if r.builders == nil {
		r.builders = map[string]Builder{}
	}
	r.builders[kind] = b
}

// Resolve returns the builder for an adapter kind or an error if absent.
func (r *Registry) Resolve(kind string) (Builder, error) {
	if b, ok := r.builders[kind]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("adapter %s is not registered", kind)
}

// BuildGroups instantiates every configured source and buckets the
// adapters by their group name.
func (r *Registry) BuildGroups(sources []config.SourceConfig) (map[string][]ports.SourceAdapter, error) {
	groups := map[string][]ports.SourceAdapter{}
	for _, src := range sources {
		builder, err := r.Resolve(src.Adapter)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		adapter, err := builder(src)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		group := src.Group
		if group == "" {
			group = adapter.Group()
		}
		groups[group] = append(groups[group], adapter)
	}
	return groups, nil
}
