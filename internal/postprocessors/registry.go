package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// StageOptions are the settings for one pipeline stage, keyed as in
// domain.PipelineConfig.
type StageOptions map[string]any

// Int returns the integer under key. Values decoded from TOML arrive as
// int64, values from JSON as float64; both are accepted. ok is false when
// the key is absent or not a whole number.
func (o StageOptions) Int(key string) (n int, ok bool) {
	switch v := o[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// Builder constructs a stage from its options.
type Builder func(StageOptions) (driven.PostProcessor, error)

// Registry maps stage names to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds a builder under name. Registering the same name twice is a
// programming error and panics.
func (r *Registry) Register(name string, b Builder) {
	if _, dup := r.builders[name]; dup {
		panic("postprocessors: duplicate stage " + name)
	}
	r.builders[name] = b
}

// Build constructs the stage called name.
func (r *Registry) Build(name string, opts StageOptions) (driven.PostProcessor, error) {
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown post-processor %q (have %v)", domain.ErrConfiguration, name, r.Names())
	}
	return b(opts)
}

// Names lists the registered stages alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
