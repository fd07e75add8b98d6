package generator

import (
	"path"

	"go.uber.org/zap"

	"github.com/OtotaO/rainmaker-sub002/internal/schema"
)

// Options configures one compilation. The zero value validates everything and
// keeps all @@schema directives.
type Options struct {
	ValidateSchema    bool
	ValidateRelations bool
	DefaultSchema     string
	Include           []string
	Exclude           []string
	Logger            *zap.Logger
}

// DefaultOptions returns options with both validation passes enabled.
func DefaultOptions() Options {
	return Options{
		ValidateSchema:    true,
		ValidateRelations: true,
	}
}

// Compile transforms a schema map into the relational data-model document.
// The pipeline is filter, validate (fail fast), discover, emit; there is no
// partial output and no state survives the call, so independent concurrent
// compilations are safe.
func Compile(schemas *schema.Map, meta *schema.MetadataTable, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if meta == nil {
		meta = schema.NewMetadataTable()
	}

	filtered := filterSchemas(schemas, opts.Include, opts.Exclude)
	logger.Debug("compiling schema map",
		zap.Int("schemas", filtered.Len()),
		zap.Strings("include", opts.Include),
		zap.Strings("exclude", opts.Exclude))

	if opts.ValidateSchema {
		for _, name := range filtered.Names() {
			node, _ := filtered.Get(name)
			if err := schema.ValidateSchema(node, name); err != nil {
				return "", err
			}
		}
	}
	if opts.ValidateRelations {
		for _, name := range filtered.Names() {
			node, _ := filtered.Get(name)
			if err := schema.ValidateRelations(node, filtered, meta, name); err != nil {
				return "", err
			}
		}
	}

	disc, err := Discover(filtered, meta, logger)
	if err != nil {
		return "", err
	}

	return NewEmitter(disc, meta, opts.DefaultSchema, logger).Emit()
}

// filterSchemas applies include/exclude glob patterns to top-level schema
// names, preserving order. An empty include list admits everything.
func filterSchemas(schemas *schema.Map, include, exclude []string) *schema.Map {
	if len(include) == 0 && len(exclude) == 0 {
		return schemas
	}

	out := schema.NewMap()
	for _, name := range schemas.Names() {
		if len(include) > 0 && !matchesAny(include, name) {
			continue
		}
		if matchesAny(exclude, name) {
			continue
		}
		node, _ := schemas.Get(name)
		out.Set(name, node)
	}
	return out
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
