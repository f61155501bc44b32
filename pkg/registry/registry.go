// Package registry describes the source systems taking part in linkage:
// which tracked comparison fields exist, how each source maps its own raw
// columns onto them, and the priority order that resolves disagreements.
//
// A Registry is an explicit value passed to the linker at construction, so
// several registries can coexist in one process.
package registry

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/errors"
)

// Registry is the source registry and priority order for a linkage run.
type Registry struct {
	// Fields are the tracked comparison fields, in order.
	Fields []string `json:"fields" yaml:"fields"`

	// Priority orders source names from most to least authoritative.
	Priority []string `json:"priority" yaml:"priority"`

	// Sources maps a source name to its configuration.
	Sources map[string]*Source `json:"sources" yaml:"sources"`
}

// Source is the configuration of one source system.
type Source struct {
	Name       string               `json:"-" yaml:"-"`
	PrimaryKey string               `json:"primary_key" yaml:"primary_key"`
	Fields     map[string]FieldSpec `json:"fields" yaml:"fields"`
}

// Load reads and validates a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	return reg, nil
}

// Parse decodes a YAML (or JSON) registry document and validates it.
func Parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	for name, src := range reg.Sources {
		if src == nil {
			return nil, errors.NewValidationError("sources."+name, nil, "source has no configuration")
		}
		src.Name = name
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks the registry invariants: at least one tracked field and
// one source, every source maps every tracked field and names its primary
// key, no primary or master key doubles as a tracked field, and the
// priority order is a permutation of the registered sources.
func (r *Registry) Validate() error {
	if len(r.Fields) == 0 {
		return errors.NewValidationError("fields", nil, "at least one tracked field is required")
	}
	if dup, ok := firstDuplicate(r.Fields); ok {
		return errors.NewValidationError("fields", dup, fmt.Sprintf("tracked field %q listed twice", dup))
	}
	if len(r.Sources) == 0 {
		return errors.NewValidationError("sources", nil, "at least one source is required")
	}

	for _, name := range r.sourceNames() {
		src := r.Sources[name]
		if src == nil {
			return errors.NewValidationError("sources."+name, nil, "source has no configuration")
		}
		if src.PrimaryKey == "" {
			return errors.NewValidationError("sources."+name+".primary_key", nil, "primary key is required")
		}
		if slices.Contains(r.Fields, src.PrimaryKey) {
			return errors.NewValidationError("sources."+name+".primary_key", src.PrimaryKey,
				fmt.Sprintf("primary key %q is also a tracked field; map the field from another column", src.PrimaryKey))
		}
		if key := src.MasterKey(); slices.Contains(r.Fields, key) {
			return errors.NewValidationError("fields", key,
				fmt.Sprintf("tracked field %q collides with the master key of source %q", key, name))
		}
		for _, f := range r.Fields {
			spec, ok := src.Fields[f]
			if !ok || len(spec) == 0 {
				return errors.NewValidationError("sources."+name+".fields."+f, nil, "tracked field is not mapped")
			}
		}
	}

	if dup, ok := firstDuplicate(r.Priority); ok {
		return errors.NewValidationError("priority", dup, fmt.Sprintf("source %q listed twice", dup))
	}
	for _, name := range r.Priority {
		if _, ok := r.Sources[name]; !ok {
			return errors.NewValidationError("priority", name, fmt.Sprintf("source %q is not registered", name))
		}
	}
	for _, name := range r.sourceNames() {
		if !slices.Contains(r.Priority, name) {
			return errors.NewValidationError("priority", name, fmt.Sprintf("source %q has no priority", name))
		}
	}
	return nil
}

// Source returns the configuration for name or a MissingConfigurationError.
func (r *Registry) Source(name string) (*Source, error) {
	src, ok := r.Sources[name]
	if !ok || src == nil {
		return nil, errors.NewMissingConfigurationError(name)
	}
	return src, nil
}

// Ordered returns the sources in priority order.
func (r *Registry) Ordered() []*Source {
	out := make([]*Source, 0, len(r.Priority))
	for _, name := range r.Priority {
		if src, ok := r.Sources[name]; ok {
			out = append(out, src)
		}
	}
	return out
}

// MasterKey returns the master table's foreign-key column for a source.
func MasterKey(source string) string {
	return source + constants.MasterKeySuffix
}

// MasterKey returns the master foreign-key column of the source.
func (s *Source) MasterKey() string {
	return MasterKey(s.Name)
}

// Mapping returns the field specs for the given tracked fields.
func (s *Source) Mapping(fields []string) map[string]FieldSpec {
	out := make(map[string]FieldSpec, len(fields))
	for _, f := range fields {
		out[f] = s.Fields[f]
	}
	return out
}

func (r *Registry) sourceNames() []string {
	names := make([]string, 0, len(r.Sources))
	for name := range r.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	return "", false
}
