package linkage

import (
	"sort"

	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/table"
)

// Batch holds the rows ingested from each source since the last run.
type Batch struct {
	// NewRows maps a source name to rows added to that source.
	NewRows map[string][]table.Row `json:"new_rows" yaml:"new_rows"`

	// UpdatedRows maps a source name to rows modified in that source.
	// Updates are not supported; every entry must be empty.
	UpdatedRows map[string][]table.Row `json:"updated_rows" yaml:"updated_rows"`
}

// Validate checks the batch against reg without touching any store.
// Non-empty updates fail with an UnsupportedOperationError; a source
// missing from reg fails with a MissingConfigurationError.
func (b *Batch) Validate(reg *registry.Registry) error {
	if b == nil {
		return errors.NewValidationError("batch", nil, "cannot be nil")
	}

	var updated []string
	for name, rows := range b.UpdatedRows {
		if len(rows) > 0 {
			updated = append(updated, name)
		}
	}
	if len(updated) > 0 {
		sort.Strings(updated)
		return errors.NewUnsupportedOperationError("update", updated...)
	}

	for _, name := range b.sources() {
		if _, err := reg.Source(name); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of new rows across all sources.
func (b *Batch) Size() int {
	n := 0
	for _, rows := range b.NewRows {
		n += len(rows)
	}
	return n
}

// sources returns every source named in the batch, sorted.
func (b *Batch) sources() []string {
	seen := make(map[string]struct{}, len(b.NewRows)+len(b.UpdatedRows))
	for name := range b.NewRows {
		seen[name] = struct{}{}
	}
	for name := range b.UpdatedRows {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
