package linkage

import (
	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/errors"
)

type options struct {
	separator   string
	provenance  bool
	masterTable string
	masterID    string
	dropColumns []string
}

func defaultOptions() *options {
	return &options{
		separator:   constants.DefaultSeparator,
		masterTable: constants.MasterTable,
		masterID:    constants.MasterIDColumn,
		dropColumns: []string{constants.CreatedColumn, constants.ArchivedColumn},
	}
}

// Option configures a Linker.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithSeparator sets the separator used to join multi-column field specs.
func WithSeparator(sep string) Option {
	return func(o *options) error {
		o.separator = sep
		return nil
	}
}

// WithProvenance enables per-field provenance in run results.
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.provenance = enabled
		return nil
	}
}

// WithMasterTable sets the name of the master identity table.
func WithMasterTable(name string) Option {
	return func(o *options) error {
		if name == "" {
			return &errors.ValidationError{Field: "master_table", Message: "cannot be empty"}
		}
		o.masterTable = name
		return nil
	}
}

// WithMasterIDColumn sets the master column that identifies rows in provenance.
func WithMasterIDColumn(column string) Option {
	return func(o *options) error {
		if column == "" {
			return &errors.ValidationError{Field: "master_id_column", Message: "cannot be empty"}
		}
		o.masterID = column
		return nil
	}
}

// WithDroppedMasterColumns replaces the bookkeeping columns removed from
// the master table on load. No columns keeps the master table whole.
func WithDroppedMasterColumns(columns ...string) Option {
	return func(o *options) error {
		o.dropColumns = columns
		return nil
	}
}
