package coalesce

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/masterlink/pkg/constants"
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/logging"
	"github.com/agentstation/masterlink/pkg/provenance"
)

type options struct {
	tracker  provenance.Tracker
	logger   *zerolog.Logger
	table    string
	idColumn string
}

func defaultOptions() *options {
	return &options{
		tracker: provenance.NewTracker(false),
		logger:  logging.Default(),
		table:   constants.MasterTable,
	}
}

// Option configures a Coalesce call.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithTracker records, per master row and field, every source value offered
// and which one was selected.
func WithTracker(tracker provenance.Tracker) Option {
	return func(o *options) error {
		if tracker == nil {
			return &errors.ValidationError{Field: "tracker", Message: "cannot be nil"}
		}
		o.tracker = tracker
		return nil
	}
}

// WithLogger sets the logger used for integrity warnings.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{Field: "logger", Message: "cannot be nil"}
		}
		o.logger = logger
		return nil
	}
}

// WithIDColumn names the master column used to identify rows in provenance.
// Rows without a value fall back to their position.
func WithIDColumn(column string) Option {
	return func(o *options) error {
		o.idColumn = column
		return nil
	}
}

// WithTableName sets the table name used in provenance keys.
func WithTableName(name string) Option {
	return func(o *options) error {
		if name == "" {
			return &errors.ValidationError{Field: "table", Message: "cannot be empty"}
		}
		o.table = name
		return nil
	}
}
