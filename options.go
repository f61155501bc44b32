package masterlink

import (
	"github.com/agentstation/masterlink/pkg/errors"
	"github.com/agentstation/masterlink/pkg/linkage"
	"github.com/agentstation/masterlink/pkg/registry"
	"github.com/agentstation/masterlink/pkg/store"
)

// config holds the client configuration
type config struct {
	registry      *registry.Registry
	registryPath  string
	reader        store.Reader
	driver        string
	dsn           string
	lockFile      string
	linkerOptions []linkage.Option
}

// Option is a function that configures a Client
type Option func(*config) error

// WithRegistry configures the source registry
func WithRegistry(reg *registry.Registry) Option {
	return func(c *config) error {
		if reg == nil {
			return &errors.ValidationError{Field: "registry", Message: "cannot be nil"}
		}
		c.registry = reg
		return nil
	}
}

// WithRegistryFile loads the source registry from a YAML file
func WithRegistryFile(path string) Option {
	return func(c *config) error {
		c.registryPath = path
		return nil
	}
}

// WithReader configures the store reader used for every run.
// It takes precedence over WithStore.
func WithReader(reader store.Reader) Option {
	return func(c *config) error {
		if reader == nil {
			return &errors.ValidationError{Field: "reader", Message: "cannot be nil"}
		}
		c.reader = reader
		return nil
	}
}

// WithStore configures a SQL store. Each run reads through its own
// snapshot connection.
func WithStore(driver, dsn string) Option {
	return func(c *config) error {
		c.driver = driver
		c.dsn = dsn
		return nil
	}
}

// WithLockFile configures the file lock that keeps runs from overlapping.
// An empty path disables locking.
func WithLockFile(path string) Option {
	return func(c *config) error {
		c.lockFile = path
		return nil
	}
}

// WithLinkerOptions passes options through to the linker
func WithLinkerOptions(opts ...linkage.Option) Option {
	return func(c *config) error {
		c.linkerOptions = append(c.linkerOptions, opts...)
		return nil
	}
}
