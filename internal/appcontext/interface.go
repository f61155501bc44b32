// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on this interface rather than the
// concrete App so they can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/masterlink"
)

// Interface defines the application context that commands need.
// The App struct from cmd/masterlink/app implements it.
type Interface interface {
	// Client returns the default linkage client, creating it lazily if needed.
	Client() (masterlink.Client, error)

	// ClientWithOptions creates a new client from the configured defaults
	// plus opts. Later options override earlier ones. The caller closes it.
	ClientWithOptions(...masterlink.Option) (masterlink.Client, error)

	// RegistryPath returns the configured registry file.
	RegistryPath() string

	// Store returns the configured store driver and DSN.
	Store() (driver, dsn string)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
