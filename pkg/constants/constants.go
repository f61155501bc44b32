// Package constants provides shared constants used throughout the masterlink
// codebase. This includes matching defaults, store table conventions,
// timeouts, file permissions, and default paths that should be consistent
// across the library and the CLI.
package constants

import "time"

// Matching constants define the defaults of the linkage pipeline
const (
	// DefaultSeparator joins multi-column field specs into one comparison value
	DefaultSeparator = " "

	// MissingPlaceholder is the normalized text form of a missing value
	MissingPlaceholder = "nan"

	// MasterKeySuffix is appended to a source name to form the master foreign-key column
	MasterKeySuffix = "_id"

	// MaxScore is the highest similarity score
	MaxScore = 100
)

// Store constants describe the table conventions of the backing store
const (
	// MasterTable is the default name of the master identity table
	MasterTable = "master"

	// MasterIDColumn is the internal identifier column of the master table
	MasterIDColumn = "_id"

	// ArchivedColumn marks rows that are no longer current
	ArchivedColumn = "archived_date"

	// CreatedColumn records when a row was inserted
	CreatedColumn = "created_date"

	// DefaultDriver is the database/sql driver used when none is configured
	DefaultDriver = "sqlite"
)

// Timeout constants define various timeout durations used in the application
const (
	// RunTimeout bounds a single linkage run started from the CLI
	RunTimeout = 10 * time.Minute

	// ShutdownTimeout is how long the CLI waits for cleanup after an error
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Path constants
const (
	// DefaultRegistryFile is the registry file looked up when none is configured
	DefaultRegistryFile = "registry.yaml"
)
