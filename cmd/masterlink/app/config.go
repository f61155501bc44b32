package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/masterlink/pkg/constants"
	pkgerrors "github.com/agentstation/masterlink/pkg/errors"
)

// envPrefix prefixes every environment variable read by the CLI.
const envPrefix = "MASTERLINK"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Linkage configuration
	Registry    string
	StoreDriver string
	StoreDSN    string
	LockFile    string
	Separator   string

	// Master table layout
	MasterTable       string
	MasterIDColumn    string
	MasterDropColumns []string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by setupCommand)
// 2. MASTERLINK_* environment variables
// 3. .env and .env.local files
// 4. Config file (~/.masterlink.yaml or ./.masterlink.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig("")
}

// loadConfig reads configuration, using file when set instead of searching
// the standard locations. An explicit file must exist.
func loadConfig(file string) (*Config, error) {
	// Load .env files first so their values are visible to viper
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("registry", constants.DefaultRegistryFile)
	v.SetDefault("store.driver", constants.DefaultDriver)
	v.SetDefault("separator", constants.DefaultSeparator)
	v.SetDefault("master.table", constants.MasterTable)
	v.SetDefault("master.id_column", constants.MasterIDColumn)
	v.SetDefault("master.drop_columns", []string{constants.CreatedColumn, constants.ArchivedColumn})
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.NewConfigError("config", "reading "+file, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".masterlink")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, pkgerrors.NewConfigError("config", "reading config file", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Registry:    v.GetString("registry"),
		StoreDriver: v.GetString("store.driver"),
		StoreDSN:    v.GetString("store.dsn"),
		LockFile:    v.GetString("lock_file"),
		Separator:   v.GetString("separator"),

		MasterTable:       v.GetString("master.table"),
		MasterIDColumn:    v.GetString("master.id_column"),
		MasterDropColumns: v.GetStringSlice("master.drop_columns"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	// Relative paths in a config file resolve against its directory
	if dir := filepath.Dir(config.ConfigFile); config.ConfigFile != "" {
		config.Registry = resolvePath(dir, config.Registry, v.InConfig("registry"))
		config.LockFile = resolvePath(dir, config.LockFile, v.InConfig("lock_file"))
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are not overridden.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func resolvePath(dir, path string, fromFile bool) string {
	if path == "" || !fromFile || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
