// Package config provides configuration management for the veil exporter.
// It uses YAML configuration with centralized defaults. Database credentials
// may also be supplied via environment variables, which take precedence over
// the file so secrets never have to live in it.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/thalib/veil/cmd/veil/internal/constants"
)

const (
	// VersionMajor is the major version number
	VersionMajor = 0
	// VersionMinor is the minor version number
	VersionMinor = 3
)

// Version returns the version string in format {major}.{minor}
func Version() string {
	return fmt.Sprintf("%d.%d", VersionMajor, VersionMinor)
}

// Environment variables consulted for database credentials when the config
// file leaves them empty.
const (
	EnvDBUsername = "VEIL_DB_USERNAME"
	EnvDBPassword = "VEIL_DB_PASSWORD"
	EnvDBHost     = "VEIL_DB_HOST"
	EnvDBName     = "VEIL_DB_NAME"
)

// Defaults contains all default configuration values
// centralized in one place to avoid hardcoded literals
var Defaults = struct {
	Database struct {
		Connection         string
		Database           string
		User               string
		Password           string
		Host               string
		QueryTimeout       int
		SlowQueryThreshold int
	}
	Logging struct {
		Path     string
		Format   string
		Level    string
		Truncate bool
	}
	Export struct {
		Table string
	}
	ConfigPath string
}{
	Database: struct {
		Connection         string
		Database           string
		User               string
		Password           string
		Host               string
		QueryTimeout       int
		SlowQueryThreshold int
	}{
		Connection:         "sqlite",
		Database:           "/opt/veil/sqlite.db",
		User:               "",
		Password:           "",
		Host:               "localhost",
		QueryTimeout:       30,  // 30 seconds
		SlowQueryThreshold: 500, // 500 milliseconds
	},
	Logging: struct {
		Path     string
		Format   string
		Level    string
		Truncate bool
	}{
		Path:     "/var/log/veil",
		Format:   "simple",
		Level:    "info",
		Truncate: false,
	},
	Export: struct {
		Table string
	}{
		Table: constants.DefaultExportTable,
	},
	ConfigPath: constants.DefaultConfigPath,
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Export   ExportConfig   `mapstructure:"export"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Connection         string `mapstructure:"connection"`           // database type: sqlite, postgres, mysql
	Database           string `mapstructure:"database"`             // database file/name
	User               string `mapstructure:"user"`                 // database user
	Password           string `mapstructure:"password"`             // database password
	Host               string `mapstructure:"host"`                 // database host
	QueryTimeout       int    `mapstructure:"query_timeout"`        // query timeout in seconds
	SlowQueryThreshold int    `mapstructure:"slow_query_threshold"` // slow query threshold in milliseconds
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Path                      string   `mapstructure:"path"`                        // log directory path
	Format                    string   `mapstructure:"format"`                      // simple, console or json
	Level                     string   `mapstructure:"level"`                       // debug, info, warn, error
	Truncate                  bool     `mapstructure:"truncate"`                    // start each run with a fresh log file
	AdditionalSensitiveFields []string `mapstructure:"additional_sensitive_fields"` // redacted on top of the built-in PII set
}

// ExportConfig holds export pipeline configuration.
type ExportConfig struct {
	Table string `mapstructure:"table"` // table streamed by the exporter
}

// Load reads configuration from the given path (or the default path when
// empty), applies defaults and environment credential fallbacks, and
// validates the result.
func Load(configPath string) (*AppConfig, error) {
	v := viper.New()

	// Set default values from centralized Defaults struct
	v.SetDefault("database.connection", Defaults.Database.Connection)
	v.SetDefault("database.database", Defaults.Database.Database)
	v.SetDefault("database.user", Defaults.Database.User)
	v.SetDefault("database.password", Defaults.Database.Password)
	v.SetDefault("database.host", Defaults.Database.Host)
	v.SetDefault("database.query_timeout", Defaults.Database.QueryTimeout)
	v.SetDefault("database.slow_query_threshold", Defaults.Database.SlowQueryThreshold)
	v.SetDefault("logging.path", Defaults.Logging.Path)
	v.SetDefault("logging.format", Defaults.Logging.Format)
	v.SetDefault("logging.level", Defaults.Logging.Level)
	v.SetDefault("logging.truncate", Defaults.Logging.Truncate)
	v.SetDefault("export.table", Defaults.Export.Table)

	// Credentials can come from the environment instead of the file.
	v.BindEnv("database.user", EnvDBUsername)
	v.BindEnv("database.password", EnvDBPassword)
	v.BindEnv("database.host", EnvDBHost)
	v.BindEnv("database.database", EnvDBName)

	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(Defaults.ConfigPath)
	}

	// Read config file (optional - continue if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		// If a specific config file was requested but not found, that's an error
		if configPath != "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				return nil, fmt.Errorf("config file not found: %s", configPath)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// If using default path and file not found, that's OK - use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks required fields and normalizes paths.
func validate(cfg *AppConfig) error {
	switch cfg.Database.Connection {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database connection type: %s", cfg.Database.Connection)
	}

	if cfg.Database.Database == "" {
		return fmt.Errorf("database.database must not be empty")
	}

	if cfg.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database.query_timeout must be positive, got %d", cfg.Database.QueryTimeout)
	}

	// SQLite paths are normalized to absolute so the preflight checks and
	// the driver agree on the location.
	if cfg.Database.Connection == "sqlite" && cfg.Database.Database != ":memory:" {
		abs, err := filepath.Abs(cfg.Database.Database)
		if err != nil {
			return fmt.Errorf("failed to resolve database path: %w", err)
		}
		cfg.Database.Database = abs
	}

	if cfg.Logging.Path == "" {
		return fmt.Errorf("logging.path must not be empty")
	}

	switch cfg.Logging.Format {
	case "simple", "console", "json":
	default:
		return fmt.Errorf("unsupported logging format: %s", cfg.Logging.Format)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported logging level: %s", cfg.Logging.Level)
	}

	if err := validateTableName(cfg.Export.Table); err != nil {
		return err
	}

	// The redaction separator is compile-time constant, but guard against a
	// bad build-time edit: an empty separator can never delimit a value.
	if constants.FieldSeparator == "" || constants.RedactionToken == "" {
		return fmt.Errorf("redaction token and separator must not be empty")
	}

	return nil
}

// validateTableName rejects anything but a bare SQL identifier; the table
// name is interpolated into the export query.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("export.table must not be empty")
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return fmt.Errorf("invalid export table name: %s", name)
			}
		default:
			return fmt.Errorf("invalid export table name: %s", name)
		}
	}
	return nil
}

// ConnectionString builds the driver connection string for the configured
// database.
func (c DatabaseConfig) ConnectionString() string {
	switch c.Connection {
	case "postgres":
		if c.User != "" && c.Password != "" {
			return fmt.Sprintf("postgres://%s:%s@%s/%s", c.User, c.Password, c.Host, c.Database)
		}
		return fmt.Sprintf("postgres://%s/%s", c.Host, c.Database)
	case "mysql":
		if c.User != "" && c.Password != "" {
			return fmt.Sprintf("mysql://%s:%s@%s/%s", c.User, c.Password, c.Host, c.Database)
		}
		return fmt.Sprintf("mysql://%s/%s", c.Host, c.Database)
	default:
		return fmt.Sprintf("sqlite://%s", c.Database)
	}
}

// Redacted returns the connection string with the password obfuscated, for
// safe inclusion in startup logs.
func (c DatabaseConfig) Redacted() string {
	s := c.ConnectionString()
	if c.Password == "" {
		return s
	}
	return strings.Replace(s, ":"+c.Password+"@", ":"+constants.RedactionToken+"@", 1)
}
