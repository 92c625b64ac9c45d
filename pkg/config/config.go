// Package config loads the storage library's runtime configuration from a
// YAML file and defaults, with OMLSTORAGE_* environment variables
// overriding keys the file sets (see Load). Command-line flags are not read
// here. Grounded on the teacher's pkg/config (Viper + mapstructure
// + yaml.v3 wiring, duration decode hook, XDG config directory lookup),
// trimmed to this library's own settings surface.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend names the storage.Storage implementation to instantiate.
type Backend string

const (
	BackendNull     Backend = "null"
	BackendDisk     Backend = "disk"
	BackendDynamoDB Backend = "dynamodb"
	BackendPostgres Backend = "postgres"
	BackendSqlite   Backend = "sqlite"
)

// Config is the top-level configuration for a storagedemo-style process.
type Config struct {
	Backend Backend `mapstructure:"backend" yaml:"backend"`

	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Disk     DiskConfig     `mapstructure:"disk" yaml:"disk"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb" yaml:"dynamodb"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
}

// LoggingConfig controls the internal/logger package's behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DiskConfig configures the filesystem backend.
type DiskConfig struct {
	BasePath  string `mapstructure:"base_path" yaml:"base_path"`
	Extension string `mapstructure:"extension" yaml:"extension"`
}

// DynamoDBConfig configures the DynamoDB backend.
type DynamoDBConfig struct {
	Table            string `mapstructure:"table" yaml:"table"`
	Region           string `mapstructure:"region" yaml:"region"`
	EndpointOverride string `mapstructure:"endpoint_override" yaml:"endpoint_override"`
}

// SqliteConfig configures the single-file SQLite backend.
type SqliteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig configures the Postgres backend.
type PostgresConfig struct {
	Host     string        `mapstructure:"host" yaml:"host"`
	Port     int           `mapstructure:"port" yaml:"port"`
	Database string        `mapstructure:"database" yaml:"database"`
	User     string        `mapstructure:"user" yaml:"user"`
	Password string        `mapstructure:"password" yaml:"password"`
	SSLMode  string        `mapstructure:"ssl_mode" yaml:"ssl_mode"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ApplyDefaults fills in unset fields with conservative defaults.
func ApplyDefaults(c *Config) {
	if c.Backend == "" {
		c.Backend = BackendDisk
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Disk.BasePath == "" {
		c.Disk.BasePath = filepath.Join(getConfigDir(), "data")
	}
	if c.Disk.Extension == "" {
		c.Disk.Extension = "item"
	}
	if c.DynamoDB.Table == "" {
		c.DynamoDB.Table = "storage-items"
	}
	if c.DynamoDB.Region == "" {
		c.DynamoDB.Region = "us-west-2"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "prefer"
	}
	if c.Postgres.Timeout == 0 {
		c.Postgres.Timeout = 5 * time.Second
	}
	if c.Sqlite.Path == "" {
		c.Sqlite.Path = filepath.Join(getConfigDir(), "storage.db")
	}
}

// Validate checks that Config names a known backend and carries the
// settings that backend requires.
func Validate(c *Config) error {
	switch c.Backend {
	case BackendNull, BackendDisk, BackendSqlite:
		// no required fields beyond the backend-specific defaults above
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("config: dynamodb.table is required")
		}
	case BackendPostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("config: postgres.host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("config: postgres.database is required")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	return nil
}

// Load reads configuration from configPath (or the default location when
// empty) and fills anything still unset with defaults. OMLSTORAGE_*
// environment variables (dots in key names replaced by underscores)
// override only keys that the config file sets; when no config file is
// found, only defaults apply and environment variables are not consulted.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("OMLSTORAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook lets config files and environment variables spell
// durations as "30s", "5m", etc. instead of raw nanosecond integers.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "oml-storage-go")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "oml-storage-go")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
