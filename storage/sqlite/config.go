package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the connection parameters for the SQLite backend, grounded
// on the teacher's SQLiteConfig (pkg/controlplane/store/gorm.go): a single
// file path, defaulted under the XDG config directory when unset.
type Config struct {
	Path string `mapstructure:"path"`
}

// ApplyDefaults fills Path with the XDG-scoped default location when unset.
func (c *Config) ApplyDefaults() {
	if c.Path != "" {
		return
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configDir = filepath.Join(home, ".config")
		}
	}
	c.Path = filepath.Join(configDir, "oml-storage-go", "storage.db")
}

// Validate checks the config is complete enough to open.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("sqlite: path is required")
	}
	return nil
}
