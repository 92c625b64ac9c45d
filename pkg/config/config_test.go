package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_AppliesDefaultsWhenFileMinimal(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := "backend: disk\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend != BackendDisk {
		t.Errorf("Backend = %q, want disk", cfg.Backend)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
	if cfg.Disk.Extension != "item" {
		t.Errorf("Disk.Extension = %q, want item", cfg.Disk.Extension)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := Load(filepath.Join(tmpDir, "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendDisk {
		t.Errorf("Backend = %q, want disk", cfg.Backend)
	}
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := &Config{Backend: "nonsense"}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestValidate_RejectsPostgresWithoutHost(t *testing.T) {
	cfg := &Config{Backend: BackendPostgres}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for postgres backend missing host")
	}
}

func TestValidate_RejectsDynamoDBWithoutTable(t *testing.T) {
	cfg := &Config{Backend: BackendDynamoDB}
	// ApplyDefaults would fill in a table name; skip it so Validate sees the
	// unset field.
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for dynamodb backend missing table")
	}
}

func TestValidate_AcceptsSqliteWithDefaults(t *testing.T) {
	cfg := &Config{Backend: BackendSqlite}
	ApplyDefaults(cfg)
	if cfg.Sqlite.Path == "" {
		t.Fatalf("expected Sqlite.Path to be defaulted")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := &Config{Backend: BackendDisk}
	ApplyDefaults(cfg)

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Backend != cfg.Backend {
		t.Fatalf("Backend = %q, want %q", loaded.Backend, cfg.Backend)
	}
}
