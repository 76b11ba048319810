package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("GENBALOG_API_TOKEN", "test-token")
	t.Setenv("GENBALOG_DATA_DIR", "")
	t.Setenv("GENBALOG_SERVER_PORT", "")
	t.Setenv("GENBALOG_CONFIG", "")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.APIToken != "test-token" {
		t.Errorf("Expected API token from env, got %s", cfg.APIToken)
	}
	if cfg.Export.SoftwareName != "genbalog" {
		t.Errorf("Expected default software name genbalog, got %s", cfg.Export.SoftwareName)
	}
}

func TestNewConfig_MissingToken(t *testing.T) {
	t.Setenv("GENBALOG_API_TOKEN", "")

	if _, err := NewConfig(); err == nil {
		t.Error("Expected error when API token is not set")
	}
}

func TestNewConfig_YAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte("export:\n  root_folder_name: PHOTO01\n  max_file_size_mb: 20\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("GENBALOG_API_TOKEN", "test-token")
	t.Setenv("GENBALOG_CONFIG", path)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Export.RootFolderName != "PHOTO01" {
		t.Errorf("Expected root folder PHOTO01, got %s", cfg.Export.RootFolderName)
	}
	if cfg.Export.MaxFileSizeMB != 20 {
		t.Errorf("Expected max file size 20, got %d", cfg.Export.MaxFileSizeMB)
	}
	// YAMLで指定していない項目は既定値のまま
	if cfg.Export.SoftwareName != "genbalog" {
		t.Errorf("Expected software name to keep default, got %s", cfg.Export.SoftwareName)
	}
}

func TestNewConfig_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(":::not yaml"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("GENBALOG_API_TOKEN", "test-token")
	t.Setenv("GENBALOG_CONFIG", path)

	if _, err := NewConfig(); err == nil {
		t.Error("Expected error for broken YAML config")
	}
}
