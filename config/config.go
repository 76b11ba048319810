// Package config はアプリケーション設定を管理します。
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ExportConfig は電子納品エクスポートの既定値です。
type ExportConfig struct {
	// 納品ルートフォルダ名。空の場合はPHOTO
	RootFolderName string `yaml:"root_folder_name"`
	// 警告W005のファイルサイズ閾値（MB）
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
	// INDEX_D.XMLのソフトメーカ用TAGに出力する名前
	SoftwareName string `yaml:"software_name"`
}

// Config はアプリケーション全体の設定を保持します。
// 環境変数を基本とし、GENBALOG_CONFIGで指定したYAMLファイルで
// エクスポート既定値を上書きできます。
type Config struct {
	// データディレクトリのパス
	DataDir string

	// HTTPサーバーのポート
	Port string

	// API認証トークン
	APIToken string

	// エクスポートの既定値
	Export ExportConfig
}

// NewConfig は環境変数と設定ファイルから設定を読み込みます。
func NewConfig() (*Config, error) {
	dataDir := os.Getenv("GENBALOG_DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(".", "data")
	}

	port := os.Getenv("GENBALOG_SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	apiToken := os.Getenv("GENBALOG_API_TOKEN")
	if apiToken == "" {
		return nil, fmt.Errorf("GENBALOG_API_TOKEN is not set")
	}

	cfg := &Config{
		DataDir:  dataDir,
		Port:     port,
		APIToken: apiToken,
		Export: ExportConfig{
			SoftwareName: "genbalog",
		},
	}

	// YAMLによるエクスポート設定の上書き（任意）
	if path := os.Getenv("GENBALOG_CONFIG"); path != "" {
		if err := loadExportConfig(path, &cfg.Export); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// loadExportConfig はYAMLファイルからエクスポート設定を読み込みます。
// 未設定の項目は既存の値を保持します。
func loadExportConfig(path string, export *ExportConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file struct {
		Export ExportConfig `yaml:"export"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if file.Export.RootFolderName != "" {
		export.RootFolderName = file.Export.RootFolderName
	}
	if file.Export.MaxFileSizeMB > 0 {
		export.MaxFileSizeMB = file.Export.MaxFileSizeMB
	}
	if file.Export.SoftwareName != "" {
		export.SoftwareName = file.Export.SoftwareName
	}
	return nil
}
