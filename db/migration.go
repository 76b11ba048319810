// Package db は、データベースのマイグレーションを提供します。
package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed schema/*.sql
var embedMigrations embed.FS

// Migrate はデータベースに対してマイグレーションを実行します。
func Migrate(conn *sql.DB) error {
	// 外部キー制約を有効化
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// 写真アップロードとエクスポートが同時に走るため、書き込み競合に備えてWALを使う
	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(conn, "schema"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
