// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"log"

	"github.com/genbalog/genbalog/api"
	"github.com/genbalog/genbalog/config"
	"github.com/genbalog/genbalog/store"
)

func main() {
	// 設定の読み込み
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// SQLiteストアの初期化（マイグレーションも実行される）
	sqliteStore, err := store.NewSQLiteStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	// サーバーインスタンスの作成
	server := api.NewServer(sqliteStore, cfg)

	// サーバーの起動
	log.Fatal(server.Run(":" + cfg.Port))
}
