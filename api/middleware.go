// Package api はgenbalogのAPIサーバー実装を提供します。
package api

import (
	"encoding/json"
	"net/http"
)

// authMiddleware はAPIリクエストの認証を行うミドルウェアです。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ヘッダーからAPIトークンを取得
		apiToken := r.Header.Get("X-API-Key")

		// トークンがサーバー側で設定されていない場合はエラー
		if s.config.APIToken == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "API authentication is not configured on server",
				Code:  http.StatusInternalServerError,
			})
			return
		}

		// トークンが一致するか確認
		if apiToken != s.config.APIToken {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Unauthorized: Invalid API key",
				Code:  http.StatusUnauthorized,
			})
			return
		}

		// 認証成功：次のハンドラーを呼び出し
		next.ServeHTTP(w, r)
	})
}
