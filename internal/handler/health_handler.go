package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger はデータストアの疎通確認インターフェース。
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthCheckTimeout はヘルスチェック1回あたりの疎通確認の上限時間。
const healthCheckTimeout = 2 * time.Second

// healthResponse はヘルスチェックのレスポンス。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// NewHealthHandler はデータストアに疎通確認し、失敗時は503を返すハンドラーを生成する。
// GET /health
func NewHealthHandler(pinger Pinger, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			logger.Warn("ヘルスチェックでデータベースに接続できません", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
	}
}
