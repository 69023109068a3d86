package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/blogapi/internal/database"
)

// healthCheckTimeout はヘルスチェック時のDB疎通確認のタイムアウト。
const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthHandler はDBの疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
// 疎通できれば200、できなければ503を返す。
func NewHealthHandler(checker database.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(r.Context(), checker, healthCheckTimeout); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
