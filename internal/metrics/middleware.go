package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute はルーティングに一致しなかったリクエストのラベル値。
// 任意のパスでラベルの種類が増えないようにまとめる。
const unmatchedRoute = "unmatched"

// Middleware はchiのルートパターン単位でHTTPリクエストのメトリクスを記録するミドルウェアを返す。
// ルートパターンはルーティング完了後に確定するため、後続の処理が終わってから記録する。
func Middleware(collector MetricsCollector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			collector.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
