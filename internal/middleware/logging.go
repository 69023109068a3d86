package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/blogapi/internal/model"
)

var actorHolderContextKey = contextKey("actor_holder")

// actorHolder はセッションミドルウェアで解決されたActorを外側のミドルウェアへ伝える。
type actorHolder struct {
	actor model.Actor
}

// responseStatus はラッパーが記録したステータスを返す。何も書き込まれていない場合は200とみなす。
func responseStatus(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// NewLoggingMiddleware はリクエストのJSON構造化ログを出力するミドルウェアを返す。
// ログにはmethod、path、status、duration_ms、request_id、user_id（認証済みの場合）を含む。
// ユーザーIDは内側のセッションミドルウェアが注入するため、
// ロギングミドルウェアはActorの格納先をコンテキストに事前に用意しておく。
func NewLoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			holder := &actorHolder{}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), actorHolderContextKey, holder)))

			status := responseStatus(ww)
			duration := time.Since(start)
			durationMs := float64(duration.Nanoseconds()) / float64(time.Millisecond)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Float64("duration_ms", durationMs),
				slog.String("request_id", RequestIDFromContext(r.Context())),
			}

			// 認証済みの場合はユーザーIDを追加
			if holder.actor.IsAuthenticated() {
				attrs = append(attrs, slog.String("user_id", holder.actor.UserID))
			}

			// slogのログレベルをステータスコードに応じて変更
			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}

			// slog.Attr をany スライスに変換
			args := make([]any, len(attrs))
			for i, attr := range attrs {
				args[i] = attr
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
