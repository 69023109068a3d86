// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogapi/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// actorContextKey はリクエストコンテキストに認証済みActorを格納するためのキー。
var actorContextKey = contextKey("actor")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// CookieVerifier は署名付きCookie値の検証インターフェース。
type CookieVerifier interface {
	Verify(signed string) (string, error)
}

// NewSessionMiddleware は署名付きHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みのActorをリクエストコンテキストに注入する。
// 未認証リクエストには401 UNAUTHORIZEDを返し、後続のハンドラーは呼ばれない。
func NewSessionMiddleware(sessionFinder SessionFinder, verifier CookieVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := resolveActor(r, sessionFinder, verifier)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

// NewOptionalSessionMiddleware は有効なセッションがあればActorを注入し、
// なければそのまま後続に渡すミドルウェアを返す。
func NewOptionalSessionMiddleware(sessionFinder SessionFinder, verifier CookieVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if actor, ok := resolveActor(r, sessionFinder, verifier); ok {
				r = r.WithContext(ContextWithActor(r.Context(), actor))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// resolveActor はCookieの署名とセッションの有効期限を検証し、Actorを返す。
func resolveActor(r *http.Request, sessionFinder SessionFinder, verifier CookieVerifier) (model.Actor, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return model.Actor{}, false
	}

	sessionID, err := verifier.Verify(cookie.Value)
	if err != nil {
		slog.Warn("session cookie signature mismatch",
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
		return model.Actor{}, false
	}

	session, err := sessionFinder.FindByID(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to find session",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		return model.Actor{}, false
	}
	if session == nil {
		return model.Actor{}, false
	}

	return model.Actor{UserID: session.UserID, SessionID: session.ID}, true
}

// ActorFromContext はリクエストコンテキストから認証済みActorを取得する。
// Actorは値として返すため、呼び出し側で変更してもコンテキストには影響しない。
func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(model.Actor)
	if !ok || !actor.IsAuthenticated() {
		return model.Actor{}, false
	}
	return actor, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("user ID not found in context")
	}
	return actor.UserID, nil
}

// ContextWithActor はコンテキストにActorを注入する。
// 外側のロギングミドルウェアが用意した格納先があれば、そこにも記録する。
func ContextWithActor(ctx context.Context, actor model.Actor) context.Context {
	if holder, ok := ctx.Value(actorHolderContextKey).(*actorHolder); ok {
		holder.actor = actor
	}
	return context.WithValue(ctx, actorContextKey, actor)
}

// ContextWithUserID はコンテキストにユーザーIDのみを持つActorを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return ContextWithActor(ctx, model.Actor{UserID: userID})
}
