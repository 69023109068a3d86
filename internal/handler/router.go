package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/blogapi/internal/database"
	"github.com/hitoshi/blogapi/internal/metrics"
	"github.com/hitoshi/blogapi/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CookieVerifier    middleware.CookieVerifier
	CORSAllowedOrigin string
	CSRFEnabled       bool
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	// TrustProxy がtrueの場合、X-Forwarded-For等からクライアントIPを決定する。
	TrustProxy bool

	// 監視
	Metrics       metrics.MetricsCollector
	Gatherer      prometheus.Gatherer
	HealthChecker database.Pinger

	// 認証
	AuthService  AuthServiceInterface
	CookieSigner CookieSigner
	AuthConfig   AuthHandlerConfig

	// リソース
	UserService    UserServiceInterface
	PostService    PostServiceInterface
	FeedConfig     FeedConfig
	CommentService CommentServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → (RealIP) → Recovery → SecurityHeaders → CORS → Metrics → Logging → CSRF
//	→ [Session → RateLimit(General)]  認証が必要なルートのみ
//
// サインアップとログインにはクライアントIP単位のレート制限を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	m := deps.Metrics
	if m == nil {
		m = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(metrics.Middleware(m))
	r.Use(middleware.NewLoggingMiddleware(logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.CookieSigner, deps.AuthConfig, m)
	userHandler := NewUserHandler(deps.UserService, m)
	postHandler := NewPostHandler(deps.PostService, deps.FeedConfig, m)
	commentHandler := NewCommentHandler(deps.CommentService, m)

	requireSession := middleware.NewSessionMiddleware(deps.SessionFinder, deps.CookieVerifier)
	optionalSession := middleware.NewOptionalSessionMiddleware(deps.SessionFinder, deps.CookieVerifier)
	perUserLimit := deps.RateLimiter.GeneralMiddleware()
	perIPLimit := deps.RateLimiter.AuthMiddleware()

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		if deps.CSRFEnabled {
			r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		}
		r.Get("/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

		// ユーザー
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.With(perIPLimit).Post("/", authHandler.SignUp)
			r.With(perIPLimit).Post("/login", authHandler.Login)
			r.With(optionalSession).Post("/logout", authHandler.Logout)
			r.With(requireSession, perUserLimit).Get("/{idOrName}", userHandler.GetUser)
		})

		// 投稿（一覧とフィードは公開）
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			r.Get("/feed.xml", postHandler.Feed)

			r.Group(func(r chi.Router) {
				r.Use(requireSession, perUserLimit)
				r.Post("/", postHandler.CreatePost)
				r.Put("/{id}", postHandler.UpdatePost)
				r.Delete("/{id}", postHandler.DeletePost)
			})
		})

		// コメント（すべて認証が必要）
		r.Route("/comments", func(r chi.Router) {
			r.Use(requireSession, perUserLimit)
			r.Get("/{postId}", commentHandler.ListComments)
			r.Post("/", commentHandler.CreateComment)
			r.Put("/{commentId}", commentHandler.UpdateComment)
			r.Delete("/{commentId}", commentHandler.DeleteComment)
		})
	})

	return r
}
