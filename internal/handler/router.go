package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tunedeck/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	StatusRecorder     middleware.StatusRecorder
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	Profile     ProfileFetcher
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	PlaylistService  PlaylistServiceInterface
	DiscoveryService DiscoveryServiceInterface
	CardService      CardServiceInterface

	// ヘルスチェック
	DB Pinger

	// メトリクス公開エンドポイント。nilの場合は公開しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → RateLimit
//
// Bearerトークン必須のルート（/api/playlist/*と/api/me）のみBearerMiddlewareを重ねる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Profile, deps.AuthConfig)
	playlistHandler := NewPlaylistHandler(deps.PlaylistService)
	discoveryHandler := NewDiscoveryHandler(deps.DiscoveryService)
	cardHandler := NewCardHandler(deps.CardService)
	healthHandler := NewHealthHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		// OAuthフロー（Cookieベース、Bearer不要）
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", authHandler.Login)
			r.Get("/callback", authHandler.Callback)
			r.Get("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Bearerトークン必須のルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewBearerMiddleware())

			r.Route("/playlist", func(r chi.Router) {
				r.Post("/create", playlistHandler.Create)
				r.Post("/add", playlistHandler.Add)
				r.Get("/exists", playlistHandler.Exists)
			})

			r.Get("/me", authHandler.Me)
		})

		// ディスカバリーログ
		r.Route("/discovery", func(r chi.Router) {
			r.Post("/", discoveryHandler.Record)
			r.Post("/mark-as-added", discoveryHandler.MarkAsAdded)
			r.Get("/all", discoveryHandler.All)
			r.Get("/today", discoveryHandler.Today)
		})

		// カード
		r.Route("/cards", func(r chi.Router) {
			r.Get("/", cardHandler.List)
			r.Get("/daily", cardHandler.Daily)
			r.Post("/seed", cardHandler.Seed)
		})

		r.Get("/health", healthHandler.Check)
	})

	if deps.MetricsHandler != nil {
		r.Get("/metrics", deps.MetricsHandler.ServeHTTP)
	}

	return r
}
