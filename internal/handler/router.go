package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/s-nasu/task-track/internal/metrics"
	"github.com/s-nasu/task-track/internal/middleware"
)

// HealthChecker はヘルスチェック用のDB疎通確認インターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	APIToken          string
	RateLimiter       *middleware.RateLimiter
	IdentityResolver  middleware.IdentityResolver
	MetricsRecorder   middleware.HTTPRecorder

	// 監視
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer

	// サービス
	UserService UserServiceInterface
	TodoService TodoServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→（APIルートのみ）Auth → RateLimit →（ユーザー管理ルートのみ）Identity
//
// ルート（/）、/healthz、/metricsは認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.MetricsRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsRecorder))
	}

	userHandler := NewUserHandler(deps.UserService)
	todoHandler := NewTodoHandler(deps.TodoService)

	// --- 認証不要のルート ---

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.APIToken))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/api/v1", func(r chi.Router) {
			// タスク管理
			r.Route("/todos", func(r chi.Router) {
				r.Post("/", todoHandler.Create)
				r.Get("/", todoHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", todoHandler.Get)
					r.Patch("/", todoHandler.Update)
					r.Delete("/", todoHandler.Delete)
				})
			})

			// ユーザー管理（管理系。外部IDプロバイダーによる身元解決を追加）
			r.Route("/users", func(r chi.Router) {
				if deps.IdentityResolver != nil {
					r.Use(middleware.NewIdentityMiddleware(deps.IdentityResolver))
				}

				r.Post("/", userHandler.Create)
				r.Get("/", userHandler.List)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.Get)
					r.Patch("/", userHandler.Update)
					r.Delete("/", userHandler.Delete)
					r.Get("/todos", userHandler.ListTodos)
				})
			})
		})
	})

	return r
}
