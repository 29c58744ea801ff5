// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/s-nasu/task-track/internal/auth"
	"github.com/s-nasu/task-track/internal/config"
	"github.com/s-nasu/task-track/internal/database"
	"github.com/s-nasu/task-track/internal/handler"
	"github.com/s-nasu/task-track/internal/logger"
	"github.com/s-nasu/task-track/internal/metrics"
	"github.com/s-nasu/task-track/internal/middleware"
	"github.com/s-nasu/task-track/internal/repository"
	"github.com/s-nasu/task-track/internal/security"
	"github.com/s-nasu/task-track/internal/todo"
	"github.com/s-nasu/task-track/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	todoRepo := repository.NewPostgresTodoRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	sanitizer := security.NewContentSanitizer()
	userService := user.NewService(userRepo, todoRepo, sanitizer, collector)
	todoService := todo.NewService(todoRepo, sanitizer, collector)

	// 5. 身元解決プロバイダーの初期化
	idp := auth.NewIdentityProvider(auth.IdentityProviderConfig{
		BaseURL:    cfg.IDPBaseURL,
		UserPoolID: cfg.UserPoolID,
	})

	// 6. レートリミッターの初期化
	rateLimiter := middleware.NewRateLimiter(
		middleware.DefaultRateLimiterConfig(cfg.RateLimitGeneral),
	)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		APIToken:          cfg.APIToken,
		RateLimiter:       rateLimiter,
		IdentityResolver:  idp,
		MetricsRecorder:   collector,
		HealthChecker:     db,
		Gatherer:          registry,
		UserService:       userService,
		TodoService:       todoService,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigCh:
		slog.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// runMigrate はデータベースマイグレーションを実行して終了する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running migrations")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}
	slog.Info("migrations complete")
	return nil
}

// runHealthcheck はローカルのAPIサーバーに疎通確認を行う。
// Dockerヘルスチェックから利用され、結果を終了コードで返す。
func runHealthcheck(port string) error {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/healthz")
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}
