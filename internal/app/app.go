package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hitoshi/tutorhub/internal/admin"
	"github.com/hitoshi/tutorhub/internal/auth"
	"github.com/hitoshi/tutorhub/internal/availability"
	"github.com/hitoshi/tutorhub/internal/booking"
	"github.com/hitoshi/tutorhub/internal/config"
	"github.com/hitoshi/tutorhub/internal/database"
	"github.com/hitoshi/tutorhub/internal/handler"
	"github.com/hitoshi/tutorhub/internal/logger"
	"github.com/hitoshi/tutorhub/internal/metrics"
	"github.com/hitoshi/tutorhub/internal/middleware"
	"github.com/hitoshi/tutorhub/internal/repository"
	"github.com/hitoshi/tutorhub/internal/repository/memory"
	"github.com/hitoshi/tutorhub/internal/review"
	"github.com/hitoshi/tutorhub/internal/security"
	"github.com/hitoshi/tutorhub/internal/teacher"
)

const (
	dbPingTimeout   = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、環境に応じたzapロガーをグローバルに設定する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, _ := logger.SetupDefault(cfg.Environment, w)
	return cfg, log, nil
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

	cfg, log, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting application",
		zap.String("command", string(cmd)),
		zap.String("env", cfg.Environment),
		zap.String("storage", cfg.Storage),
	)

	switch cmd {
	case CommandMigrate:
		action, ok := ParseMigrateAction(args)
		if !ok {
			return fmt.Errorf("unknown migrate action %q (want up, down or version)", args[1])
		}
		return runMigrate(cfg, action, log)
	default:
		return runServe(cfg, log)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストレージを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config, log *zap.Logger) error {
	gateway, closeGateway, err := openGateway(context.Background(), cfg, log)
	if err != nil {
		return err
	}
	defer closeGateway()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, cleanup := buildRouter(cfg, gateway, reg, log)
	defer cleanup()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("API server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case sig := <-stop:
		log.Info("shutting down API server...", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// openGateway は設定に応じた永続化ゲートウェイを開く。
// 戻り値の関数で接続を閉じる。
func openGateway(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Gateway, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := database.Ping(ctx, db, dbPingTimeout); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connection established",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	closeFn := func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}
	return repository.NewPostgresStore(db), closeFn, nil
}

// buildRouter はゲートウェイの上にドメインサービスを組み立て、HTTPルーターを返す。
// 戻り値の関数でレートリミッターのバックグラウンド処理を停止する。
func buildRouter(cfg *config.Config, gateway repository.Gateway, reg *prometheus.Registry, log *zap.Logger) (http.Handler, func()) {
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewTextSanitizer()

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authService := auth.NewService(gateway, auth.NewBcryptHasher(cfg.BcryptCost), tokens, log.Named("auth"))

	ledger := availability.NewLedger(gateway, log.Named("availability"), availability.WithMetrics(collector))
	coordinator := booking.NewCoordinator(gateway, ledger, collector, log.Named("booking"))
	gate := review.NewGate(gateway, sanitizer, collector, log.Named("review"))

	teacherService := teacher.NewService(gateway, ledger, sanitizer, teacher.PageLimits{
		Default: cfg.DefaultPageLimit,
		Max:     cfg.MaxPageLimit,
	}, log.Named("teacher"))
	adminService := admin.NewService(gateway, authService, teacherService, ledger,
		cfg.DefaultPageLimit, cfg.MaxPageLimit, log.Named("admin"))

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite),
		log.Named("ratelimit"),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		Metrics:           collector,
		TokenVerifier:     tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		AuthService:       authService,
		BookingService:    coordinator,
		TeacherService:    teacherService,
		ReviewService:     gate,
		AdminService:      adminService,
		Pinger:            gateway,
		MetricsHandler:    metrics.Handler(reg),
	})

	return router, rateLimiter.Stop
}

// runMigrate はデータベースマイグレーションを実行する。
func runMigrate(cfg *config.Config, action MigrateAction, log *zap.Logger) error {
	if cfg.Storage != config.StoragePostgres {
		return fmt.Errorf("migrate requires STORAGE=%s, got %q", config.StoragePostgres, cfg.Storage)
	}

	log.Info("running database migrations",
		zap.String("action", string(action)),
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Info("database migrations rolled back")
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("database migrations completed successfully")
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
