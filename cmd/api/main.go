package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/KLAI0I/icu-nurse-dashboard/internal/api/http"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/http/handlers"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/audit"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/auth"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/config"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/observability"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/persistence"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/policy"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository/memory"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/storage"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/temporal"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/worker"
)

type repositories struct {
	tx       persistence.TxManager
	staff    repository.StaffRepository
	docs     repository.DocumentRepository
	audit    repository.AuditRepository
	users    repository.UserRepository
	sessions repository.SessionStore
	checks   []handlers.Checker
	closers  []func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cal, err := temporal.NewCalendar(cfg.App.Timezone)
	if err != nil {
		logger.Fatal("invalid timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos := openRepositories(ctx, cfg, logger)
	defer func() {
		for _, closeFn := range repos.closers {
			closeFn()
		}
	}()

	driver, local := openStorage(cfg, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()
	metrics.Subscribe(dispatcher)

	core := service.Core{
		Tx:         repos.tx,
		Policy:     policy.New(),
		Ledger:     audit.NewLedger(repos.audit, cal),
		Calendar:   cal,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())

	staffService := service.NewStaffService(core, service.StaffDependencies{
		StaffRepo:    repos.staff,
		DocumentRepo: repos.docs,
	})
	documentService := service.NewDocumentService(core, service.DocumentDependencies{
		DocumentRepo: repos.docs,
		StaffRepo:    repos.staff,
		Storage:      driver,
		Scanner:      storage.NopScanner{},
		MaxFileBytes: cfg.Storage.MaxFileBytes(),
		AllowedTypes: cfg.Storage.AllowedMIMETypes,
		SignedURLTTL: cfg.Storage.SignedURLTTL(),
	})
	userService := service.NewUserService(core, service.UserDependencies{
		UserRepo:   repos.users,
		StaffRepo:  repos.staff,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	authService := service.NewAuthService(core, service.AuthDependencies{
		UserRepo:   repos.users,
		Sessions:   repos.sessions,
		Tokens:     tokens,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	auditService := service.NewAuditService(core)

	if cfg.Auth.BootstrapAdminEmail != "" {
		if _, err := userService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPass); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}

	refresher := worker.NewStatusRefreshWorker(staffService, documentService,
		cfg.Worker.StatusRefreshInterval(), dispatcher, logger)
	go refresher.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             int(cfg.Storage.MaxFileBytes()) + 1<<20,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:     logger,
		Metrics:    metrics,
		Timeout:    cfg.App.RequestTimeout(),
		CORSOrigin: cfg.App.CORSOrigin,
	})

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, repos.checks...),
		Auth:           handlers.NewAuthHandler(authService, cfg.App.Env == "production"),
		Staff:          handlers.NewStaffHandler(staffService, cal),
		Users:          handlers.NewUsersHandler(userService),
		Documents:      handlers.NewDocumentsHandler(documentService, cal),
		Audit:          handlers.NewAuditHandler(auditService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.users),
		APILimiter:     httptransport.NewRateLimiter(cfg.RateLimit.APIPerMinute),
		AuthLimiter:    httptransport.NewRateLimiter(cfg.RateLimit.AuthPerMinute),
		Metrics:        metrics.Handler(),
	}
	if local != nil {
		routes.Files = handlers.NewFilesHandler(local)
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// openRepositories picks Postgres when a DSN is configured and the in-memory store
// otherwise. Refresh sessions go to Redis when an address is configured.
func openRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) repositories {
	var repos repositories

	if cfg.Postgres.DSN != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos.tx = persistence.NewTxManager(pg.Pool)
		repos.staff = repository.NewStaffRepository(pg.Pool)
		repos.docs = repository.NewDocumentRepository(pg.Pool)
		repos.audit = repository.NewAuditRepository(pg.Pool)
		repos.users = repository.NewUserRepository(pg.Pool)
		repos.checks = append(repos.checks, pg)
		repos.closers = append(repos.closers, pg.Close)
	} else {
		logger.Warn("POSTGRES_DSN not set, using in-memory store")
		store := memory.NewStore()
		repos.tx = store
		repos.staff = memory.NewStaffRepository(store)
		repos.docs = memory.NewDocumentRepository(store)
		repos.audit = memory.NewAuditRepository(store)
		repos.users = memory.NewUserRepository(store)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		repos.sessions = repository.NewRedisSessionStore(rdb.Client)
		repos.checks = append(repos.checks, rdb)
		repos.closers = append(repos.closers, rdb.Close)
	} else {
		repos.sessions = memory.NewSessionStore(time.Now)
	}
	return repos
}

func openStorage(cfg *config.Config, logger *zap.Logger) (storage.Driver, *storage.Local) {
	if cfg.Storage.Driver == config.StorageSupabase {
		logger.Info("object storage", zap.String("driver", "supabase"), zap.String("bucket", cfg.Storage.SupabaseBucket))
		return storage.NewSupabase(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.SupabaseBucket), nil
	}
	local, err := storage.NewLocal(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL, cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("failed to init local storage", zap.Error(err))
	}
	logger.Info("object storage", zap.String("driver", "local"), zap.String("dir", cfg.Storage.LocalDir))
	return local, local
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
