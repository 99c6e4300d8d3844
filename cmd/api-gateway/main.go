package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pace-projection-api/api/swagger"
	"github.com/noah-isme/pace-projection-api/internal/handler"
	"github.com/noah-isme/pace-projection-api/internal/repository"
	"github.com/noah-isme/pace-projection-api/internal/service"
	"github.com/noah-isme/pace-projection-api/pkg/cache"
	"github.com/noah-isme/pace-projection-api/pkg/config"
	"github.com/noah-isme/pace-projection-api/pkg/database"
	"github.com/noah-isme/pace-projection-api/pkg/jobs"
	"github.com/noah-isme/pace-projection-api/pkg/logger"
	"github.com/noah-isme/pace-projection-api/pkg/storage"
)

// @title Pace Projection API
// @version 1.0.0
// @description Generates, versions and exports yearly pace projections for students.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if cfg.Projections.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Projections keep working against Postgres alone.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	deps, err := buildDependencies(ctx, cfg, logr, db, redisClient, cacheRepo)
	if err != nil {
		return err
	}
	defer deps.queue.Stop()

	router := newRouter(cfg, logr, deps)
	return serve(ctx, cfg, logr, router)
}

type dependencies struct {
	metrics     *service.MetricsService
	auth        *service.AuthService
	projections *handler.ProjectionHandler
	exports     *handler.ExportHandler
	system      *handler.MetricsHandler
	queue       *jobs.Queue
}

func buildDependencies(ctx context.Context, cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, cacheRepo *repository.CacheRepository) (*dependencies, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Projections.CacheTTL, logr, redisClient != nil)

	projectionRepo := repository.NewProjectionRepository(db)
	paceRepo := repository.NewProjectionPaceRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	projectionSvc := service.NewProjectionService(
		repository.NewStudentRepository(db),
		repository.NewSchoolYearRepository(db),
		repository.NewSubSubjectRepository(db),
		projectionRepo,
		paceRepo,
		db,
		cacheSvc,
		metrics,
		validate,
		logr,
		service.ProjectionServiceConfig{ProposalTTL: cfg.Projections.ProposalTTL, CacheTTL: cfg.Projections.CacheTTL},
	)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(projectionRepo, paceRepo, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	worker := service.NewProjectionExportWorker(exportRepo, exporter, metrics, logr)
	queue := jobs.NewQueue("projection-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		OnFailure:  worker.Fail,
		Logger:     logr,
	})
	exportSvc := service.NewProjectionExportService(exportRepo, projectionRepo, queue, exporter, validate, logr, service.ProjectionExportConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	if cfg.Exports.Enabled {
		queue.Start(ctx)
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
	}

	return &dependencies{
		metrics: metrics,
		auth: service.NewAuthService(logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
		}),
		projections: handler.NewProjectionHandler(projectionSvc),
		exports:     handler.NewExportHandler(exportSvc),
		system: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"database": handler.PingFunc(db.PingContext),
			"cache":    cacheRepo,
		}),
		queue: queue,
	}, nil
}
