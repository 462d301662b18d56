package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/approval-service/internal/api/http"
	"github.com/spec-kit/approval-service/internal/api/http/handlers"
	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/observability"
	"github.com/spec-kit/approval-service/internal/persistence"
	"github.com/spec-kit/approval-service/internal/repository"
	"github.com/spec-kit/approval-service/internal/service"
	"github.com/spec-kit/approval-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	locker := persistence.NewArtifactLocker(redis, cfg.Workflow.LockTTL())

	pool := pg.PoolHandle()
	artifactRepo := repository.NewArtifactRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	reviewerRepo := repository.NewReviewerRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		EmployeeRepo:      employeeRepo,
		ReviewerRepo:      reviewerRepo,
		PasswordResetRepo: resetRepo,
	})
	artifactService := service.NewArtifactService(cfg.Workflow, service.ArtifactDependencies{
		ArtifactRepo:   artifactRepo,
		ReviewRepo:     reviewRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		HistoryRepo:    historyRepo,
		DepartmentRepo: departmentRepo,
		ReviewerRepo:   reviewerRepo,
		Dispatcher:     dispatcher,
		Locker:         locker,
	})
	reviewService := service.NewReviewService(service.ReviewDependencies{
		ArtifactRepo:    artifactRepo,
		ReviewRepo:      reviewRepo,
		Dispatcher:      dispatcher,
		Locker:          locker,
		ArtifactService: artifactService,
	})
	directoryService := service.NewDirectoryService(*cfg, service.DirectoryDependencies{
		DepartmentRepo: departmentRepo,
		ReviewerRepo:   reviewerRepo,
	})
	reportService := service.NewReportService(artifactRepo, redis.Client, 0)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	notificationWorker := worker.StartNotificationWorker(notificationService, logger)
	defer notificationWorker.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), employeeRepo, reviewerRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Employees:      handlers.NewEmployeesHandler(authService),
		Reviewers:      handlers.NewReviewersHandler(authService),
		Artifacts:      handlers.NewArtifactsHandler(artifactService),
		Reviews:        handlers.NewReviewsHandler(reviewService, artifactService),
		Directory:      handlers.NewDirectoryHandler(directoryService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
