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

	httptransport "github.com/spec-kit/legal-aid-service/internal/api/http"
	"github.com/spec-kit/legal-aid-service/internal/api/http/handlers"
	"github.com/spec-kit/legal-aid-service/internal/auth"
	"github.com/spec-kit/legal-aid-service/internal/config"
	"github.com/spec-kit/legal-aid-service/internal/events"
	"github.com/spec-kit/legal-aid-service/internal/mailer"
	"github.com/spec-kit/legal-aid-service/internal/observability"
	"github.com/spec-kit/legal-aid-service/internal/persistence"
	"github.com/spec-kit/legal-aid-service/internal/repository"
	"github.com/spec-kit/legal-aid-service/internal/service"
	"github.com/spec-kit/legal-aid-service/internal/storage"
	"github.com/spec-kit/legal-aid-service/internal/worker"
	"github.com/spec-kit/legal-aid-service/pkg/validation"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	blobs, err := storage.NewFileStore(cfg.Storage.Root, cfg.Storage.MaxUploadBytes())
	if err != nil {
		logger.Fatal("failed to init document storage", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	officeRepo := repository.NewOfficeRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	caseRepo := repository.NewCaseRepository(pool)
	assignmentRepo := repository.NewCaseAssignmentRepository(pool)
	historyRepo := repository.NewCaseHistoryRepository(pool)
	noteRepo := repository.NewCaseNoteRepository(pool)
	appealRepo := repository.NewAppealRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	appointmentRepo := repository.NewAppointmentRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	dispatcher := worker.NewNotificationWorker(events.NewInMemoryDispatcher(),
		cfg.Notification.QueueSize, cfg.Notification.Workers, logger.Named("notify"))
	mail := mailer.New(cfg.Notification, cfg.App.Name, logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	denyList := persistence.NewRedisTokenDenyList(redis)
	locker := persistence.NewRedisLocker(redis)
	validate := validation.New()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          userRepo,
		RoleRepo:          roleRepo,
		PasswordResetRepo: resetRepo,
		TokenManager:      tokens,
		Revoker:           denyList,
		Mailer:            mail,
		Logger:            logger.Named("auth"),
	})
	roleService := service.NewRoleService(roleRepo)
	userService := service.NewUserService(cfg.Auth, service.UserDependencies{
		UserRepo:   userRepo,
		RoleRepo:   roleRepo,
		OfficeRepo: officeRepo,
	})
	officeService := service.NewOfficeService(officeRepo)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		CaseRepo:       caseRepo,
		UserRepo:       userRepo,
		AssignmentRepo: assignmentRepo,
		Locker:         locker,
		LockTTL:        cfg.Assignment.LockTTL(),
		Dispatcher:     dispatcher,
		Logger:         logger.Named("assignment"),
	})
	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:       caseRepo,
		UserRepo:       userRepo,
		OfficeRepo:     officeRepo,
		AssignmentRepo: assignmentRepo,
		HistoryRepo:    historyRepo,
		NoteRepo:       noteRepo,
		Assigner:       assignmentService,
		Dispatcher:     dispatcher,
		Logger:         logger.Named("cases"),
	})
	appealService := service.NewAppealService(service.AppealDependencies{
		AppealRepo: appealRepo,
		CaseRepo:   caseRepo,
		Dispatcher: dispatcher,
		Logger:     logger.Named("appeals"),
	})
	documentService := service.NewDocumentService(cfg.Storage, service.DocumentDependencies{
		DocumentRepo: documentRepo,
		CaseRepo:     caseRepo,
		Blobs:        blobs,
		Dispatcher:   dispatcher,
		Logger:       logger.Named("documents"),
	})
	appointmentService := service.NewAppointmentService(service.AppointmentDependencies{
		AppointmentRepo: appointmentRepo,
		UserRepo:        userRepo,
		CaseRepo:        caseRepo,
		Locker:          locker,
		LockTTL:         cfg.Assignment.LockTTL(),
		ReminderWindow:  cfg.Reminder.Window(),
		Dispatcher:      dispatcher,
		Logger:          logger.Named("appointments"),
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo: paymentRepo,
		CaseRepo:    caseRepo,
		Dispatcher:  dispatcher,
		Logger:      logger.Named("payments"),
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		Mailer:           mail,
		Logger:           logger.Named("notifications"),
	})
	reportService := service.NewReportService(service.ReportDependencies{
		ReportRepo: reportRepo,
		Cache:      persistence.NewRedisCache(redis),
		CacheTTL:   cfg.Reports.CacheTTL(),
		Logger:     logger.Named("reports"),
	})

	notificationService.RegisterHandlers()
	dispatcher.Start()
	reminders := worker.NewReminderWorker(appointmentService, cfg.Reminder.Interval(), logger.Named("reminders"))
	reminders.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.App.BodyLimitMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:           handlers.NewAuthHandler(authService, validate),
		Roles:          handlers.NewRoleHandler(roleService, validate),
		Users:          handlers.NewUserHandler(userService, validate),
		Offices:        handlers.NewOfficeHandler(officeService, validate),
		Cases:          handlers.NewCaseHandler(caseService, assignmentService, validate),
		Appeals:        handlers.NewAppealHandler(appealService, validate),
		Documents:      handlers.NewDocumentHandler(documentService, validate),
		Appointments:   handlers.NewAppointmentHandler(appointmentService, validate),
		Payments:       handlers.NewPaymentHandler(paymentService, validate),
		Notifications:  handlers.NewNotificationHandler(notificationService),
		Reports:        handlers.NewReportHandler(reportService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo, denyList, logger.Named("auth")),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	reminders.Stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	if err := dispatcher.Stop(drainCtx); err != nil {
		logger.Warn("notification queue not drained", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
