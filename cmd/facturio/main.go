package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/facturio/facturio/internal/app"
	"github.com/facturio/facturio/internal/auth"
	"github.com/facturio/facturio/internal/catalog"
	"github.com/facturio/facturio/internal/clients"
	"github.com/facturio/facturio/internal/dashboard"
	"github.com/facturio/facturio/internal/documents"
	"github.com/facturio/facturio/internal/mail"
	"github.com/facturio/facturio/internal/notifications"
	"github.com/facturio/facturio/internal/observability"
	"github.com/facturio/facturio/internal/platform/cache"
	"github.com/facturio/facturio/internal/platform/db"
	"github.com/facturio/facturio/internal/report"
	"github.com/facturio/facturio/internal/settings"
	"github.com/facturio/facturio/internal/shares"
	"github.com/facturio/facturio/internal/templates"
	"github.com/facturio/facturio/internal/users"
	"github.com/facturio/facturio/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, 10)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Auth tokens live in Redis, so the server cannot start without it.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	metrics := observability.NewMetrics()

	settingsRepo := settings.NewRepository(pool)
	settingsService := settings.NewService(settingsRepo)

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)

	documentsRepo := documents.NewRepository(pool)
	proformaService := documents.NewProformaService(documentsRepo, settingsService, catalogRepo)
	invoiceService := documents.NewInvoiceService(documentsRepo, settingsService, catalogRepo)

	templatesRepo := templates.NewRepository(pool)
	templatesService := templates.NewService(templatesRepo, proformaService)

	renderer, err := report.NewRenderer()
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}
	gotenberg := report.NewGotenbergClient(cfg.GotenbergURL, &http.Client{Timeout: 30 * time.Second})
	reportService := report.NewService(documentsRepo, clientsRepo, settingsService, renderer, gotenberg)

	sharesRepo := shares.NewRepository(pool)
	sharesService := shares.NewService(sharesRepo, documentsRepo, cfg.BaseURL)

	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), redisClient)

	// Notifications send synchronously; without SMTP they report failures
	// instead of blocking startup.
	mailer, err := mail.NewMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		logger.Warn("mailer disabled", slog.Any("error", err))
		mailer = nil
	}
	notificationsService := notifications.NewService(logger, clientsRepo, settingsService, mailer, notifications.NewRepository(pool))

	authService := auth.NewService(usersService, redisClient, cfg.AuthTokenTTL)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthService: authService,

		AuthHandler:          auth.NewHandler(logger, authService, validate),
		ClientsHandler:       clients.NewHandler(logger, clientsService, validate),
		CatalogHandler:       catalog.NewHandler(logger, catalogService, validate),
		UsersHandler:         users.NewHandler(logger, usersService, validate),
		DocumentsHandler:     documents.NewHandler(logger, proformaService, invoiceService, jobsClient, reportService, validate),
		TemplatesHandler:     templates.NewHandler(logger, templatesService, validate),
		SharesHandler:        shares.NewHandler(logger, sharesService, reportService, validate),
		SettingsHandler:      settings.NewHandler(logger, settingsService, validate),
		DashboardHandler:     dashboard.NewHandler(logger, dashboardService),
		NotificationsHandler: notifications.NewHandler(logger, notificationsService, validate),

		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
