package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/facturio/facturio/internal/app"
	"github.com/facturio/facturio/internal/catalog"
	"github.com/facturio/facturio/internal/clients"
	"github.com/facturio/facturio/internal/documents"
	jobmetrics "github.com/facturio/facturio/internal/jobs"
	"github.com/facturio/facturio/internal/mail"
	"github.com/facturio/facturio/internal/platform/db"
	"github.com/facturio/facturio/internal/report"
	"github.com/facturio/facturio/internal/settings"
	"github.com/facturio/facturio/internal/shares"
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

	pool, err := db.New(ctx, cfg.PGDSN, 5)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	settingsService := settings.NewService(settings.NewRepository(pool))
	clientsRepo := clients.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)

	documentsRepo := documents.NewRepository(pool)
	proformaService := documents.NewProformaService(documentsRepo, settingsService, catalogRepo)
	invoiceService := documents.NewInvoiceService(documentsRepo, settingsService, catalogRepo)

	renderer, err := report.NewRenderer()
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}
	gotenberg := report.NewGotenbergClient(cfg.GotenbergURL, &http.Client{Timeout: 30 * time.Second})
	reportService := report.NewService(documentsRepo, clientsRepo, settingsService, renderer, gotenberg)

	sharesService := shares.NewService(shares.NewRepository(pool), documentsRepo, cfg.BaseURL)

	mailer, err := mail.NewMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		logger.Error("configure mailer", slog.Any("error", err))
		os.Exit(1)
	}

	processor := jobs.NewProcessor(jobs.ProcessorConfig{
		Logger:    logger,
		Documents: documentsRepo,
		Clients:   clientsRepo,
		Company:   settingsService,
		PDFs:      reportService,
		Shares:    sharesService,
		Mailer:    mailer,
		Proformas: proformaService,
		Invoices:  invoiceService,
		Metrics:   jobmetrics.NewMetrics(nil),
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Processor:   processor,
		Concurrency: cfg.WorkerConcurrency,
	})
	if err != nil {
		logger.Error("configure worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
