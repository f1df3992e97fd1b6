package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"provledger/docs"
	"provledger/internal/bootstrap"
	"provledger/internal/config"
	handlers "provledger/internal/http/handler"
	"provledger/internal/http/middleware"
	"provledger/internal/ledger"
	"provledger/internal/logger"
	"provledger/internal/metrics"
	"provledger/internal/otel"
	"provledger/internal/registrar"
	"provledger/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Provenance Ledger API
// @version 1.0
// @description Content hashing and local provenance ledger.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.TimeLocation()

	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics, err := metrics.NewLedgerMetrics(reg)
	if err != nil {
		log.Fatal("failed to register ledger metrics", zap.Error(err))
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatal("failed to register http metrics", zap.Error(err))
	}

	slot, closeSlot, err := bootstrap.OpenSlot(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open ledger slot", zap.Error(err))
	}
	defer func() { _ = closeSlot() }()

	book := ledger.New(slot,
		ledger.WithKey(cfg.Ledger.Key),
		ledger.WithPersistTimeout(cfg.Ledger.PersistTimeout),
		ledger.WithLogger(log.With(zap.String("component", "ledger"))),
	)
	// A missing or unreadable document starts an empty ledger; it is never fatal.
	var warn *ledger.LoadWarning
	if err := service.LoadLedger(ctx, book, ledgerMetrics); err != nil && !errors.As(err, &warn) {
		log.Fatal("failed to load ledger", zap.Error(err))
	}

	var anchor registrar.Registrar = registrar.Unconfigured{}
	if cfg.Registrar.URL != "" {
		httpReg, err := registrar.NewHTTP(cfg.Registrar, log)
		if err != nil {
			log.Fatal("failed to initialize registrar", zap.Error(err))
		}
		anchor = httpReg
	} else {
		log.Warn("registrar_not_configured", zap.String("reason", "REGISTRAR_URL is empty; provenance tracking is rejected"))
	}

	provSvc := service.NewProvenanceService(book, anchor, ledgerMetrics, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.UploadMaxBytes,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithWriter(os.Stdout, loc))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, slot, provSvc, reg)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil {
			log.Error("server_shutdown_failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting",
		zap.String("addr", addr),
		zap.String("ledger_backend", cfg.Ledger.Backend),
		zap.Int("ledger_records", book.Len()),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
