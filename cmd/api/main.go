package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notaryapi/docs"
	"notaryapi/internal/chain"
	"notaryapi/internal/config"
	"notaryapi/internal/database"
	"notaryapi/internal/database/migration"
	"notaryapi/internal/email"
	"notaryapi/internal/encryption"
	"notaryapi/internal/gateway"
	handlers "notaryapi/internal/http/handler"
	"notaryapi/internal/http/middleware"
	"notaryapi/internal/otel"
	"notaryapi/internal/pinning"
	"notaryapi/internal/repository/postgres"
	"notaryapi/internal/scheduler"
	"notaryapi/internal/service"
	"notaryapi/internal/storage"
)

// @title Notarization Platform API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// External collaborators. Encryption is optional; nil means documents
	// are pinned in the clear.
	pinSvc, err := pinning.New(cfg.Pinning)
	if err != nil {
		log.Fatalf("failed to initialize pinning client: %v", err)
	}
	var encSvc encryption.Service
	if cfg.Encryption.Enabled {
		encSvc, err = encryption.New(cfg.Encryption)
		if err != nil {
			log.Fatalf("failed to initialize encryption client: %v", err)
		}
	}
	rpcClient, err := chain.NewRPCClient(cfg.Chain)
	if err != nil {
		log.Fatalf("failed to initialize ledger rpc client: %v", err)
	}
	minter, err := chain.NewMinter(cfg.Chain, rpcClient)
	if err != nil {
		log.Fatalf("failed to initialize mint client: %v", err)
	}
	gwClient, err := gateway.New(cfg.Gateway)
	if err != nil {
		log.Fatalf("failed to initialize payment gateway client: %v", err)
	}
	mailer, err := email.NewSMTP(cfg.SMTP)
	if err != nil {
		log.Fatalf("failed to initialize mail sender: %v", err)
	}

	// Repositories and services. The payment and notarization services point
	// at each other (settlement triggers the mint), so the hook is bound
	// after both are built.
	docRepo := postgres.NewDocumentPostgres(db)
	payRepo := postgres.NewPaymentPostgres(db)
	walletRepo := postgres.NewWalletPostgres(db)
	sigRepo := postgres.NewSignaturePostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	paySvc := service.NewPaymentService(payRepo, gwClient, cfg.Gateway, cfg.Scheduler.ReconcileItemDelay)
	notarSvc := service.NewNotarizationService(service.NotarizationDeps{
		Docs:               docRepo,
		Signatures:         sigRepo,
		Wallet:             walletRepo,
		Store:              objStore,
		Pin:                pinSvc,
		Encrypt:            encSvc,
		RPC:                rpcClient,
		Minter:             minter,
		Payments:           paySvc,
		Mail:               mailer,
		ServiceWallet:      cfg.Chain.ServiceWallet,
		MinBalanceLamports: cfg.Chain.MinBalanceLamports,
		PolicyVersion:      cfg.Encryption.PolicyVersion,
		StaleAfter:         cfg.Scheduler.StaleAfter,
	})
	paySvc.BindMinter(notarSvc)
	walletSvc := service.NewWalletService(walletRepo, userRepo, paySvc, mailer)
	authSvc := service.NewAuthService(userRepo, cfg.Auth)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI host/scheme follow the incoming request.
	app.Use("/swagger", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}
		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		return c.Next()
	})

	handlers.RegisterRoutes(app, db, notarSvc, paySvc, walletSvc, authSvc)

	sched := scheduler.New(notarSvc, paySvc, cfg.Scheduler)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}
