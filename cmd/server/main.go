package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rentflow-backend/internal/apperrors"
	"rentflow-backend/internal/auth"
	"rentflow-backend/internal/cache"
	"rentflow-backend/internal/config"
	"rentflow-backend/internal/database"
	"rentflow-backend/internal/db"
	"rentflow-backend/internal/handlers"
	"rentflow-backend/internal/health"
	h "rentflow-backend/internal/http"
	"rentflow-backend/internal/middleware"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/receipts"
	"rentflow-backend/internal/repositories"
	"rentflow-backend/internal/services"
	"rentflow-backend/internal/session"
	"rentflow-backend/internal/upstream"
	"rentflow-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis backs request deduplication only; without it requests are served as-is
	var idempotencyStore cache.IdempotencyStore
	var redisPinger health.Pinger
	if err := cache.Init(cfg.RedisAddr(), cfg.Redis.Password); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (idempotency keys will not be deduplicated)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
		idempotencyStore = cache.NewRedisIdempotencyStore(cache.GetClient(), cfg.Redis.IdempotencyTTL)
		redisPinger = health.PingFunc(cache.Ping)
		defer cache.Close()
	}

	// Optional audit log
	var auditRepo *repositories.AuditRepository
	var dbPinger health.Pinger
	if cfg.Database.Enabled {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to connect to audit database: %v", err)
		}
		defer pool.Close()

		log.Println("Running database migrations...")
		if err := database.NewMigrator(pool, migrations.FS).RunMigrations(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		auditRepo = repositories.NewAuditRepository(pool)
		dbPinger = pool
	} else {
		log.Println("[Audit] Database disabled, payment decisions are logged only")
	}

	// Optional receipt archive
	var archive receipts.Archive
	if cfg.Receipts.Bucket != "" {
		s3Archive, err := receipts.NewS3Archive(ctx, cfg.Receipts.Bucket, cfg.Receipts.Endpoint,
			cfg.Receipts.Region, cfg.Receipts.AccessKey, cfg.Receipts.SecretKey)
		if err != nil {
			log.Printf("[Receipts] Archive unavailable: %v", err)
		} else {
			archive = s3Archive
			log.Printf("[Receipts] Archiving receipts to bucket %s", cfg.Receipts.Bucket)
		}
	}

	hub := notify.NewHub()
	go hub.Run(ctx)

	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	retry := apperrors.RetryPolicy{
		BaseDelay:   cfg.Upstream.RetryBaseDelay,
		MaxDelay:    cfg.Upstream.RetryMaxDelay,
		MaxAttempts: cfg.Upstream.RetryAttempts,
	}

	tenantService := services.NewTenantPaymentService(client, retry)
	paymentService := services.NewPaymentService(client, retry)
	partnerService := services.NewPartnerPaymentService(client, retry)

	deps := session.Deps{
		Tenant:   tenantService,
		Payments: paymentService,
		Notifier: hub,
		Archive:  archive,
	}
	var auditReader handlers.AuditReader
	var auditLogger session.AuditLogger
	if auditRepo != nil {
		deps.Audit = auditRepo
		auditReader = auditRepo
		auditLogger = auditRepo
	}

	sessions := session.NewRegistry(deps, cfg.Session.IdleTTL)
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	jwtManager := auth.NewJWTManager(cfg)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	healthChecker := health.NewHealthChecker(client, redisPinger, dbPinger)

	router := h.NewRouter(
		handlers.NewTenantHandler(sessions, tenantService),
		handlers.NewLandlordHandler(sessions, paymentService),
		handlers.NewPartnerHandler(partnerService, hub, auditLogger),
		handlers.NewAuditHandler(auditReader),
		handlers.NewNotificationHandler(hub),
		handlers.NewHealthHandler(healthChecker),
		authMiddleware,
		idempotencyStore,
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(corsMiddleware(router))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s (upstream: %s)", addr, client.BaseURL())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
