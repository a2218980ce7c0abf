package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cbsistema/cbsistema-backend/internal/auth/jwt"
	"github.com/cbsistema/cbsistema-backend/internal/auth/middleware"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/consumers"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/events"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/handler"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	userevents "github.com/cbsistema/cbsistema-backend/internal/user/events"
	userhandler "github.com/cbsistema/cbsistema-backend/internal/user/handler"
	userrepo "github.com/cbsistema/cbsistema-backend/internal/user/repository"
	usersvc "github.com/cbsistema/cbsistema-backend/internal/user/service"
	"github.com/cbsistema/cbsistema-backend/migrations"
	"github.com/cbsistema/cbsistema-backend/pkg/cache"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/messaging"
	"github.com/cbsistema/cbsistema-backend/pkg/ratelimit"
)

const serviceName = "cbsistema-api"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("cbsistema")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting CBSistema API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := time.LoadLocation(cfg.Alerts.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Alerts.Timezone).Msg("invalid alerts timezone")
	}

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := migrations.Apply(ctx, db.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
		for _, name := range applied {
			log.Info().Str("migration", name).Msg("migration applied")
		}
	}

	// RabbitMQ is optional; without it domain events are not published
	var rmq *messaging.RabbitMQ
	var publisher *events.InventoryEventPublisher
	var userPublisher *userevents.UserEventPublisher
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewInventoryEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		userPublisher, err = userevents.NewUserEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create user event publisher")
		}
	}

	// Redis backs rate limiting and session revocation when configured
	rdb, err := cache.NewRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	var revoker jwt.Revoker
	var limitStore ratelimit.Store
	if rdb != nil {
		defer rdb.Close()
		revoker = jwt.NewRedisRevoker(rdb)
		limitStore = ratelimit.NewRedisStore(rdb)
	} else {
		log.Warn().Msg("redis not configured, using in-memory rate limiting and session revocation")
		revoker = jwt.NewMemoryRevoker()
		memStore := ratelimit.NewMemoryStore()
		go memStore.RunPurge(ctx, time.Minute)
		limitStore = memStore
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	countRepo := repository.NewPhysicalCountRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	reportRepo := repository.NewReportRepository(db)
	userRepo := userrepo.NewUserRepository(db)

	// Initialize services
	sessions := jwt.NewManager(&cfg.Session)
	userService := usersvc.NewUserService(userRepo, sessions, revoker, userPublisher, cfg.Users, log)
	inventoryService := service.NewInventoryService(productRepo, warehouseRepo, categoryRepo, cfg.Inventory, log)
	stockService := service.NewStockService(db, productRepo, batchRepo, registerRepo, publisher, cfg.Inventory, loc, log)
	movementService := service.NewMovementService(movementRepo, countRepo, loc, log)
	notificationService := service.NewNotificationService(notificationRepo, publisher, log)
	orderService := service.NewOrderService(db, orderRepo, notificationService, publisher, cfg.Orders, log)
	scanner := service.NewAlertScanner(productRepo, batchRepo, notificationService, cfg.Alerts, loc, log)
	reportService := service.NewReportService(batchRepo, movementRepo, reportRepo, scanner, loc, log)
	auditService := service.NewAuditService(auditRepo, log)

	if rmq != nil {
		userConsumer, err := consumers.NewUserEventConsumer(rmq, notificationRepo, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create user event consumer")
		}
		if err := userConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start user event consumer")
		}
	}

	if created, err := userService.BootstrapAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create bootstrap admin")
	} else if created {
		log.Info().Msg("no users found, bootstrap admin created")
	}

	// Daily alert sweep
	var scheduler *service.AlertScheduler
	if cfg.Alerts.Enabled {
		lowStockAt, err := config.ParseClock(cfg.Alerts.LowStockAt)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid alerts.low_stock_at")
		}
		nearExpiryAt, err := config.ParseClock(cfg.Alerts.NearExpiryAt)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid alerts.near_expiry_at")
		}
		scheduler = service.NewAlertScheduler(scanner, lowStockAt, nearExpiryAt, loc, log)
		scheduler.Start(ctx)
	}

	h := &handlers{
		users:         userhandler.NewUserHandler(userService, log),
		products:      handler.NewProductHandler(inventoryService, log),
		warehouses:    handler.NewWarehouseHandler(inventoryService, log),
		stock:         handler.NewStockHandler(stockService, loc, log),
		movements:     handler.NewMovementHandler(movementService, loc, log),
		orders:        handler.NewOrderHandler(orderService, log),
		notifications: handler.NewNotificationHandler(notificationService, log),
		reports:       handler.NewReportHandler(reportService, log),
		audit:         handler.NewAuditHandler(auditService, log),
		alerts:        handler.NewAlertHandler(scanner, log),
		auth:          middleware.NewAuthenticator(sessions, revoker, log),
		limiter:       ratelimit.New(limitStore, cfg.RateLimit.Requests, cfg.RateLimit.Window, log),
	}

	r := newRouter(cfg, log, h, healthCheck(db, rdb, rmq))

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the sweep before closing the pool it writes through
	cancel()
	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func healthCheck(db *database.DB, rdb *redis.Client, rmq *messaging.RabbitMQ) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rabbit := map[string]string{"status": "disabled"}
		if rmq != nil {
			rabbit = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"redis":    cache.Health(r.Context(), rdb),
			"rabbitmq": rabbit,
		})
	}
}
