package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gamekey-storefront/handlers"
	"gamekey-storefront/middleware"
	"gamekey-storefront/models"
	"gamekey-storefront/services"
	"gamekey-storefront/storage"
	"gamekey-storefront/utils"
	"gamekey-storefront/workers"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	logger, err := utils.NewLogger()
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Game{},
		&models.Category{},
		&models.Genre{},
		&models.Platform{},
		&models.StockChangeEvent{},
		&models.Order{},
		&models.Transaction{},
		&models.GameKey{},
		&models.StoreUser{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	marketplaceURL := os.Getenv("MARKETPLACE_API_URL")
	if marketplaceURL == "" {
		log.Fatal("MARKETPLACE_API_URL environment variable not set")
	}
	marketplaceKey := os.Getenv("MARKETPLACE_API_KEY")
	if marketplaceKey == "" {
		log.Fatal("MARKETPLACE_API_KEY environment variable not set")
	}
	gatewayURL := os.Getenv("PAYMENT_GATEWAY_URL")
	if gatewayURL == "" {
		log.Fatal("PAYMENT_GATEWAY_URL environment variable not set")
	}
	gatewayKey := os.Getenv("PAYMENT_GATEWAY_KEY")
	if gatewayKey == "" {
		log.Fatal("PAYMENT_GATEWAY_KEY environment variable not set")
	}

	// Redis backs both cache invalidation and the cross-replica job lock.
	// Without it the service still runs, but jobs may double up when scaled.
	var cache services.CacheInvalidator = services.NoopInvalidator{}
	var jobLock services.JobLock
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal("invalid REDIS_URL:", err)
		}
		redisClient := redis.NewClient(redisOpts)
		cache = services.NewRedisInvalidator(redisClient)
		jobLock = services.NewRedisJobLock(redisClient, uuid.NewString())
	} else {
		logger.Warn("REDIS_URL not set — cache invalidation disabled, job lock disabled")
	}

	gameStore := storage.NewGameStore(db)
	orderStore := storage.NewOrderStore(db)

	marketplace := services.NewMarketplaceClient(marketplaceURL, marketplaceKey)
	paymentGateway := services.NewPaymentGateway(gatewayURL, gatewayKey)

	gameService := services.NewGameService(db)
	orderService := services.NewOrderService(orderStore, paymentGateway, cache, logger)
	reconciler := workers.NewStockPriceReconciler(gameStore, marketplace, cache, logger)
	catalogSyncer := workers.NewCatalogSyncWorker(gameStore, marketplace, cache, logger)

	scheduler, err := services.NewGocronScheduler(jobLock, logger)
	if err != nil {
		log.Fatal("failed to create scheduler:", err)
	}

	// Stock/price check every 15 minutes, full catalog sync twice daily.
	err = scheduler.Every("stock-price-reconcile", 15*time.Minute, func(ctx context.Context) {
		if _, err := reconciler.Run(ctx); err != nil {
			logger.Error("stock/price reconciliation failed", "error", err)
		}
	})
	if err != nil {
		log.Fatal("failed to schedule stock/price reconciliation:", err)
	}

	err = scheduler.DailyAt("full-catalog-sync", []int{6, 18}, func(ctx context.Context) {
		opts := workers.SyncOptions{FullSync: true, IncludeRelationships: true}
		if _, err := catalogSyncer.Run(ctx, opts); err != nil {
			logger.Error("full catalog sync failed", "error", err)
		}
	})
	if err != nil {
		log.Fatal("failed to schedule full catalog sync:", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 5 * 1024 * 1024, // 5MB — JSON only, no file uploads here
	})

	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	originsList := strings.Split(allowedOrigins, ",")
	for i := range originsList {
		originsList[i] = strings.TrimSpace(originsList[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(originsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupCatalogRoutes(app, gameService, reconciler, catalogSyncer)
	handlers.SetupOrderRoutes(app, orderService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start()

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Stock/price reconciliation scheduled (every 15m)")
	log.Println("✅ Full catalog sync scheduled (06:00 and 18:00)")

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := scheduler.Stop(); err != nil {
		log.Printf("scheduler shutdown error: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
