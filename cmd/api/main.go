package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-ecom-api/internal/cache"
	"go-ecom-api/internal/handler"
	"go-ecom-api/internal/middleware"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/notify"
	"go-ecom-api/internal/repository"
	"go-ecom-api/internal/service"
	"go-ecom-api/internal/ws"
	"go-ecom-api/pkg/config"
	"go-ecom-api/pkg/database"
	"go-ecom-api/pkg/jwt"
	"go-ecom-api/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// 3. Setup Redis. An unreachable server only degrades the cache.
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if redisClient == nil {
		log.Fatal(err)
	}
	if err != nil {
		log.Printf("Warning: %v, serving without cache until it is back", err)
	}
	defer redisClient.Close()
	redisCache := cache.NewRedisCache(redisClient, cfg.CacheTTL)

	// 4. Setup RabbitMQ: one channel publishes, another feeds the mail worker
	amqpConn, pubCh, err := rabbitmq.SetupConn(cfg.AMQPURL)
	if err != nil {
		log.Fatal(err)
	}
	defer amqpConn.Close()
	workerCh, err := amqpConn.Channel()
	if err != nil {
		log.Fatalf("could not open worker channel: %v", err)
	}

	worker := notify.NewWorker(workerCh, notify.NewSMTPSender(cfg.SMTP))
	go func() {
		if err := worker.Run(ctx); err != nil {
			log.Printf("notification worker stopped: %v", err)
		}
	}()

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	// 6. Dependency Injection (Wiring Layers)
	store := repository.NewStore(db)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	loader := cache.NewLoader(redisCache)
	ttls := service.CacheTTLs{Product: cfg.ProductCacheTTL, Category: cfg.CacheTTL}

	authService := service.NewAuthService(store.Users(), tokens)
	userService := service.NewUserService(store.Users())
	productService := service.NewProductService(store, loader, ttls, wsHub)
	categoryService := service.NewCategoryService(store, loader, ttls, wsHub)
	orderService := service.NewOrderService(store, redisCache, notify.NewPublisher(pubCh), wsHub)
	dashService := service.NewDashboardService(store)

	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	created, err := authService.SeedAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword)
	cancel()
	switch {
	case err != nil:
		log.Printf("Warning: failed to seed admin: %v", err)
	case created:
		log.Printf("Admin user created: %s", cfg.AdminEmail)
	}

	h := &handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Dashboard: handler.NewDashboardHandler(dashService),
		Product:   handler.NewProductHandler(productService),
		Category:  handler.NewCategoryHandler(categoryService),
		Order:     handler.NewOrderHandler(orderService),
		Address:   handler.NewAddressHandler(service.NewAddressService(store)),
		Cart:      handler.NewCartHandler(service.NewCartService(store)),
		Wishlist:  handler.NewWishlistHandler(service.NewWishlistService(store)),
		Review:    handler.NewReviewHandler(service.NewReviewService(store)),
		WS:        handler.NewWSHandler(wsHub),
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "E-Commerce API v1.0",
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	handler.SetupRoutes(app, h, middleware.RequireAuth(store.Users(), tokens))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
