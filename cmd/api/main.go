package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modmarket/internal/config"
	"modmarket/internal/consumer"
	"modmarket/internal/database"
	"modmarket/internal/handler"
	"modmarket/internal/middleware"
	"modmarket/internal/monitor"
	"modmarket/internal/redis"
	"modmarket/internal/repository"
	"modmarket/internal/service/auth"
	"modmarket/internal/service/deal"
	"modmarket/internal/service/notify"
	"modmarket/internal/service/product"
	"modmarket/internal/utils"
	"modmarket/internal/ws"
	"modmarket/pkg/breaker"
	"modmarket/pkg/log"
	"modmarket/pkg/queue"
	"modmarket/pkg/snowflake"
)

func main() {
	cfg := config.MustLoadConfig("")

	logConfig := log.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	}
	if err := log.Init(logConfig); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	if err := database.Init(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.CreateIndexes(db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	if err := redis.Init(cfg); err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer redis.Close()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	var tracer *monitor.Tracer
	if cfg.Tracing.Enabled {
		var err error
		tracer, err = monitor.NewTracer(&monitor.TracerConfig{
			ServiceName:    cfg.Tracing.ServiceName,
			JaegerEndpoint: cfg.Tracing.Endpoint,
			SamplingRate:   cfg.Tracing.SampleRate,
			Enabled:        true,
		})
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		monitor.SetGlobalTracer(tracer)
	}

	idGenerator, err := snowflake.NewIDGenerator(1)
	if err != nil {
		log.Fatalf("Failed to create ID generator: %v", err)
	}

	messageQueue := queue.NewMemoryQueue(&queue.Config{
		BufferSize:     cfg.Notify.QueueSize,
		PublishTimeout: 5 * time.Second,
	})

	breakerManager := breaker.NewManager(breaker.Config{
		MaxRequests: cfg.Notify.Breaker.MaxRequests,
		Interval:    cfg.Notify.Breaker.Interval,
		Timeout:     cfg.Notify.Breaker.Timeout,
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	dealRepo := repository.NewDealRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Live connection hub
	hub := ws.NewHub()

	// Notification pipeline
	dispatcher := notify.NewDispatcher(
		notificationRepo,
		userRepo,
		hub,
		messageQueue,
		breakerManager,
		notify.NewEmailSender(&cfg.Notify),
		notify.NewTelegramSender(&cfg.Notify),
		notify.NewPushSender(&cfg.Notify),
	)
	notifyConsumer := consumer.NewNotifyConsumer(dispatcher, messageQueue, cfg.Notify.Workers)
	notifyConsumer.Start(context.Background())

	// Services
	jwtManager := utils.NewJWTManager(
		cfg.Security.JWT.Secret,
		cfg.Security.JWT.Issuer,
		cfg.Security.JWT.Expire,
		cfg.Security.JWT.RefreshTTL,
	)
	authService := auth.NewAuthService(userRepo, jwtManager, redis.GetClient(), cfg.Security.JWT.Expire)

	productService, err := product.NewProductService(productRepo, &cfg.Catalog)
	if err != nil {
		log.Fatalf("Failed to create product service: %v", err)
	}
	if err := productService.PrimeCache(context.Background()); err != nil {
		log.Warnf("Failed to prime product cache: %v", err)
	}

	dealService := deal.NewDealService(
		dealRepo,
		messageRepo,
		productRepo,
		userRepo,
		hub,
		dispatcher,
		idGenerator,
	)

	router := setupRouter(cfg, routerDeps{
		hub:              hub,
		authService:      authService,
		productService:   productService,
		dealService:      dealService,
		userRepo:         userRepo,
		categoryRepo:     categoryRepo,
		productRepo:      productRepo,
		dealRepo:         dealRepo,
		notificationRepo: notificationRepo,
	})

	metricsCtx, cancelMetrics := context.WithCancel(context.Background())
	monitor.StartSystemMetricsCollection(metricsCtx)

	server := &http.Server{
		Addr:           cfg.Server.GetAddr(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderMB << 20,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr": server.Addr,
			"mode": cfg.Server.Mode,
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	cancelMetrics()
	notifyConsumer.Stop()
	if err := messageQueue.Close(); err != nil {
		log.Warnf("Close message queue: %v", err)
	}
	if tracer != nil {
		if err := tracer.Shutdown(ctx); err != nil {
			log.Warnf("Shutdown tracer: %v", err)
		}
	}

	log.Info("Server exited")
}

type routerDeps struct {
	hub              *ws.Hub
	authService      auth.AuthService
	productService   product.ProductService
	dealService      deal.DealService
	userRepo         repository.UserRepository
	categoryRepo     repository.CategoryRepository
	productRepo      repository.ProductRepository
	dealRepo         repository.DealRepository
	notificationRepo repository.NotificationRepository
}

func setupRouter(cfg *config.Config, deps routerDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	if cfg.Security.CORS.Enabled {
		router.Use(middleware.CORS(&cfg.Security))
	}

	router.GET("/health", healthCheck)
	router.GET("/ping", ping)
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Handlers
	authHandler := handler.NewAuthHandler(deps.authService)
	userHandler := handler.NewUserHandler(deps.userRepo, deps.hub)
	categoryHandler := handler.NewCategoryHandler(deps.categoryRepo)
	productHandler := handler.NewProductHandler(deps.productService)
	dealHandler := handler.NewDealHandler(deps.dealService)
	notificationHandler := handler.NewNotificationHandler(deps.notificationRepo)
	adminHandler := handler.NewAdminHandler(deps.userRepo, deps.dealRepo, deps.productRepo, deps.dealService, deps.hub)
	wsHandler := handler.NewWSHandler(deps.hub, deps.authService, deps.userRepo, &cfg.WS)

	tokenValidator := func(ctx context.Context, token string) (*middleware.UserInfo, error) {
		claims, err := deps.authService.ValidateToken(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.UserInfo{
			ID:       claims.UserID,
			Username: claims.Username,
			IsAdmin:  claims.IsAdmin,
		}, nil
	}
	authed := middleware.Auth(tokenValidator)

	// The websocket endpoint authenticates from the query string itself
	router.GET("/ws", wsHandler.Serve)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.Use(middleware.RateLimit(5, 10))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// Public catalog reads
		v1.GET("/categories", categoryHandler.List)
		v1.GET("/products", productHandler.List)
		v1.GET("/products/:id", productHandler.Get)

		protected := v1.Group("")
		protected.Use(authed)
		{
			protected.POST("/auth/logout", authHandler.Logout)

			protected.GET("/users/me", userHandler.Me)
			protected.PUT("/users/me", userHandler.UpdateProfile)
			protected.GET("/users/online", userHandler.OnlineUsers)

			protected.POST("/deals", dealHandler.Create)
			protected.GET("/deals", dealHandler.List)
			protected.GET("/deals/:id", dealHandler.Get)
			protected.PUT("/deals/:id/status", dealHandler.UpdateStatus)
			protected.GET("/deals/:id/messages", dealHandler.ListMessages)
			protected.POST("/deals/:id/messages", middleware.UserRateLimit(2, 5), dealHandler.SendMessage)

			protected.GET("/notifications", notificationHandler.List)
			protected.GET("/notifications/unread", notificationHandler.UnreadCount)
			protected.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		}

		admin := v1.Group("/admin")
		admin.Use(authed, middleware.RequireAdmin())
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users/:id/ban", adminHandler.BanUser)
			admin.POST("/users/:id/unban", adminHandler.UnbanUser)
			admin.GET("/stats", adminHandler.Stats)

			admin.POST("/categories", categoryHandler.Create)
			admin.PUT("/categories/:id", categoryHandler.Update)
			admin.DELETE("/categories/:id", categoryHandler.Delete)

			admin.GET("/products", productHandler.List)
			admin.POST("/products", productHandler.Create)
			admin.PUT("/products/:id", productHandler.Update)
			admin.DELETE("/products/:id", productHandler.Deactivate)
		}
	}

	return router
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
