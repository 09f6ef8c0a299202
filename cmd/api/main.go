package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/hgonzalo/tienda-service/config"
	"github.com/hgonzalo/tienda-service/internal/auth"
	authH "github.com/hgonzalo/tienda-service/internal/auth/handler"
	"github.com/hgonzalo/tienda-service/internal/cart"
	cartH "github.com/hgonzalo/tienda-service/internal/cart/handler"
	prodH "github.com/hgonzalo/tienda-service/internal/product/handler"
	prodListenerPkg "github.com/hgonzalo/tienda-service/internal/product/listener"
	prodRepoPkg "github.com/hgonzalo/tienda-service/internal/product/repository"
	prodUCPkg "github.com/hgonzalo/tienda-service/internal/product/usecase"
	reportH "github.com/hgonzalo/tienda-service/internal/report/handler"
	reportRepoPkg "github.com/hgonzalo/tienda-service/internal/report/repository"
	reportUCPkg "github.com/hgonzalo/tienda-service/internal/report/usecase"
	saleH "github.com/hgonzalo/tienda-service/internal/sale/handler"
	saleRepoPkg "github.com/hgonzalo/tienda-service/internal/sale/repository"
	saleUCPkg "github.com/hgonzalo/tienda-service/internal/sale/usecase"
	"github.com/hgonzalo/tienda-service/pkg/broker"
	"github.com/hgonzalo/tienda-service/pkg/cache"
	"github.com/hgonzalo/tienda-service/pkg/i18n"
	"github.com/hgonzalo/tienda-service/pkg/logger"
	"github.com/hgonzalo/tienda-service/pkg/postgres"
	"github.com/hgonzalo/tienda-service/pkg/search"
	"github.com/hgonzalo/tienda-service/pkg/tracing"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 1.5 Initialize i18n bundles (embedded)
	i18n.Init()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2.5 Tracing (optional)
	if cfg.Tracing.Enabled {
		tp, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			appLogger.Warn("Could not initialize tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
		}
	}

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 4.5 Kafka
	restockConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.RestockTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer restockConsumer.Close()

	salesProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.SalesTopic,
	})
	defer salesProducer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("restock_topic", cfg.Kafka.RestockTopic),
		zap.String("sales_topic", cfg.Kafka.SalesTopic))

	// 4.8 Elasticsearch (optional: search falls back to the database)
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (search features limited)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 5. Auth provider
	authProvider := auth.NewGoTrueProvider(cfg.Auth.ProviderURL, cfg.Auth.AnonKey)
	authProvider.OnAuthStateChange(func(event string, session *auth.Session) {
		if session != nil {
			appLogger.Info("auth state changed", zap.String("event", event), zap.String("user_id", session.User.ID))
		} else {
			appLogger.Info("auth state changed", zap.String("event", event))
		}
	})

	// 6. Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	saleRepo := saleRepoPkg.NewPGRepository(db)
	reportRepo := reportRepoPkg.NewReportRepository(db, appLogger)

	// 7. UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, esClient, appLogger)
	saleUC := saleUCPkg.NewSaleUseCase(saleRepo, redisClient, salesProducer, appLogger)
	reportUC := reportUCPkg.NewReportUseCase(reportRepo, cfg.Report.LowStockLimit, appLogger)

	cartStore := cart.NewStore(cfg.Cart.SessionTTL)

	// 7.5 Listeners
	restockListener := prodListenerPkg.NewRestockListener(restockConsumer, prodUC, redisClient, appLogger)
	go restockListener.Start(ctx)

	// 8. Handlers
	authHandler := authH.NewAuthHandler(authProvider, appLogger)
	prodHandler := prodH.NewProductHandler(prodUC, appLogger)
	cartHandler := cartH.NewCartHandler(cartStore, prodUC, appLogger)
	saleHandler := saleH.NewSaleHandler(saleUC, cartStore, appLogger)
	reportHandler := reportH.NewReportHandler(reportUC, appLogger)

	// 9. Router
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/signin", authHandler.SignIn)
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/signout", authHandler.SignOut)
	}

	protected := v1.Group("")
	protected.Use(auth.Middleware(authProvider, redisClient, cfg.Auth.TokenCacheTTL, appLogger))
	{
		products := protected.Group("/products")
		products.POST("", prodHandler.Create)
		products.GET("", prodHandler.List)
		products.GET("/low-stock", prodHandler.LowStock)
		products.GET("/:id", prodHandler.Get)
		products.PUT("/:id", prodHandler.Update)
		products.DELETE("/:id", prodHandler.Delete)
		products.POST("/:id/restock", prodHandler.Restock)

		cartGroup := protected.Group("/cart")
		cartGroup.GET("", cartHandler.Get)
		cartGroup.POST("/items", cartHandler.AddItem)
		cartGroup.PUT("/items/:id", cartHandler.UpdateQuantity)
		cartGroup.DELETE("/items/:id", cartHandler.RemoveItem)
		cartGroup.DELETE("", cartHandler.Clear)

		sales := protected.Group("/sales")
		sales.POST("/checkout", saleHandler.Checkout)
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)

		reports := protected.Group("/reports")
		reports.GET("/stats", reportHandler.Stats)
		reports.GET("/best-seller", reportHandler.BestSeller)
		reports.GET("/low-stock", reportHandler.LowStock)
	}

	// 10. Start HTTP server with graceful shutdown
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown error", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
