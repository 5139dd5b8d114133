// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"namespaced-cache/internal/cache"
	"namespaced-cache/internal/config"
	"namespaced-cache/internal/domain"
	"namespaced-cache/internal/handler"
	postgresRepo "namespaced-cache/internal/repository/postgres"
	"namespaced-cache/internal/service"
	"namespaced-cache/pkg/logger"
)

// store is an opened backend with its lifecycle hooks
type store struct {
	cache cache.Cache
	purge func(ctx context.Context) (int64, error) // nil when the backend expires entries itself
	close func() error
}

func main() {
	// Simple health check for Docker - just make HTTP request to existing server
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8081"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/health", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load environment variables from .env file (development only)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appLogger := logger.NewLogger()
	defer appLogger.Sync()
	appLogger.Infow("Starting namespaced cache service", "log_level", appLogger.Level())

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Fatalw("Failed to load configuration", "error", err)
	}

	storeLogger := appLogger.WithFields(map[string]interface{}{"backend": cfg.CacheBackend})

	backend, err := openStore(cfg, storeLogger)
	if err != nil {
		appLogger.Fatalw("Failed to open cache store", "backend", cfg.CacheBackend, "error", err)
	}

	namespaced := cache.NewPrefixedCache(backend.cache, cfg.CachePrefix, namespaceTTL(cfg))
	appLogger.Infow("Cache namespace ready",
		"backend", cfg.CacheBackend,
		"prefix", namespaced.Prefix(),
		"default_ttl", namespaced.DefaultTTL().String(),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if backend.purge != nil {
		go runJanitor(ctx, backend.purge, cfg.CleanupInterval, storeLogger)
	}

	cacheService := service.NewCacheService(namespaced, appLogger)
	cacheHandler := handler.NewCacheHandler(cacheService, appLogger)
	router := setupRouter(cacheHandler, cacheService, cfg, appLogger)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in a goroutine for graceful shutdown
	go func() {
		appLogger.Infow("Server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Infow("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Server forced to shutdown", "error", err)
	}

	if backend.close != nil {
		if err := backend.close(); err != nil {
			storeLogger.Errorw("Error closing cache store", "error", err)
		}
	}

	appLogger.Infow("Server exited successfully")
}

// namespaceTTL converts the configured default; zero seconds means entries never expire
func namespaceTTL(cfg *config.Config) cache.Expiration {
	switch {
	case cfg.CacheDefaultTTL == nil:
		return cache.NoTTL
	case *cfg.CacheDefaultTTL == 0:
		return cache.Forever
	default:
		return cache.After(*cfg.CacheDefaultTTL)
	}
}

// openStore creates the configured backend
func openStore(cfg *config.Config, log *logger.Logger) (*store, error) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StoreTTL)
		if err != nil {
			return nil, err
		}
		log.Infow("Redis connection established", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return &store{cache: redisCache, close: redisCache.Close}, nil

	case config.BackendBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.BoltPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create bolt directory: %w", err)
		}
		boltCache, err := cache.OpenBoltCache(cfg.BoltPath, cache.BoltOptions{
			Bucket:     cfg.BoltBucket,
			DefaultTTL: cfg.StoreTTL,
		})
		if err != nil {
			return nil, err
		}
		log.Infow("Bolt store opened", "path", cfg.BoltPath, "bucket", cfg.BoltBucket)
		purge := func(context.Context) (int64, error) {
			n, err := boltCache.Purge()
			return int64(n), err
		}
		return &store{cache: boltCache, purge: purge, close: boltCache.Close}, nil

	case config.BackendPostgres:
		db, err := initDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := postgresRepo.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		dbCache := cache.NewDatabaseCache(postgresRepo.NewEntryRepository(db), cfg.StoreTTL)
		return &store{cache: dbCache, purge: dbCache.Purge, close: sqlDB.Close}, nil

	default:
		log.Infow("Using in-memory store")
		return &store{cache: cache.NewMemoryCache(cfg.StoreTTL, cfg.CleanupInterval)}, nil
	}
}

// runJanitor purges expired entries until ctx is cancelled
func runJanitor(ctx context.Context, purge func(context.Context) (int64, error), interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx)
			if err != nil {
				log.Warnw("Failed to purge expired entries", "error", err)
				continue
			}
			if n > 0 {
				log.Debugw("Purged expired entries", "count", n)
			}
		}
	}
}

// initDatabase initializes the PostgreSQL database connection with connection pooling
func initDatabase(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	gormLogger := gormlogger.New(
		log, // Printf-compatible writer
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Connect to PostgreSQL with retry logic
	var db *gorm.DB
	var err error

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		db, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
			Logger:                 gormLogger,
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		})
		if err == nil {
			break
		}

		log.Warnw("Failed to connect to database, retrying...", "attempt", i+1, "error", err)
		time.Sleep(5 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Infow("Database connection established successfully")
	return db, nil
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(cacheHandler *handler.CacheHandler, svc service.CacheService, cfg *config.Config, log *logger.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply global middleware
	router.Use(gin.Recovery()) // Panic recovery
	router.Use(handler.LoggerMiddleware(log))
	router.Use(handler.CORSMiddleware(cfg))
	router.Use(handler.SecurityHeadersMiddleware())
	router.Use(handler.RateLimitMiddleware(cfg.RateLimitPerMinute))

	// Health check endpoint (no authentication required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, domain.HealthResponse{
			Status:    "healthy",
			Service:   "namespaced-cache",
			Backend:   cfg.CacheBackend,
			Namespace: svc.Namespace(),
			Timestamp: time.Now().UTC(),
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(handler.AuthMiddleware(cfg))
	v1.Use(handler.TimeoutMiddleware(cfg.RequestTimeout))
	cacheHandler.RegisterRoutes(v1)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error:   "not_found",
			Message: "endpoint not found",
			Code:    http.StatusNotFound,
		})
	})

	return router
}
