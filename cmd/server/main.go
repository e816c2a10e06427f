package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"parishcms/internal/auth"
	"parishcms/internal/cache"
	"parishcms/internal/config"
	"parishcms/internal/handler"
	"parishcms/internal/middleware"
	"parishcms/internal/repository/postgres"
	postgresContent "parishcms/internal/repository/postgres/content"
	serviceContent "parishcms/internal/service/content"
	"parishcms/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOutput := os.Stdout
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		f, err := config.SetupLogFile(dir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer f.Close()
		logOutput = f
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Token verifier for the admin surface
	verifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create token verifier: %v", err)
	}
	defer verifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Page cache; unavailability degrades to direct renders, so a failed
	// ping is a warning rather than a startup failure.
	pageCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := pageCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, page cache degraded", "error", err)
	}
	defer pageCache.Close()

	mediaStore, err := storage.NewMinioStore(ctx, storage.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to connect to media store: %v", err)
	}

	// Repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgresContent.NewDocumentRepository(repoConfig)
	pageRepo := postgresContent.NewPageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Services
	docService := serviceContent.NewDocumentService(docRepo, logger)
	pageService := serviceContent.NewPageService(pageRepo, txManager, pageCache, logger)
	saveService := serviceContent.NewSaveService(pageRepo, docService, txManager, pageCache, logger)
	resolverService := serviceContent.NewResolverService(pageRepo, docService, pageCache, logger)

	// Handlers
	adminHandler := handler.NewPageAdminHandler(saveService, pageService, resolverService, logger)
	publicHandler := handler.NewPublicHandler(resolverService, logger)
	mediaHandler := handler.NewMediaHandler(mediaStore, logger)

	logger.Info("services initialized")

	// Admin routes behind auth + CSRF
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("POST /admin/pages/{slug}", adminHandler.SavePage)
	adminMux.HandleFunc("POST /admin/pages/{slug}/publish", adminHandler.Publish)
	adminMux.HandleFunc("GET /admin/pages/{slug}/preview", adminHandler.Preview)
	adminMux.HandleFunc("POST /admin/pages/{pageID}/items", adminHandler.AddItem)
	adminMux.HandleFunc("POST /admin/pages/{pageID}/items/reorder", adminHandler.ReorderItems)
	adminMux.HandleFunc("DELETE /admin/items/{itemID}", adminHandler.DeleteItem)
	adminMux.HandleFunc("POST /admin/media", mediaHandler.Upload)

	var adminChain http.Handler = adminMux
	adminChain = middleware.CSRF()(adminChain)
	adminChain = middleware.RequireAdmin(verifier, logger, "admin", "editor")(adminChain)

	// Router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", publicHandler.HealthCheck)
	mux.HandleFunc("GET /pages/{slug}", publicHandler.GetPage)
	mux.HandleFunc("GET /p/{pageID}", publicHandler.GetPageByID)
	mux.HandleFunc("GET /media/{key...}", mediaHandler.Serve)
	mux.Handle("/admin/", adminChain)

	// Middleware chain, applied in reverse order
	var root http.Handler = mux
	root = middleware.RequestLogging(logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-CSRF-Token"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
