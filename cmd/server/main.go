package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"guidewell/internal/auth"
	"guidewell/internal/capabilities"
	"guidewell/internal/config"
	"guidewell/internal/handler"
	"guidewell/internal/middleware"
	"guidewell/internal/repository/postgres"
	chatSvc "guidewell/internal/service/chat"
	guideSvc "guidewell/internal/service/guide"
	librarySvc "guidewell/internal/service/library"
	ratingSvc "guidewell/internal/service/rating"
	"guidewell/internal/service/stream"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verifier backed by the identity provider's JWKS endpoint
	jwtVerifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	chatRepo := postgres.NewChatRepository(repoConfig)
	resultRepo := postgres.NewResultRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	contentRepo := postgres.NewContentRepository(repoConfig)
	ratingRepo := postgres.NewRatingRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Guide providers
	providerRegistry, err := guideSvc.SetupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup guide providers: %v", err)
	}

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized")

	// Stream registry with background cleanup of finished executors
	streamRegistry := stream.NewRegistry()
	go streamRegistry.StartCleanup(ctx)

	// Status change publisher (optional - library works without a broker)
	var publisher *librarySvc.StatusPublisher
	if cfg.NATSURL != "" {
		publisher, err = librarySvc.NewStatusPublisher(cfg.NATSURL, cfg.NATSToken, logger)
		if err != nil {
			log.Fatalf("Failed to connect status publisher: %v", err)
		}
		defer publisher.Close()
	} else {
		publisher = librarySvc.NewDisabledPublisher(logger)
		logger.Warn("NATS_URL not set - status change events disabled")
	}

	// Services
	chatService := chatSvc.NewService(chatRepo, resultRepo, logger)
	libraryService := librarySvc.NewService(folderRepo, contentRepo, txManager, publisher, logger)
	treeService := librarySvc.NewTreeService(folderRepo, contentRepo, logger)
	ratingService := ratingSvc.NewService(ratingRepo, resultRepo, logger)

	// Handlers
	guideHandler := handler.NewGuideHandler(chatService, resultRepo, providerRegistry, streamRegistry, capabilityRegistry, cfg, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	libraryHandler := handler.NewLibraryHandler(libraryService, treeService, logger)
	ratingHandler := handler.NewRatingHandler(ratingService, logger)
	healthHandler := handler.NewHealthHandler(pool)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Guide search (SSE)
	mux.HandleFunc("POST /api/guide/search", guideHandler.Search)

	// Chat history routes
	mux.HandleFunc("GET /api/chats", chatHandler.ListChats)
	mux.HandleFunc("GET /api/chats/{id}", chatHandler.GetChat)
	mux.HandleFunc("PATCH /api/chats/{id}", chatHandler.RenameChat)
	mux.HandleFunc("DELETE /api/chats/{id}", chatHandler.DeleteChat)

	// Feedback routes
	mux.HandleFunc("POST /api/ratings", ratingHandler.RateResult)
	mux.HandleFunc("POST /api/reports", ratingHandler.ReportResult)

	// Library routes
	mux.HandleFunc("GET /api/library/tree", libraryHandler.GetTree)
	mux.HandleFunc("POST /api/folders", libraryHandler.CreateFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", libraryHandler.RenameFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", libraryHandler.DeleteFolder)
	mux.HandleFunc("POST /api/content", libraryHandler.CreateContent)
	mux.HandleFunc("GET /api/content/{id}", libraryHandler.GetContent)
	mux.HandleFunc("PATCH /api/content/{id}", libraryHandler.UpdateContent)
	mux.HandleFunc("DELETE /api/content/{id}", libraryHandler.DeleteContent)
	mux.HandleFunc("POST /api/content/{id}/move", libraryHandler.MoveContent)
	mux.HandleFunc("POST /api/content/{id}/duplicate", libraryHandler.DuplicateContent)
	mux.HandleFunc("POST /api/content/{id}/status", libraryHandler.UpdateContentStatus)

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Routes
	var httpHandler http.Handler = mux
	httpHandler = middleware.Auth(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
