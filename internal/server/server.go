package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"bevera/internal/config"
	"bevera/internal/invoice"
	custommiddleware "bevera/internal/middleware"
	"bevera/internal/repository"
	"bevera/internal/service"
	"bevera/internal/transport"
	"bevera/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// File stores
	imageStore, err := upload.NewImageStore(cfg.Uploads.ImageDir, cfg.Uploads.MaxUploadSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create image store: %w", err)
	}
	invoiceGenerator, err := invoice.NewPDFGenerator(cfg.Uploads.InvoiceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice generator: %w", err)
	}

	// Redis client for rate limiting
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	productRepo := repository.NewProductRepository(db)
	imageRepo := repository.NewProductImageRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(categoryRepo, brandRepo, productRepo, imageRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, userRepo)
	invoiceService := service.NewInvoiceService(orderRepo, invoiceGenerator, cfg.Uploads.InvoiceDir)
	inventoryService := service.NewInventoryService(inventoryRepo, productRepo)
	favoriteService := service.NewFavoriteService(favoriteRepo)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, orderService, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, favoriteService, logger)
	adminCatalogHandler := transport.NewAdminCatalogHandler(catalogService, imageStore, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, invoiceService, logger)
	inventoryHandler := transport.NewInventoryHandler(inventoryService, logger)

	// Shared middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminOnly := custommiddleware.RequireAdmin(logger)
	backOffice := custommiddleware.RequireBackOffice(logger)

	// Identity and order traffic are throttled under separate counters.
	rateLimitConfig := func(prefix string) custommiddleware.RateLimitConfig {
		return custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         prefix,
		}
	}
	identityLimiter := custommiddleware.RateLimitMiddleware(redisClient, rateLimitConfig("ratelimit:identity"), logger)
	orderLimiter := custommiddleware.RateLimitMiddleware(redisClient, rateLimitConfig("ratelimit:orders"), logger)
	router.Group(func(r chi.Router) {
		r.Use(identityLimiter)
		userHandler.RegisterRoutes(r, authMiddleware, adminOnly)
	})
	router.Group(func(r chi.Router) {
		r.Use(orderLimiter)
		orderHandler.RegisterRoutes(r, authMiddleware, backOffice)
	})

	// Register remaining routes
	catalogHandler.RegisterRoutes(router, authMiddleware)
	adminCatalogHandler.RegisterRoutes(router, authMiddleware, adminOnly, backOffice)
	cartHandler.RegisterRoutes(router, authMiddleware)
	inventoryHandler.RegisterRoutes(router, authMiddleware, backOffice)

	// Serve uploaded product images
	router.Handle("/uploads/images/*", http.StripPrefix("/uploads/images/", http.FileServer(http.Dir(cfg.Uploads.ImageDir))))

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
