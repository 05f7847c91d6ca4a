package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"ashnest/internal/config"
	custommiddleware "ashnest/internal/middleware"
	"ashnest/internal/repository"
	"ashnest/internal/service"
	"ashnest/internal/transport"

	"github.com/go-chi/chi/v5"
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

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	if redisClient != nil {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 300,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit:api",
		}, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	cartRepo := repository.NewCartRepository(db)
	checkoutRepo := repository.NewCheckoutRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)

	// Initialize services
	tokenExpiry := time.Duration(cfg.JWT.AccessExpiry) * time.Minute
	userService := service.NewUserService(userRepo, cartRepo, cfg.JWT.Secret, tokenExpiry)
	addressService := service.NewAddressService(addressRepo)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, discountRepo)
	discountService := service.NewDiscountService(discountRepo, productRepo, categoryRepo)
	couponService := service.NewCouponService(couponRepo)
	cartService := service.NewCartService(cartRepo, productRepo, discountRepo)
	orderService := service.NewOrderService(checkoutRepo, orderRepo, logger)
	reviewService := service.NewReviewService(reviewRepo, productRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo, cartService)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	addressHandler := transport.NewAddressHandler(addressService, logger)
	productHandler := transport.NewProductHandler(catalogService, logger)
	categoryHandler := transport.NewCategoryHandler(catalogService, logger)
	discountHandler := transport.NewDiscountHandler(discountService, logger)
	couponHandler := transport.NewCouponHandler(couponService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	reviewHandler := transport.NewReviewHandler(reviewService, logger)
	wishlistHandler := transport.NewWishlistHandler(wishlistService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	addressHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	categoryHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	discountHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	couponHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	cartHandler.RegisterRoutes(router, authMiddleware)
	orderHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	reviewHandler.RegisterRoutes(router, authMiddleware)
	wishlistHandler.RegisterRoutes(router, authMiddleware)

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

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
