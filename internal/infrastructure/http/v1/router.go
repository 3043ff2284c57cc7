// Package v1 provides HTTP API version 1.
package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"hesap/internal/infrastructure/http/v1/dto"
	"hesap/internal/infrastructure/http/v1/handlers"
	"hesap/internal/infrastructure/http/v1/middleware"
	"hesap/pkg/logger"
)

// DefaultLoginRateLimit throttles credential guessing per client IP.
const DefaultLoginRateLimit = "5-M"

// RoleAdmin may run ledger maintenance endpoints.
const RoleAdmin = "admin"

// RouterConfig holds the router's collaborators.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// DB is pinged by the readiness probe
	DB handlers.Pinger

	// TokenValidator verifies bearer tokens
	TokenValidator middleware.TokenValidator

	// Policy decides branch access for authenticated users
	Policy middleware.BranchPolicy

	// Idempotency stores replayable responses; nil disables the middleware
	Idempotency middleware.IdempotencyStore

	// RateLimit is the per-IP limit for the whole API, e.g. "100-S"; empty disables it
	RateLimit string

	// LoginRateLimit is the per-IP limit for the login endpoint
	LoginRateLimit string

	// CORSOrigins lists allowed origins; empty disables CORS handling
	CORSOrigins []string

	Auth      handlers.AuthService
	Catalog   handlers.CatalogService
	Accounts  handlers.AccountService
	Invoices  handlers.InvoiceService
	Payments  handlers.PaymentService
	Stock     handlers.StockService
	Orders    handlers.OrderService
	Expenses  handlers.ExpenseService
	Balances  handlers.BalanceService
	Statement handlers.StatementRenderer
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := dto.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(middleware.CORS(cfg.CORSOrigins))
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	if cfg.RateLimit != "" {
		l, err := middleware.NewLimiter(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("api rate limit: %w", err)
		}
		v1.Use(middleware.RateLimit(l))
	}

	base := handlers.NewBaseHandler()

	if err := registerAuthRoutes(v1, base, cfg); err != nil {
		return nil, err
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.TokenValidator)) // 1. Validate token
	protected.Use(middleware.Scope(cfg.Policy))        // 2. Resolve branch scope
	if cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency)) // 3. Replay retried writes
	}

	handlers.NewCatalogHandler(base, cfg.Catalog).RegisterRoutes(protected.Group("/catalog"))
	handlers.NewAccountHandler(base, cfg.Accounts).RegisterRoutes(protected.Group("/accounts"))
	handlers.NewInvoiceHandler(base, cfg.Invoices).RegisterRoutes(protected.Group("/invoices"))
	handlers.NewPaymentHandler(base, cfg.Payments).RegisterRoutes(protected.Group("/payments"))
	stockHandler := handlers.NewStockHandler(base, cfg.Stock)
	stockHandler.RegisterRoutes(protected.Group("/stock"))
	stockHandler.RegisterAdminRoutes(protected.Group("/stock", middleware.RequireRole(RoleAdmin)))
	handlers.NewOrderHandler(base, cfg.Orders).RegisterRoutes(protected.Group("/orders"))
	handlers.NewExpenseHandler(base, cfg.Expenses).RegisterRoutes(protected.Group("/expense-lists"))
	handlers.NewContactHandler(base, cfg.Balances, cfg.Catalog, cfg.Statement).
		RegisterRoutes(protected.Group("/contacts"))

	return router, nil
}

// registerAuthRoutes registers the public login endpoint behind its own limiter.
func registerAuthRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) error {
	if cfg.Auth == nil {
		return nil
	}

	rate := cfg.LoginRateLimit
	if rate == "" {
		rate = DefaultLoginRateLimit
	}
	l, err := middleware.NewLimiter(rate)
	if err != nil {
		return fmt.Errorf("login rate limit: %w", err)
	}

	authHandler := handlers.NewAuthHandler(base, cfg.Auth)
	rg.Group("/auth").POST("/login", middleware.RateLimit(l), authHandler.Login)
	return nil
}
