package handler

import (
	"tracebloom/internal/adapter/http/middleware"
	"tracebloom/internal/core/domain"
	"tracebloom/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	BatchSvc       ports.BatchService
	LedgerSvc      ports.LedgerService
	SigVerifier    ports.SignatureVerifier
	TokenSvc       ports.TokenService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc, deps.SigVerifier)
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", rl("auth_signup"), authHandler.Signup)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
		auth.POST("/wallet/nonce", rl("auth_wallet"), authHandler.WalletNonce)
		auth.POST("/wallet/verify", rl("auth_wallet"), authHandler.WalletVerify)
	}

	// --- Batch lifecycle ---
	batchHandler := NewBatchHandler(deps.BatchSvc)
	batches := v1.Group("/batches")
	{
		// Public tracking: anyone with a batch ID can follow its history.
		batches.GET("/:id", rl("batch_read"), batchHandler.GetByID)
		batches.GET("/:id/events", rl("batch_read"), batchHandler.ListEvents)

		batches.POST("", jwtAuth, middleware.RequireRole(domain.RoleProducer), rl("batch_write"), batchHandler.Register)
		batches.GET("", jwtAuth, rl("batch_read"), batchHandler.List)
		batches.POST("/:id/accept", jwtAuth, rl("batch_write"), batchHandler.Accept)
		batches.POST("/:id/reject", jwtAuth, rl("batch_write"), batchHandler.Reject)
		batches.POST("/:id/consume", jwtAuth, rl("batch_write"), batchHandler.Consume)
	}

	// --- Ledger: reviews, payments, shipments ---
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc)

	reviews := v1.Group("/reviews")
	{
		reviews.GET("", rl("ledger_read"), ledgerHandler.ListReviews)
		reviews.POST("", jwtAuth, middleware.RequireRole(domain.RoleConsumer), rl("ledger_write"), ledgerHandler.SubmitReview)
	}

	v1.GET("/payments", jwtAuth, rl("ledger_read"), ledgerHandler.ListPayments)
	v1.GET("/shipments", jwtAuth, middleware.RequireRole(domain.RoleConsumer), rl("ledger_read"), ledgerHandler.ListShipments)

	return r
}
