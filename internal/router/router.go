package router

import (
	"time"

	"tillpos/internal/config"
	"tillpos/internal/handler"
	"tillpos/internal/infra"
	"tillpos/internal/middleware"
	"tillpos/internal/repository"
	"tillpos/internal/service"
	"tillpos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher, mailCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, rdb, cfg.DefaultCurrency)
	ledger := service.NewInventoryLedger(productRepo, movementRepo)
	calc := service.NewCalculator(productRepo)
	sessionSvc := service.NewSessionService(sessionRepo, registerRepo, userRepo, transactionRepo)
	registerSvc := service.NewRegisterService(registerRepo, sessionRepo, cfg.DefaultCurrency)
	transactionSvc := service.NewTransactionService(transactionRepo, sessionRepo, userRepo, ledger, calc, dispatcher)
	reportSvc := service.NewReportService(sessionRepo, transactionRepo)
	receiptSvc := service.NewReceiptService(receiptRepo, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	registersH := handler.NewRegisterHandler(registerSvc)
	sessionsH := handler.NewSessionHandler(sessionSvc)
	transactionsH := handler.NewTransactionHandler(transactionSvc)
	productsH := handler.NewProductHandler(productSvc)
	inventoryH := handler.NewInventoryHandler(ledger)
	reportsH := handler.NewReportHandler(reportSvc)
	receiptsH := handler.NewReceiptHandler(receiptSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	allStaff := middleware.RequireRole("cashier", "supervisor", "admin")
	supervisors := middleware.RequireRole("supervisor", "admin")
	admins := middleware.RequireRole("admin")

	v1 := r.Group("/v1", jwtMW)
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/open", allStaff, sessionsH.Open)
			sessions.POST("/close", allStaff, sessionsH.Close)
			sessions.GET("/active", allStaff, sessionsH.GetActive)
			sessions.GET("/:id", allStaff, sessionsH.Get)
			sessions.GET("", supervisors, sessionsH.History)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.POST("", allStaff, transactionsH.Create)
			transactions.GET("", allStaff, transactionsH.List)
			transactions.GET("/:id", allStaff, transactionsH.Get)
			transactions.POST("/:id/refund", supervisors, transactionsH.Refund)
			transactions.POST("/:id/void", supervisors, transactionsH.Void)
		}

		v1.GET("/products", allStaff, productsH.List)
		v1.GET("/products/:id", allStaff, productsH.Get)
		v1.GET("/products/price/:barcode", allStaff, productsH.PriceLookup)
		products := v1.Group("/products", admins)
		{
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Deactivate)
			products.POST("/:id/reactivate", productsH.Reactivate)
		}

		inventory := v1.Group("/inventory", supervisors)
		{
			inventory.POST("/:id/adjust", inventoryH.AdjustStock)
			inventory.GET("/alerts", inventoryH.StockAlerts)
			inventory.GET("/movements", inventoryH.Movements)
		}

		v1.GET("/registers", allStaff, registersH.List)
		v1.GET("/registers/:id", allStaff, registersH.Get)
		registers := v1.Group("/registers", admins)
		{
			registers.POST("", registersH.Create)
			registers.PUT("/:id", registersH.Update)
			registers.DELETE("/:id", registersH.Deactivate)
			registers.POST("/:id/reactivate", registersH.Reactivate)
		}

		reports := v1.Group("/reports", supervisors)
		{
			reports.GET("/sessions/:id", reportsH.SessionReport)
			reports.GET("/sales", reportsH.SalesReport)
		}

		receipts := v1.Group("/receipts")
		{
			receipts.GET("/:id", allStaff, receiptsH.Get)
			receipts.GET("/:id/pdf", allStaff, receiptsH.Download)
			receipts.POST("/:id/retry", supervisors, receiptsH.Retry)
		}

		users := v1.Group("/users", admins)
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.POST("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
