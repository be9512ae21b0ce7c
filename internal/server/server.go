// Package server assembles the HTTP API from the ledger services.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"dompet/internal/handlers"
	"dompet/internal/ledger"
	"dompet/internal/middleware"
	"dompet/internal/services"
	"dompet/internal/store"
	"dompet/internal/validator"

	_ "dompet/internal/docs" // Import swagger docs
)

// Options tunes the assembled API.
type Options struct {
	// RequireCategory rejects income and expense transactions without a
	// category.
	RequireCategory bool
	// Ledger overrides the default balance ledger, e.g. to pin its clock.
	Ledger *ledger.Ledger
}

// New wires services and handlers over db and returns the router.
func New(db *gorm.DB, opts Options) *gin.Engine {
	validator.Register()

	st := store.New(db)
	l := opts.Ledger
	if l == nil {
		l = ledger.New()
	}

	// Initialize services
	accountService := services.NewAccountService(st, l)
	categoryService := services.NewCategoryService(st, services.NewHierarchyManager())
	transactionService := services.NewTransactionService(st, l, services.WithRequiredCategory(opts.RequireCategory))
	queryService := services.NewQueryService(st)
	reconcileService := services.NewReconcileService(st, l)

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService, queryService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, queryService)
	reportHandler := handlers.NewReportHandler(queryService)
	ledgerHandler := handlers.NewLedgerHandler(reconcileService)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NotFound())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Account routes
	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/total-balance", accountHandler.GetTotalBalance)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/export", transactionHandler.ExportTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Report routes
	reports := v1.Group("/reports")
	reports.GET("/monthly", reportHandler.GetMonthlySummary)
	reports.GET("/categories", reportHandler.GetSpendingByCategory)

	// Ledger maintenance
	ledgerRoutes := v1.Group("/ledger")
	ledgerRoutes.GET("/reconcile", ledgerHandler.Reconcile)
	ledgerRoutes.POST("/reconcile/repair", ledgerHandler.Repair)

	return router
}
