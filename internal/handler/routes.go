package handler

import (
	"github.com/XiNetworkProject/budget-gestion/budget-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, transactionHandler *TransactionHandler, goalHandler *GoalHandler, subscriptionHandler *SubscriptionHandler, gamificationHandler *GamificationHandler, syncHandler *SyncHandler, dashboardHandler *DashboardHandler, backupHandler *BackupHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/callback", authHandler.Callback)
	auth.GET("/me", authHandler.Me)
	auth.POST("/logout", authHandler.Logout)

	// Expense routes
	expenses := api.Group("/expenses")
	expenses.GET("", transactionHandler.ListExpenses)
	expenses.POST("", transactionHandler.CreateExpense)
	expenses.PUT("/:id", transactionHandler.UpdateExpense)
	expenses.DELETE("/:id", transactionHandler.DeleteExpense)

	// Income routes
	incomes := api.Group("/incomes")
	incomes.GET("", transactionHandler.ListIncomes)
	incomes.POST("", transactionHandler.CreateIncome)
	incomes.PUT("/:id", transactionHandler.UpdateIncome)
	incomes.DELETE("/:id", transactionHandler.DeleteIncome)

	// Savings goal routes
	goals := api.Group("/goals")
	goals.GET("", goalHandler.ListGoals)
	goals.POST("", goalHandler.CreateGoal)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.POST("/:id/contribute", goalHandler.Contribute)
	goals.DELETE("/:id", goalHandler.DeleteGoal)

	// Subscription and feature gating routes
	api.GET("/subscription", subscriptionHandler.GetSubscription)
	api.PUT("/subscription", subscriptionHandler.UpdateSubscription)
	api.GET("/features/:feature", subscriptionHandler.CheckFeature)
	api.GET("/limits/:feature", subscriptionHandler.CheckLimit)

	// Gamification routes
	gamification := api.Group("/gamification")
	gamification.GET("", gamificationHandler.GetState)
	gamification.POST("/daily-spin", gamificationHandler.EvaluateDailySpin)
	gamification.POST("/spin", gamificationHandler.Spin)

	// Sync routes
	sync := api.Group("/sync")
	sync.GET("/status", syncHandler.GetStatus)
	sync.POST("/save", syncHandler.ForceSave)
	sync.POST("/reset", syncHandler.Reset)

	// Dashboard routes
	api.GET("/dashboard/monthly-totals", dashboardHandler.GetMonthlyTotals)

	// Backup routes
	api.POST("/backups", backupHandler.CreateBackup)
}
