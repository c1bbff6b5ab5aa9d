package handler

import (
	"pix-ledger/internal/adapter/http/middleware"
	"pix-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	WithdrawalSvc  ports.WithdrawalService
	RefundSvc      ports.RefundService
	ApproverSvc    ports.ApproverService
	PaymentSvc     ports.PaymentEventService
	TokenSvc       ports.TokenService
	SigSvc         ports.SignatureService
	WebhookSecret  string
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// --- Signed gateway webhooks ---
	webhookAuth := middleware.WebhookAuth(deps.SigSvc, deps.WebhookSecret, deps.Logger)
	webhookHandler := NewWebhookHandler(deps.PaymentSvc, deps.Logger)
	webhooks := v1.Group("/webhooks", webhookAuth)
	{
		webhooks.POST("/payments", webhookHandler.PaymentEvent)
	}

	// --- JWT-authenticated routes (bot / ops surface) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	accountHandler := NewAccountHandler(deps.LedgerSvc)
	withdrawalHandler := NewWithdrawalHandler(deps.WithdrawalSvc)
	refundHandler := NewRefundHandler(deps.RefundSvc)
	approverHandler := NewApproverHandler(deps.ApproverSvc)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.GET("/:id/balance", accountHandler.GetBalance)
		accounts.GET("/:id/history", accountHandler.GetHistory)
		accounts.PUT("/:id/payout-destination", accountHandler.SetPayoutDestination)
	}

	ledger := v1.Group("/ledger", jwtAuth)
	{
		ledger.POST("/credit", accountHandler.Credit)
		ledger.POST("/debit", accountHandler.Debit)
		ledger.POST("/transfer", accountHandler.Transfer)
	}

	withdrawals := v1.Group("/withdrawals", jwtAuth)
	{
		withdrawals.POST("", withdrawalHandler.Create)
		withdrawals.GET("/pending", withdrawalHandler.ListPending)
		withdrawals.POST("/:id/approve", withdrawalHandler.Approve)
		withdrawals.POST("/:id/reject", withdrawalHandler.Reject)
		withdrawals.POST("/:id/force-reverse", withdrawalHandler.ForceReverse)
	}

	refunds := v1.Group("/refunds", jwtAuth)
	{
		refunds.POST("", refundHandler.Create)
		refunds.GET("/pending", refundHandler.ListPending)
		refunds.POST("/:id/approve", refundHandler.Approve)
		refunds.POST("/:id/reject", refundHandler.Reject)
		refunds.POST("/:id/force-reverse", refundHandler.ForceReverse)
	}

	approvers := v1.Group("/approvers", jwtAuth)
	{
		approvers.POST("", approverHandler.Add)
		approvers.GET("", approverHandler.List)
		approvers.DELETE("/:id", approverHandler.Remove)
	}

	return r
}
