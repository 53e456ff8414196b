package api

import (
	v1 "github.com/flexprice/payment-notifier/internal/api/v1"
	"github.com/flexprice/payment-notifier/internal/config"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/flexprice/payment-notifier/internal/rest/middleware"
	"github.com/flexprice/payment-notifier/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Webhook *v1.WebhookHandler
	Health  *v1.HealthHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.PyroscopeMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/test", handlers.Health.Test)
	router.POST("/webhook", handlers.Webhook.HandleStripeWebhook)

	return router
}
