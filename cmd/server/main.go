package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/flexprice/payment-notifier/internal/api"
	v1 "github.com/flexprice/payment-notifier/internal/api/v1"
	"github.com/flexprice/payment-notifier/internal/config"
	"github.com/flexprice/payment-notifier/internal/httpclient"
	"github.com/flexprice/payment-notifier/internal/integration/slack"
	"github.com/flexprice/payment-notifier/internal/integration/stripe"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/flexprice/payment-notifier/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/payment-notifier/internal/pubsub/router"
	"github.com/flexprice/payment-notifier/internal/pyroscope"
	"github.com/flexprice/payment-notifier/internal/sentry"
	"github.com/flexprice/payment-notifier/internal/service"
	"github.com/flexprice/payment-notifier/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Integrations
			stripe.NewVerifier,
			slack.NewClient,

			// PubSub
			memory.NewPubSub,
			pubsubRouter.NewRouter,
		),
	)

	// Monitoring
	opts = append(opts,
		sentry.Module(),
		pyroscope.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewProjector,
			service.NewNotificationService,
			service.NewWebhookService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	verifier stripe.Verifier,
	webhookService service.WebhookService,
) api.Handlers {
	return api.Handlers{
		Webhook: v1.NewWebhookHandler(verifier, webhookService, logger),
		Health:  v1.NewHealthHandler(logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	notificationService service.NotificationService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	if cfg.Notifier.Mode == types.NotifierModeAsync {
		startMessageRouter(lc, router, notificationService, log)
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeAWSLambdaAPI:
		startAWSLambdaAPI(r)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address())
			go func() {
				if err := r.Run(cfg.Server.Address()); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startAWSLambdaAPI(r *gin.Engine) {
	ginLambda := ginadapter.New(r)
	lambda.Start(ginLambda.ProxyWithContext)
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	notificationService service.NotificationService,
	log *logger.Logger,
) {
	// Register handlers before starting the router
	notificationService.RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(context.Background()); err != nil {
					log.Errorw("message router failed", "error", err)
				}
			}()
			// the in-memory pubsub drops messages published before the
			// handler subscribes, so the API must not start earlier
			select {
			case <-router.Running():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
