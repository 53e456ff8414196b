package router

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/flexprice/payment-notifier/internal/pubsub"
	"github.com/flexprice/payment-notifier/internal/sentry"
)

// Router manages all message routing
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
}

// NewRouter creates a message router. There is no retry or poison queue
// middleware: a failed message is logged and acked.
func NewRouter(logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	router, err := message.NewRouter(
		message.RouterConfig{},
		pubsub.NewLoggerAdapter(logger),
	)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
	)

	return &Router{
		router: router,
		logger: logger,
		sentry: sentry,
	}, nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages. Handler
// errors are reported and swallowed so the message is never redelivered.
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			if err := handlerFunc(msg); err != nil {
				r.sentry.CaptureException(msg.Context(), err)
				r.logger.Errorw("handler failed",
					"handler", handlerName,
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return nil
		},
	)

	for _, m := range middlewares {
		handler.AddMiddleware(m)
	}
}

// Running is closed once the router has started all handlers
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Run blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting message router")
	return r.router.Run(ctx)
}

// Close gracefully shuts down the router
func (r *Router) Close() error {
	r.logger.Info("closing message router")
	return r.router.Close()
}
