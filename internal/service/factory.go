package service

import (
	"github.com/flexprice/payment-notifier/internal/config"
	"github.com/flexprice/payment-notifier/internal/integration/slack"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/flexprice/payment-notifier/internal/pubsub"
	"github.com/flexprice/payment-notifier/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Sentry *sentry.Service

	SlackClient slack.Client

	// PubSub carries chat messages in async notifier mode
	PubSub pubsub.PubSub
}

func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	sentry *sentry.Service,
	slackClient slack.Client,
	pubSub pubsub.PubSub,
) ServiceParams {
	return ServiceParams{
		Logger:      logger,
		Config:      config,
		Sentry:      sentry,
		SlackClient: slackClient,
		PubSub:      pubSub,
	}
}
