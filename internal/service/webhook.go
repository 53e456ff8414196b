package service

import (
	"context"

	"github.com/flexprice/payment-notifier/internal/integration/stripe"
	"github.com/flexprice/payment-notifier/internal/types"
)

// WebhookService runs a verified event through projection and
// notification
type WebhookService interface {
	// HandleEvent reports whether a notification was attempted
	HandleEvent(ctx context.Context, event *stripe.VerifiedEvent) bool
}

type webhookService struct {
	ServiceParams
	projector Projector
	notifier  NotificationService
}

func NewWebhookService(params ServiceParams, projector Projector, notifier NotificationService) WebhookService {
	return &webhookService{
		ServiceParams: params,
		projector:     projector,
		notifier:      notifier,
	}
}

func (s *webhookService) HandleEvent(ctx context.Context, event *stripe.VerifiedEvent) bool {
	ctx = types.SetEventID(ctx, event.ID)
	s.Logger.WithContext(ctx).Infow("processing stripe webhook event",
		"event_type", event.Type,
	)

	s.Sentry.AddBreadcrumb("stripe.webhook", "received stripe event", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	info, ok := s.projector.Project(ctx, event)
	if !ok {
		return false
	}

	s.notifier.Notify(ctx, *info)
	return true
}
