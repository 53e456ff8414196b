package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/payment-notifier/internal/domain/notification"
	pubsubRouter "github.com/flexprice/payment-notifier/internal/pubsub/router"
	"github.com/flexprice/payment-notifier/internal/types"
)

const (
	metadataRequestID = "request_id"
	metadataEventID   = "event_id"
)

// NotificationService delivers chat notifications. Delivery failures are
// logged and reported, never returned.
type NotificationService interface {
	// Notify makes at most one delivery attempt for info
	Notify(ctx context.Context, info notification.Info)

	// RegisterHandler subscribes the async delivery handler on router
	RegisterHandler(router *pubsubRouter.Router)
}

type notificationService struct {
	ServiceParams
}

func NewNotificationService(params ServiceParams) NotificationService {
	return &notificationService{
		ServiceParams: params,
	}
}

func (s *notificationService) Notify(ctx context.Context, info notification.Info) {
	msg := notification.NewChatMessage(s.Config.Slack.ChannelID, info)

	if s.Config.Notifier.Mode == types.NotifierModeAsync {
		s.publish(ctx, msg)
		return
	}

	// the webhook caller going away must not cut the delivery short
	s.deliver(context.WithoutCancel(ctx), msg)
}

func (s *notificationService) publish(ctx context.Context, msg notification.ChatMessage) {
	log := s.Logger.WithContext(ctx)

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorw("failed to encode chat message", "error", err)
		return
	}

	m := message.NewMessage(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION), payload)
	m.Metadata.Set(metadataRequestID, types.GetRequestID(ctx))
	m.Metadata.Set(metadataEventID, types.GetEventID(ctx))

	if err := s.PubSub.Publish(ctx, s.Config.Notifier.Topic, m); err != nil {
		s.Sentry.CaptureException(ctx, err)
		log.Errorw("failed to queue chat message", "error", err, "message_uuid", m.UUID)
		return
	}

	log.Debugw("queued chat message", "message_uuid", m.UUID, "topic", s.Config.Notifier.Topic)
}

func (s *notificationService) deliver(ctx context.Context, msg notification.ChatMessage) {
	log := s.Logger.WithContext(ctx)

	span, ctx := s.Sentry.StartNotifySpan(ctx, msg.Channel)
	if span != nil {
		defer span.Finish()
	}

	if err := s.SlackClient.PostMessage(ctx, msg); err != nil {
		s.Sentry.CaptureException(ctx, err)
		log.Errorw("failed to send notification to chat",
			"error", err,
			"channel", msg.Channel,
		)
		return
	}

	log.Infow("sent notification to chat", "channel", msg.Channel)
}

func (s *notificationService) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"chat_notification_handler",
		s.Config.Notifier.Topic,
		s.PubSub,
		s.processMessage,
	)
}

func (s *notificationService) processMessage(msg *message.Message) error {
	var chatMessage notification.ChatMessage
	if err := json.Unmarshal(msg.Payload, &chatMessage); err != nil {
		s.Logger.Errorw("failed to decode queued chat message",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	ctx := context.WithValue(msg.Context(), types.CtxRequestID, msg.Metadata.Get(metadataRequestID))
	ctx = types.SetEventID(ctx, msg.Metadata.Get(metadataEventID))

	s.deliver(ctx, chatMessage)
	return nil
}
