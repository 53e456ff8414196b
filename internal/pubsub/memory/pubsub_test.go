package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "chat_notifications"

func TestPubSub_DeliversToSubscriber(t *testing.T) {
	ps := NewPubSub(logger.NewNopLogger())
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := ps.Subscribe(ctx, testTopic)
	require.NoError(t, err)

	require.NoError(t, ps.Publish(ctx, testTopic, message.NewMessage("ntf_1", []byte(`{"text":"hi"}`))))

	select {
	case msg := <-messages:
		assert.Equal(t, "ntf_1", msg.UUID)
		assert.Equal(t, `{"text":"hi"}`, string(msg.Payload))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestPubSub_AckedMessagesAreNotRetained(t *testing.T) {
	ps := NewPubSub(logger.NewNopLogger())
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := ps.Subscribe(ctx, testTopic)
	require.NoError(t, err)

	const published = 50
	for i := 0; i < published; i++ {
		require.NoError(t, ps.Publish(ctx, testTopic, message.NewMessage(watermill.NewUUID(), []byte("{}"))))
	}
	for i := 0; i < published; i++ {
		select {
		case msg := <-first:
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d messages delivered", i, published)
		}
	}

	late, err := ps.Subscribe(ctx, testTopic)
	require.NoError(t, err)

	select {
	case msg := <-late:
		t.Fatalf("late subscriber received already acked message %s", msg.UUID)
	case <-time.After(100 * time.Millisecond):
	}
}
