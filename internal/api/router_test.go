package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/flexprice/payment-notifier/internal/api/v1"
	"github.com/flexprice/payment-notifier/internal/domain/notification"
	"github.com/flexprice/payment-notifier/internal/integration/slack"
	"github.com/flexprice/payment-notifier/internal/integration/stripe"
	"github.com/flexprice/payment-notifier/internal/pubsub/memory"
	"github.com/flexprice/payment-notifier/internal/sentry"
	"github.com/flexprice/payment-notifier/internal/service"
	"github.com/flexprice/payment-notifier/internal/testutil"
	"github.com/flexprice/payment-notifier/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	cfg := s.GetConfig()
	log := s.GetLogger()
	params := service.NewServiceParams(
		log,
		cfg,
		sentry.NewSentryService(cfg, log),
		slack.NewClient(cfg, s.GetHTTPClient(), log),
		memory.NewPubSub(log),
	)
	webhookService := service.NewWebhookService(
		params,
		service.NewProjector(params),
		service.NewNotificationService(params),
	)

	s.router = NewRouter(Handlers{
		Webhook: v1.NewWebhookHandler(stripe.NewVerifier(cfg, log), webhookService, log),
		Health:  v1.NewHealthHandler(log),
	}, cfg, log)
}

func (s *RouterSuite) postWebhook(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("stripe-signature", signature)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) postSigned(payload []byte) *httptest.ResponseRecorder {
	return s.postWebhook(payload, testutil.SignPayload(payload, testutil.TestWebhookSecret))
}

func (s *RouterSuite) chatMessages() []notification.ChatMessage {
	var messages []notification.ChatMessage
	for _, req := range s.GetHTTPClient().Requests() {
		var msg notification.ChatMessage
		s.Require().NoError(json.Unmarshal(req.Body, &msg))
		messages = append(messages, msg)
	}
	return messages
}

func (s *RouterSuite) TestTestEndpoint() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok Updated", w.Body.String())
	s.NotEmpty(w.Header().Get(types.HeaderRequestID))
	s.Zero(s.GetHTTPClient().RequestCount())
}

func (s *RouterSuite) TestHealthEndpoint() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func (s *RouterSuite) TestRequestIDIsPropagated() {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(types.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal("req-123", w.Header().Get(types.HeaderRequestID))
}

func (s *RouterSuite) TestRecognisedEventsPostOneMessage() {
	testCases := []struct {
		name         string
		eventType    string
		object       map[string]any
		expectedText string
	}{
		{
			name:      "invoice_paid",
			eventType: "invoice.paid",
			object: map[string]any{
				"status":             "paid",
				"customer_name":      "Acme Ltd",
				"customer_email":     "billing@acme.test",
				"amount_paid":        5000,
				"currency":           "usd",
				"hosted_invoice_url": "https://invoice.stripe.test/i/1",
			},
			expectedText: "Event Name: invoice.paid\n" +
				"Event Status: paid\n" +
				"Customer Name: Acme Ltd\n" +
				"Customer Email: billing@acme.test\n" +
				"Amount Paid: 5000 usd\n" +
				"View Details: https://invoice.stripe.test/i/1",
		},
		{
			name:      "charge_updated",
			eventType: "charge.updated",
			object: map[string]any{
				"status":          "succeeded",
				"customer":        nil,
				"billing_details": map[string]any{"name": "Jane Doe", "email": "jane@doe.test"},
				"amount":          1050,
				"currency":        "usd",
				"receipt_url":     "https://pay.stripe.test/receipts/1",
			},
			expectedText: "Event Name: charge.updated\n" +
				"Event Status: succeeded\n" +
				"Customer Name: Jane Doe\n" +
				"Customer Email: jane@doe.test\n" +
				"Amount Paid: 10.5 usd\n" +
				"View Details: https://pay.stripe.test/receipts/1",
		},
		{
			name:      "charge_succeeded",
			eventType: "charge.succeeded",
			object: map[string]any{
				"status":          "succeeded",
				"customer":        "cus_123",
				"amount":          0,
				"amount_captured": 2000,
				"currency":        "usd",
			},
			expectedText: "Event Name: charge.succeeded\n" +
				"Event Status: succeeded\n" +
				"Customer Name: cus_123\n" +
				"Customer Email: \n" +
				"Amount Paid: 20 usd\n" +
				"View Details: ",
		},
		{
			name:      "invoice_created",
			eventType: "invoice.created",
			object: map[string]any{
				"status":      "draft",
				"customer":    "cus_123",
				"amount_paid": 0,
				"currency":    "usd",
			},
			expectedText: "Event Name: invoice.created\n" +
				"Event Status: draft\n" +
				"Customer Name: cus_123\n" +
				"Customer Email: \n" +
				"Amount Paid: 0 usd\n" +
				"View Details: ",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.GetHTTPClient().Clear()
			s.GetHTTPClient().RegisterResponse(testutil.TestSlackEndpoint, testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"ok":true}`),
			})

			w := s.postSigned(testutil.NewEventPayload("evt_"+tc.name, tc.eventType, tc.object))
			s.Equal(http.StatusOK, w.Code)
			s.Equal("ok", w.Body.String())

			messages := s.chatMessages()
			s.Require().Len(messages, 1)
			s.Equal(testutil.TestSlackChannel, messages[0].Channel)
			s.Equal(tc.expectedText, messages[0].Text)
			for _, label := range []string{"Event Name:", "Event Status:", "Customer Name:", "Customer Email:", "Amount Paid:", "View Details:"} {
				s.Equal(1, strings.Count(messages[0].Text, label), label)
			}
		})
	}
}

func (s *RouterSuite) TestInvalidSignatureIsRejected() {
	payload := testutil.NewEventPayload("evt_1", "charge.succeeded", map[string]any{"amount": 1050})

	testCases := []struct {
		name      string
		payload   []byte
		signature string
	}{
		{
			name:      "wrong_secret",
			payload:   payload,
			signature: testutil.SignPayload(payload, "whsec_someone_else"),
		},
		{
			name:      "missing_header",
			payload:   payload,
			signature: "",
		},
		{
			name:      "modified_body",
			payload:   bytes.Replace(payload, []byte("1050"), []byte("9999"), 1),
			signature: testutil.SignPayload(payload, testutil.TestWebhookSecret),
		},
		{
			name:      "expired_timestamp",
			payload:   payload,
			signature: testutil.SignPayloadAt(payload, testutil.TestWebhookSecret, time.Now().Add(-time.Hour)),
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.GetHTTPClient().Clear()

			w := s.postWebhook(tc.payload, tc.signature)
			s.Equal(http.StatusBadRequest, w.Code)
			s.True(strings.HasPrefix(w.Body.String(), "Webhook Error: "), w.Body.String())
			s.Greater(len(w.Body.String()), len("Webhook Error: "))
			s.Zero(s.GetHTTPClient().RequestCount())
		})
	}
}

func (s *RouterSuite) TestUnknownEventTypeIsAcknowledged() {
	w := s.postSigned(testutil.NewEventPayload("evt_1", "customer.created", map[string]any{"id": "cus_1"}))

	s.Equal(http.StatusOK, w.Code)
	s.Equal("ok", w.Body.String())
	s.Zero(s.GetHTTPClient().RequestCount())
}

func (s *RouterSuite) TestDuplicateDeliveryNotifiesTwice() {
	payload := testutil.NewEventPayload("evt_dup", "charge.succeeded", map[string]any{"amount": 1050, "currency": "usd"})

	s.Equal(http.StatusOK, s.postSigned(payload).Code)
	s.Equal(http.StatusOK, s.postSigned(payload).Code)

	messages := s.chatMessages()
	s.Require().Len(messages, 2)
	s.Equal(messages[0], messages[1])
}

func (s *RouterSuite) TestChatFailureStillAcknowledges() {
	testCases := []struct {
		name     string
		response testutil.MockResponse
	}{
		{
			name:     "server_error",
			response: testutil.MockResponse{StatusCode: http.StatusServiceUnavailable},
		},
		{
			name:     "not_ok",
			response: testutil.MockResponse{StatusCode: http.StatusOK, Body: []byte(`{"ok":false,"error":"invalid_auth"}`)},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.GetHTTPClient().Clear()
			s.GetHTTPClient().RegisterResponse(testutil.TestSlackEndpoint, tc.response)

			w := s.postSigned(testutil.NewEventPayload("evt_1", "invoice.paid", map[string]any{"status": "paid"}))
			s.Equal(http.StatusOK, w.Code)
			s.Equal("ok", w.Body.String())
			s.Equal(1, s.GetHTTPClient().RequestCount())
		})
	}
}

func (s *RouterSuite) TestCORSPreflight() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/webhook", nil))

	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("*", w.Header().Get("Access-Control-Allow-Origin"))
}

func (s *RouterSuite) TestMistypedFieldsStillNotify() {
	testCases := []struct {
		name         string
		eventType    string
		object       map[string]any
		expectedLine string
	}{
		{
			name:         "fractional_amount_paid",
			eventType:    "invoice.paid",
			object:       map[string]any{"status": "paid", "amount_paid": 12.5, "currency": "usd"},
			expectedLine: "Amount Paid: 12.5 usd",
		},
		{
			name:         "numeric_customer",
			eventType:    "charge.succeeded",
			object:       map[string]any{"customer": 42, "amount": 1050, "currency": "usd"},
			expectedLine: "Customer Name: 42",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.GetHTTPClient().Clear()
			s.GetHTTPClient().RegisterResponse(testutil.TestSlackEndpoint, testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       []byte(`{"ok":true}`),
			})

			w := s.postSigned(testutil.NewEventPayload("evt_"+tc.name, tc.eventType, tc.object))
			s.Equal(http.StatusOK, w.Code)

			messages := s.chatMessages()
			s.Require().Len(messages, 1)
			s.Contains(messages[0].Text, tc.expectedLine)
		})
	}
}
