package testutil

import (
	"context"
	"net/http"

	"github.com/flexprice/payment-notifier/internal/config"
	"github.com/flexprice/payment-notifier/internal/logger"
	"github.com/flexprice/payment-notifier/internal/types"
	"github.com/stretchr/testify/suite"
)

// BaseServiceTestSuite provides common functionality for service and
// handler test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	logger     *logger.Logger
	config     *config.Configuration
	httpClient *MockHTTPClient
}

// TestConfig returns a valid configuration pointing at the test chat sink
func TestConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelDebug
	cfg.Stripe.WebhookSecret = TestWebhookSecret
	cfg.Slack.BotToken = TestSlackToken
	cfg.Slack.APIEndpoint = TestSlackEndpoint
	cfg.Slack.ChannelID = TestSlackChannel
	return cfg
}

func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = TestConfig()
	s.logger = logger.NewNopLogger()
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.httpClient = NewMockHTTPClient()
	s.httpClient.RegisterResponse(TestSlackEndpoint, MockResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"ok":true,"channel":"` + TestSlackChannel + `","ts":"1700000000.000100"}`),
	})
}

func (s *BaseServiceTestSuite) TearDownTest() {
	s.httpClient.Clear()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetHTTPClient() *MockHTTPClient {
	return s.httpClient
}
