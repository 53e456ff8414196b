package slack

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/flexprice/payment-notifier/internal/config"
	"github.com/flexprice/payment-notifier/internal/domain/notification"
	ierr "github.com/flexprice/payment-notifier/internal/errors"
	"github.com/flexprice/payment-notifier/internal/httpclient"
	"github.com/flexprice/payment-notifier/internal/logger"
)

// Client posts messages to a Slack compatible chat API
type Client interface {
	PostMessage(ctx context.Context, msg notification.ChatMessage) error
}

type client struct {
	httpClient httpclient.Client
	endpoint   string
	token      string
	logger     *logger.Logger
}

func NewClient(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) Client {
	return &client{
		httpClient: httpClient,
		endpoint:   cfg.Slack.APIEndpoint,
		token:      cfg.Slack.BotToken,
		logger:     logger,
	}
}

// apiResponse is the envelope Slack wraps every Web API answer in. Ok is
// a pointer so sinks that do not speak it are not read as failures.
type apiResponse struct {
	Ok    *bool  `json:"ok"`
	Error string `json:"error"`
	TS    string `json:"ts"`
}

func (c *client) PostMessage(ctx context.Context, msg notification.ChatMessage) error {
	req, err := httpclient.NewJSONRequest(http.MethodPost, c.endpoint, map[string]string{
		"Authorization": "Bearer " + c.token,
		"Content-Type":  "application/json",
	}, msg)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Send(ctx, req)
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return ierr.WithError(err).
				WithHintf("Chat API rejected the message with status %d", httpErr.StatusCode).
				WithReportableDetails(map[string]any{
					"status_code": httpErr.StatusCode,
					"channel":     msg.Channel,
				}).
				Mark(ierr.ErrHTTPClient)
		}
		return ierr.WithError(err).
			WithHint("Chat API is unreachable").
			Mark(ierr.ErrHTTPClient)
	}

	var body apiResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		c.logger.Debugw("chat API returned a non JSON body", "status_code", resp.StatusCode)
		return nil
	}
	if body.Ok != nil && !*body.Ok {
		return ierr.NewError("chat API returned ok=false: " + body.Error).
			WithHintf("Chat API refused the message: %s", body.Error).
			WithReportableDetails(map[string]any{
				"slack_error": body.Error,
				"channel":     msg.Channel,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Debugw("chat API accepted message",
		"channel", msg.Channel,
		"ts", body.TS,
	)
	return nil
}
