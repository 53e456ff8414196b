package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/flexprice/payment-notifier/internal/config"
	ierr "github.com/flexprice/payment-notifier/internal/errors"
)

// Request represents an HTTP request
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// Client interface for making HTTP requests
type Client interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// DefaultClient implements the Client interface on top of net/http
type DefaultClient struct {
	client *http.Client
}

const defaultTimeout = 30 * time.Second

// NewDefaultClient creates a client using the chat sink timeout
func NewDefaultClient(cfg *config.Configuration) Client {
	timeout := cfg.Slack.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewJSONRequest marshals body and builds a request for it
func NewJSONRequest(method, url string, headers map[string]string, body any) (*Request, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode request body").
			Mark(ierr.ErrSystem)
	}
	return &Request{
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    raw,
	}, nil
}

// Send makes an HTTP request and returns the response. Statuses outside
// the 2xx range are returned as *Error.
func (c *DefaultClient) Send(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid outbound request").
			Mark(ierr.ErrHTTPClient)
	}

	if req.Body != nil {
		httpReq.ContentLength = int64(len(req.Body))
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Outbound request failed").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read outbound response").
			Mark(ierr.ErrHTTPClient)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewError(resp.StatusCode, respBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    headers,
	}, nil
}
