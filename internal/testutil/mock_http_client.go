package testutil

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/flexprice/payment-notifier/internal/httpclient"
)

// MockHTTPClient implements httpclient.Client, records every request and
// answers from registered routes
type MockHTTPClient struct {
	mu       sync.RWMutex
	routes   map[string]MockResponse
	requests []*httpclient.Request
}

// MockResponse is either a response or a transport error for a route
type MockResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
	Err        error
}

func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		routes: make(map[string]MockResponse),
	}
}

// RegisterResponse registers a mock response for URLs ending in url
func (m *MockHTTPClient) RegisterResponse(url string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[url] = resp
}

// RegisterError makes requests to url fail as if the network was down
func (m *MockHTTPClient) RegisterError(url string, err error) {
	m.RegisterResponse(url, MockResponse{Err: err})
}

// Send implements the httpclient.Client interface
func (m *MockHTTPClient) Send(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	var matched MockResponse
	var found bool
	for route, resp := range m.routes {
		if strings.HasSuffix(req.URL, route) {
			matched = resp
			found = true
			break
		}
	}

	if !found {
		return nil, httpclient.NewError(http.StatusNotFound, []byte("Not Found"))
	}
	if matched.Err != nil {
		return nil, matched.Err
	}
	if matched.StatusCode < 200 || matched.StatusCode > 299 {
		return nil, httpclient.NewError(matched.StatusCode, matched.Body)
	}

	return &httpclient.Response{
		StatusCode: matched.StatusCode,
		Body:       matched.Body,
		Headers:    matched.Headers,
	}, nil
}

// Requests returns a copy of the requests seen so far
func (m *MockHTTPClient) Requests() []*httpclient.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*httpclient.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockHTTPClient) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Clear removes all registered responses and recorded requests
func (m *MockHTTPClient) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string]MockResponse)
	m.requests = nil
}
