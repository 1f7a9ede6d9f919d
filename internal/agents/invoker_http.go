package agents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/brightbuddy-ai/platform/pkg/logging"
)

const (
	defaultInvokerUserAgent = "brightbuddy-router/0.1"
	maxAgentResponseBytes   = 1 << 20
)

// HTTPInvokerConfig controls how the HTTP agent invoker behaves.
type HTTPInvokerConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// HTTPInvoker calls agents exposed as HTTP endpoints under a common base URL.
// Transport-level retries cover 5xx and network errors only; 4xx responses
// are terminal.
type HTTPInvoker struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *logging.Logger
	userAgent  string
}

// NewHTTPInvoker creates a configured HTTPInvoker with sane defaults.
func NewHTTPInvoker(cfg HTTPInvokerConfig) (*HTTPInvoker, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("agents: base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultInvokerUserAgent
	}
	return &HTTPInvoker{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// Invoke POSTs payload to the agent endpoint and returns the response body.
func (c *HTTPInvoker) Invoke(ctx context.Context, agent string, payload []byte) ([]byte, error) {
	if strings.TrimSpace(agent) == "" {
		return nil, errors.New("agents: agent name required")
	}
	url := fmt.Sprintf("%s/agents/%s/invoke", c.baseURL, agent)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("agents: invoke %s: %w", agent, ctx.Err())
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		body, retryable, err := c.post(ctx, url, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.logger.Warn("agent invoke attempt failed",
			"agent", agent,
			"attempt", attempt+1,
			"error", err.Error(),
		)
	}
	return nil, lastErr
}

func (c *HTTPInvoker) post(ctx context.Context, url string, payload []byte) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("agents: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("agents: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAgentResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("agents: read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, false, nil
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("agents: agent returned %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("agents: agent returned %d", resp.StatusCode)
	}
}
