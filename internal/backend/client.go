// Package backend reads entity collections from the YAMO PHP API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"yamo/treasury/internal/apperror"
	"yamo/treasury/internal/logging"
	"yamo/treasury/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// DefaultEndpoints are the read endpoints of the PHP API, relative to the base URL.
var DefaultEndpoints = map[models.Resource]string{
	models.ResourceAccounts:     "api/comptes.php",
	models.ResourceThirdParties: "api/tiers.php",
	models.ResourceTransactions: "api/operations.php",
	models.ResourceCategories:   "api/categories.php",
}

const (
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 1024
)

// Config holds the client settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Endpoints  map[models.Resource]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRetryInterval sets the first wait between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		c.retryInterval = d
	}
}

// Client fetches whole collections. It implements datacache.Fetcher.
type Client struct {
	base          *url.URL
	endpoints     map[models.Resource]string
	http          *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	logger        logging.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config, logger logging.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL '%s'", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	endpoints := make(map[models.Resource]string, len(DefaultEndpoints))
	for r, e := range DefaultEndpoints {
		endpoints[r] = e
	}
	for r, e := range cfg.Endpoints {
		if strings.TrimSpace(e) != "" {
			endpoints[r] = e
		}
	}

	c := &Client{
		base:          base,
		endpoints:     endpoints,
		http:          &http.Client{Timeout: timeout},
		maxRetries:    uint64(retries),
		retryInterval: 500 * time.Millisecond,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the absolute read URL of a resource.
func (c *Client) URL(resource models.Resource) (string, error) {
	endpoint, ok := c.endpoints[resource]
	if !ok {
		return "", fmt.Errorf("no endpoint for resource '%s'", resource)
	}
	ref, err := url.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint '%s' for resource '%s': %w", endpoint, resource, err)
	}
	return c.base.ResolveReference(ref).String(), nil
}

// Fetch reads the full collection of resource and decodes it into out, a pointer to a
// slice. Network errors and 5xx responses are retried with exponential backoff.
func (c *Client) Fetch(ctx context.Context, resource models.Resource, out any) error {
	endpoint, err := c.URL(resource)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	logger := c.logger.WithFields(
		logging.F(logging.FieldResource, resource),
		logging.F(logging.FieldRequestID, requestID),
	)

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		b, err := c.get(ctx, resource, endpoint, requestID)
		if err != nil {
			var be *apperror.BackendError
			if ctx.Err() != nil || (errors.As(err, &be) && !be.Temporary()) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.MaxElapsedTime = 0
	notify := func(err error, wait time.Duration) {
		logger.WithError(err).Warn("Backend read failed, retrying",
			logging.F(logging.FieldAttempt, attempt),
			logging.F(logging.FieldDuration, wait.Milliseconds()))
	}

	start := time.Now()
	if err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx), notify); err != nil {
		return err
	}

	if err := decode(resource, endpoint, body, out); err != nil {
		return err
	}
	logger.Debug("Backend read complete",
		logging.F(logging.FieldAttempt, attempt),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return nil
}

func (c *Client) get(ctx context.Context, resource models.Resource, endpoint, requestID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &apperror.BackendError{Resource: string(resource), URL: endpoint, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperror.BackendError{Resource: string(resource), URL: endpoint, Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.WithError(cerr).Warn("Failed to close response body")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &apperror.BackendError{
			Resource: string(resource),
			URL:      endpoint,
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(msg)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperror.BackendError{Resource: string(resource), URL: endpoint, Message: "failed to read response", Err: err}
	}
	return body, nil
}

// envelope is the response wrapper used by most PHP endpoints.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// decode accepts a bare JSON array or an envelope whose data is an array.
func decode(resource models.Resource, endpoint string, body []byte, out any) error {
	fail := func(msg string, err error) error {
		return &apperror.BackendError{Resource: string(resource), URL: endpoint, Message: msg, Err: err}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return fail("empty response", nil)
	}

	payload := body
	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fail("malformed response", err)
		}
		if env.Success != nil && !*env.Success {
			if env.Message == "" {
				env.Message = "request rejected"
			}
			return fail(env.Message, nil)
		}
		payload = bytes.TrimSpace(env.Data)
		if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
			payload = []byte("[]")
		}
	}
	if payload[0] != '[' {
		return fail("expected a JSON array", nil)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fail("malformed response", err)
	}
	return nil
}
