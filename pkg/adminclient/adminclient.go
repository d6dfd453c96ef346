// Package adminclient is a typed client for the fixdesk admin API. Every
// operation returns either its decoded payload or an *Error carrying the
// failure class, read failures apart with IsNetwork, IsClient and IsServer.
//
// Idempotent requests that fail with a network error or a 5xx are retried
// with a linearly growing wait between attempts. Client errors are final.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	validate    *validator.Validate
	maxAttempts int
	retryDelay  time.Duration
}

type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetryDelay sets the base wait between attempts. Attempt n waits
// n times this long.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxAttempts bounds the number of tries per request.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Second * 30,
		},
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// request describes one API call. Idempotent requests may be retried, the
// rest get exactly one attempt.
type request struct {
	method     string
	path       string
	query      url.Values
	body       any
	idempotent bool
}

// do runs the request and decodes the response into dest when dest is not
// nil. Decoded payloads are validated before they are handed back.
func (c *Client) do(ctx context.Context, req request, dest any) error {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("encoding request body: %s", err), Status: http.StatusBadRequest}
		}
	}

	u := c.baseURL + req.path
	if len(req.query) != 0 {
		u += "?" + req.query.Encode()
	}

	var lastErr *Error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			// linear backoff, attempt n waits n-1 base delays
			wait := time.Duration(attempt-1) * c.retryDelay
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return networkError(ctx.Err())
			}
		}

		lastErr = c.attempt(ctx, req.method, u, payload, dest)
		if lastErr == nil {
			return nil
		}

		if !req.idempotent || !lastErr.retryable() {
			return lastErr
		}
	}

	return lastErr
}

func (c *Client) attempt(ctx context.Context, method string, u string, payload []byte, dest any) *Error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return networkError(err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &Error{Message: fmt.Sprintf("decoding response: %s", err), Status: resp.StatusCode}
	}

	if err := c.validateDest(dest); err != nil {
		return &Error{Message: fmt.Sprintf("invalid response payload: %s", err), Status: resp.StatusCode}
	}

	return nil
}

// validateDest runs struct validation over whatever shape came back, a
// struct directly or a slice of them.
func (c *Client) validateDest(dest any) error {
	switch v := dest.(type) {
	case *[]User:
		for i := range *v {
			if err := c.validate.Struct((*v)[i]); err != nil {
				return err
			}
		}
		return nil
	case *[]Message:
		for i := range *v {
			if err := c.validate.Struct((*v)[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return c.validate.Struct(dest)
	}
}

func decodeError(resp *http.Response) *Error {
	apiErr := Error{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(raw) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return &apiErr
	}

	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return &apiErr
}
