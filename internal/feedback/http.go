package feedback

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
)

// Script hosts do not answer CORS preflight; text/plain keeps the POST simple.
const submitContentType = "text/plain"

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes int64 = 1 << 20

// HTTPTransport sends requests to a deployed script endpoint.
type HTTPTransport struct {
	base   *url.URL
	client *http.Client
	logger Logger
	clock  func() time.Time
}

// HTTPOption customizes HTTPTransport construction.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient overrides http.DefaultClient. No timeout is imposed by the
// transport itself; set one on the client or the context if needed.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) HTTPOption {
	return func(t *HTTPTransport) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock allows tests to control latency measurements.
func WithClock(clock func() time.Time) HTTPOption {
	return func(t *HTTPTransport) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewHTTPTransport prepares a transport for the endpoint at baseURL.
func NewHTTPTransport(baseURL string, opts ...HTTPOption) (*HTTPTransport, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("feedback: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("feedback: base url must be http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("feedback: base url %q has no host", baseURL)
	}
	t := &HTTPTransport{
		base:   u,
		client: http.DefaultClient,
		logger: nopLogger{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// BaseURL returns the configured endpoint.
func (t *HTTPTransport) BaseURL() string {
	return t.base.String()
}

// Call issues exactly one HTTP request for req.
func (t *HTTPTransport) Call(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return Response{}, err
	}
	started := t.clock()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.Printf("%s failed after %s: %v", req.Action, t.clock().Sub(started), err)
		return Response{}, fmt.Errorf("feedback: %s: %w: %w", req.Action, ErrNetwork, err)
	}
	defer resp.Body.Close()
	t.logger.Printf("%s %s -> %d in %s", httpReq.Method, req.Action, resp.StatusCode, t.clock().Sub(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return Response{}, &StatusError{Action: req.Action, StatusCode: resp.StatusCode}
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("feedback: %s: %w: %w", req.Action, ErrParse, err)
	}
	return out, nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := *t.base
	query := target.Query()

	if req.Action == ActionQuery {
		for key, value := range req.Payload {
			query.Set(key, value)
		}
		// The action parameter always names the call, whatever the payload carries.
		query.Set("action", string(req.Action))
		target.RawQuery = query.Encode()
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("feedback: build query request: %w", err)
		}
		return httpReq, nil
	}

	query.Set("action", string(req.Action))
	target.RawQuery = query.Encode()
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("feedback: encode submit payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("feedback: build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", submitContentType)
	return httpReq, nil
}
