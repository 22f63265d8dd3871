package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ttlpanel/internal/errors"
)

const (
	requestIDHeader = "X-Request-ID"
	tokenHeader     = "Authentication"
	maxResponseSize = 1 << 20
)

// callRequest is the body of a procedure call. Arguments are positional.
type callRequest struct {
	Args []any `json:"args"`
}

// callResponse is the plugin host's reply. Success is false when the
// backend raised; Result carries the procedure's return value otherwise.
type callResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client calls the TTL backend through the plugin host's HTTP method endpoint
type Client struct {
	baseURL    string
	plugin     string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the plugin host authentication token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds every call. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for call diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the named plugin on the host at baseURL
func NewClient(baseURL, plugin string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		plugin:     plugin,
		httpClient: &http.Client{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCurrentTTL returns the system TTL. The backend answers -1 when it
// cannot read the value; that is reported as a rejection.
func (c *Client) GetCurrentTTL(ctx context.Context) (int, error) {
	var ttl int
	if err := c.call(ctx, ProcGetCurrentTTL, &ttl); err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, errors.Rejected(ProcGetCurrentTTL)
	}
	return ttl, nil
}

// SetTTLTo65 asks the backend to set the TTL to 65
func (c *Client) SetTTLTo65(ctx context.Context) (bool, error) {
	return c.callBool(ctx, ProcSetTTLTo65)
}

// ResetTTLToDefault asks the backend to set the TTL to 64
func (c *Client) ResetTTLToDefault(ctx context.Context) (bool, error) {
	return c.callBool(ctx, ProcResetTTLToDefault)
}

// MakeTTLPersistent installs a boot-time rule for ttl
func (c *Client) MakeTTLPersistent(ctx context.Context, ttl int) (bool, error) {
	return c.callBool(ctx, ProcMakeTTLPersistent, ttl)
}

// GetPersistentTTL returns the installed persistence rule
func (c *Client) GetPersistentTTL(ctx context.Context) (PersistenceStatus, error) {
	var status PersistenceStatus
	if err := c.call(ctx, ProcGetPersistentTTL, &status); err != nil {
		return PersistenceStatus{}, err
	}
	if !status.IsPersistent {
		status.TTLValue = nil
	}
	return status, nil
}

// SetTTLCustom asks the backend to set the TTL to ttl
func (c *Client) SetTTLCustom(ctx context.Context, ttl int) (bool, error) {
	return c.callBool(ctx, ProcSetTTLCustom, ttl)
}

func (c *Client) callBool(ctx context.Context, procedure string, args ...any) (bool, error) {
	var ok bool
	if err := c.call(ctx, procedure, &ok, args...); err != nil {
		return false, err
	}
	return ok, nil
}

// call posts one procedure call and decodes its result into out
func (c *Client) call(ctx context.Context, procedure string, out any, args ...any) error {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(callRequest{Args: args})
	if err != nil {
		return errors.WrapDecodeError(err, procedure)
	}

	endpoint := fmt.Sprintf("%s/plugins/%s/methods/%s", c.baseURL, url.PathEscape(c.plugin), procedure)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WrapTransportError(err, procedure)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("procedure call failed", "procedure", procedure, "request_id", requestID, "error", err)
		return errors.WrapTransportError(err, procedure)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return errors.WrapTransportError(err, procedure)
	}

	c.logger.Debug("procedure call",
		"procedure", procedure,
		"request_id", requestID,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return errors.WrapTransportError(fmt.Errorf("plugin host returned %s", resp.Status), procedure)
	}

	var envelope callResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return errors.WrapDecodeError(err, procedure)
	}
	if !envelope.Success {
		return errors.WrapBackendError(envelope.Error, procedure)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return errors.WrapDecodeError(fmt.Errorf("missing result"), procedure)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return errors.WrapDecodeError(err, procedure)
	}

	return nil
}
