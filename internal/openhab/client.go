package openhab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/ohbridge/internal/infrastructure/config"
)

const (
	defaultTimeout = 10 * time.Second

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 256
)

// Logger defines the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Item is the subset of an openHAB item description the bridge uses.
type Item struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
	State string `json:"state"`
}

// Client talks to the openHAB REST API.
//
// Every call is a single synchronous request bounded by the configured
// timeout. Failed calls are never retried.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     Logger
}

// New creates a client for the configured openHAB instance.
func New(cfg config.OpenHABConfig) *Client {
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(cfg.BaseURL(), cfg.Token, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client against baseURL using httpClient.
// A nil httpClient gets the default timeout.
func NewWithHTTPClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger. A nil logger restores the no-op default.
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		c.logger = noopLogger{}
		return
	}
	c.logger = l
}

// GetState returns the raw state string of item.
func (c *Client) GetState(ctx context.Context, item string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, itemPath(item)+"/state", "text/plain", nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// SetState sends command to item.
func (c *Client) SetState(ctx context.Context, item, command string) error {
	if command == "" {
		return fmt.Errorf("%w: item %q", ErrEmptyCommand, item)
	}
	_, err := c.do(ctx, http.MethodPost, itemPath(item), "", strings.NewReader(command))
	return err
}

// GetItem returns the item description.
func (c *Client) GetItem(ctx context.Context, item string) (*Item, error) {
	body, err := c.do(ctx, http.MethodGet, itemPath(item), "application/json", nil)
	if err != nil {
		return nil, err
	}
	var it Item
	if err := json.Unmarshal(body, &it); err != nil {
		return nil, fmt.Errorf("%w: item %q: %v", ErrUnexpectedPayload, item, err)
	}
	return &it, nil
}

// GetItemType returns the type tag of item, e.g. "Rollershutter" or
// "Number:Temperature".
func (c *Client) GetItemType(ctx context.Context, item string) (string, error) {
	it, err := c.GetItem(ctx, item)
	if err != nil {
		return "", err
	}
	if it.Type == "" {
		return "", fmt.Errorf("%w: item %q has no type", ErrUnexpectedPayload, item)
	}
	return it.Type, nil
}

// HealthCheck verifies the REST root answers.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/rest/", "application/json", nil)
	return err
}

func itemPath(item string) string {
	return "/rest/items/" + url.PathEscape(item)
}

func (c *Client) do(ctx context.Context, method, path, accept string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("openhab request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("openhab request", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s body: %v", ErrRequestFailed, path, err)
	}
	return data, nil
}
