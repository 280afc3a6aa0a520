package podclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"eight_sleep_local/internal/logger"
	"eight_sleep_local/internal/models"
)

const (
	DefaultHost        = "localhost"
	DefaultPort        = 8080
	DefaultTimeout     = 10 * time.Second
	DefaultHistorySize = 10

	pathDeviceStatus = "/api/deviceStatus"
)

// Client talks to the companion server's REST API. It does not authenticate.
type Client struct {
	host    string
	port    int
	baseURL string
	http    *http.Client
	log     *logger.Logger

	mu          sync.RWMutex
	history     []models.DeviceStatus // newest first
	historySize int
}

type Option func(*Client)

// WithHTTPClient replaces the internal *http.Client (its timeout included).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

func WithHistorySize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.historySize = n
		}
	}
}

// New builds a client for http://host:port. Empty host / zero port fall back to defaults.
func New(host string, port int, opts ...Option) *Client {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	c := &Client{
		host:        host,
		port:        port,
		baseURL:     "http://" + host + ":" + strconv.Itoa(port),
		http:        &http.Client{Timeout: DefaultTimeout},
		log:         logger.Nop(),
		historySize: DefaultHistorySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	return c
}

func (c *Client) Host() string    { return c.host }
func (c *Client) Port() int       { return c.port }
func (c *Client) BaseURL() string { return c.baseURL }

// Close releases idle keep-alive connections.
func (c *Client) Close() {
	c.log.Debugw("pod_client_closed", "base_url", c.baseURL)
	c.http.CloseIdleConnections()
}

// UpdateDeviceData fetches /api/deviceStatus and pushes it onto the rolling history.
func (c *Client) UpdateDeviceData(ctx context.Context) error {
	c.log.Debugw("pod_fetch_device_status", "path", pathDeviceStatus)
	var st models.DeviceStatus
	if err := c.do(ctx, http.MethodGet, pathDeviceStatus, nil, &st); err != nil {
		return err
	}
	c.handleDeviceJSON(st)
	return nil
}

func (c *Client) handleDeviceJSON(st models.DeviceStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append([]models.DeviceStatus{st}, c.history...)
	if len(c.history) > c.historySize {
		c.history = c.history[:c.historySize]
	}
}

// DeviceData returns the most recent status document, or the zero document before the first fetch.
func (c *Client) DeviceData() models.DeviceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.history) == 0 {
		return models.DeviceStatus{}
	}
	return c.history[0]
}

// History returns a copy of the rolling history, newest first.
func (c *Client) History() []models.DeviceStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.DeviceStatus, len(c.history))
	copy(out, c.history)
	return out
}

// do performs one request. 204 is success without a body, 200 is decoded into out
// (when non-nil), every other status is a *StatusError. Failures are logged here.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Errorw("pod_request_failed", "method", method, "path", path, "err", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusOK:
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.log.Errorw("pod_response_decode_failed", "method", method, "path", path, "err", err)
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	default:
		c.log.Errorw("pod_unexpected_status", "method", method, "path", path, "status", resp.StatusCode)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
}
