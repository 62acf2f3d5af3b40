package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/types"
)

// Backend routes
const (
	PathRegister = "/api/register"
	PathLogin    = "/api/login"
	PathHistory  = "/api/history"
	PathProxy    = "/api/proxy"
)

// maxErrorBody bounds how much of a failed response is read for its message
const maxErrorBody = 1 << 20

// Client talks to the postcli backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every call; zero keeps calls unbounded
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a backend client for baseURL (e.g. http://localhost:5000)
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) request(path string) *requests.Builder {
	return requests.
		URL(c.baseURL+path).
		Client(c.httpClient).
		AddValidator(checkStatus)
}

// Register creates an account and returns the issued token
func (c *Client) Register(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error) {
	return c.authenticate(ctx, PathRegister, creds)
}

// Login authenticates and returns the issued token
func (c *Client) Login(ctx context.Context, creds types.Credentials) (*types.AuthResponse, error) {
	return c.authenticate(ctx, PathLogin, creds)
}

func (c *Client) authenticate(ctx context.Context, path string, creds types.Credentials) (*types.AuthResponse, error) {
	var out types.AuthResponse

	err := c.request(path).
		BodyJSON(&creds).
		ToJSON(&out).
		Fetch(ctx)
	if err != nil {
		c.logger.Debug("authentication failed", "path", path, "username", creds.Username, "error", err)
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.logger.Debug("authenticated", "path", path, "username", creds.Username)
	return &out, nil
}

// History lists the caller's past requests in server order
func (c *Client) History(ctx context.Context, token string) ([]types.HistoryEntry, error) {
	var entries []types.HistoryEntry

	err := c.request(PathHistory).
		ContentType("application/json").
		Bearer(token).
		ToJSON(&entries).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PathHistory, err)
	}

	if entries == nil {
		entries = []types.HistoryEntry{}
	}

	c.logger.Debug("history fetched", "count", len(entries))
	return entries, nil
}

// Proxy asks the backend to perform env and returns the relayed response
func (c *Client) Proxy(ctx context.Context, token string, env *types.ProxyEnvelope) (*types.RequestOutcome, error) {
	var out types.RequestOutcome

	start := time.Now()
	err := c.request(PathProxy).
		Bearer(token).
		BodyJSON(env).
		ToJSON(&out).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", PathProxy, err)
	}

	c.logger.Debug("proxy call completed",
		"method", env.Method,
		"url", env.URL,
		"status", out.Status,
		"duration", time.Since(start))
	return &out, nil
}

// checkStatus turns non-2xx responses into *StatusError carrying the server message
func checkStatus(res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	se := &StatusError{StatusCode: res.StatusCode}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil {
			se.Message = payload.Message
			se.ErrorText = payload.Error
		}
	}

	return se
}
