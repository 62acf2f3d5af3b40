// Package executor performs outbound HTTP calls described by a proxy envelope.
// It backs the development server's /api/proxy route.
package executor

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/types"
)

// maxResponseBody bounds how much of a target response is relayed
const maxResponseBody = 10 << 20

// ClientOptions configures the outbound HTTP client
type ClientOptions struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// NewClient creates the HTTP client used for outbound calls
func NewClient(opts ClientOptions) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Execute performs env and returns the target's response. Any status code is
// a successful execution; only transport failures return an error.
func Execute(ctx context.Context, client *http.Client, env *types.ProxyEnvelope) (*types.RequestOutcome, error) {
	if env.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}

	method := env.Method
	if method == "" {
		method = types.MethodGet
	}

	var bodyReader io.Reader
	if method.HasBody() && !isEmptyBody(env.Body) {
		data, err := json.Marshal(env.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), env.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range env.Headers {
		req.Header.Set(key, fmt.Sprint(value))
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Header names lower-cased, multiple values joined
	headers := make(types.Headers, len(resp.Header))
	for key, values := range resp.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	return &types.RequestOutcome{
		Status:  resp.StatusCode,
		Headers: headers,
		Data:    decodeData(bodyBytes),
	}, nil
}

// decodeData returns the body as decoded JSON when it parses, else as text
func decodeData(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}
	return string(body)
}

func isEmptyBody(body any) bool {
	switch b := body.(type) {
	case nil:
		return true
	case map[string]any:
		return len(b) == 0
	case string:
		return b == ""
	}
	return false
}

// FormatDuration formats duration in milliseconds to human-readable string
func FormatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	return fmt.Sprintf("%.2fs", seconds)
}

// IsSuccessStatus returns true if status code is 2xx
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

// IsClientErrorStatus returns true if status code is 4xx
func IsClientErrorStatus(status int) bool {
	return status >= 400 && status < 500
}

// IsServerErrorStatus returns true if status code is 5xx
func IsServerErrorStatus(status int) bool {
	return status >= 500 && status < 600
}
