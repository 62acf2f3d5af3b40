package types

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Method is an HTTP verb accepted by the backend proxy
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Methods lists the supported verbs in display order
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}

// ParseMethod parses a verb case-insensitively
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method: %q", s)
}

// HasBody reports whether the body text is sent for this method
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// Next returns the following verb in Methods, wrapping around
func (m Method) Next() Method {
	for i, known := range Methods {
		if known == m {
			return Methods[(i+1)%len(Methods)]
		}
	}
	return MethodGet
}

// Session is the persisted authentication state.
// Token and Username are either both set or both empty.
type Session struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
}

// Valid reports whether both halves of the session are present
func (s Session) Valid() bool {
	return s.Token != "" && s.Username != ""
}

// Credentials is the payload of /api/login and /api/register
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the success payload of /api/login and /api/register
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ProxyEnvelope is the payload of /api/proxy
type ProxyEnvelope struct {
	URL     string         `json:"url"`
	Method  Method         `json:"method"`
	Headers map[string]any `json:"headers"`
	Body    any            `json:"body"`
}

// Headers are response headers as relayed by the backend. Values arrive as
// arbitrary JSON: arrays (set-cookie) are joined with ", " and scalars are
// printed, so one odd header never fails the whole payload.
type Headers map[string]string

// UnmarshalJSON decodes a JSON object whose values may be of any type
func (h *Headers) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*h = nil
		return nil
	}

	out := make(Headers, len(raw))
	for key, value := range raw {
		out[key] = headerValue(value)
	}
	*h = out
	return nil
}

// Keys returns the header names sorted
func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func headerValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = headerValue(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		out, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(out)
	default:
		return fmt.Sprint(val)
	}
}

// RequestOutcome is the response relayed by the backend proxy
type RequestOutcome struct {
	Status  int     `json:"status" yaml:"status"`
	Headers Headers `json:"headers" yaml:"headers"`
	Data    any     `json:"data" yaml:"data"`
}

// HistoryEntry is one persisted request/response pair, as served by /api/history
type HistoryEntry struct {
	ID              string            `json:"_id" yaml:"id"`
	URL             string            `json:"url" yaml:"url"`
	Method          string            `json:"method" yaml:"method"`
	Headers         map[string]any    `json:"headers" yaml:"headers"`
	Body            any               `json:"body" yaml:"body"`
	ResponseStatus  int               `json:"responseStatus" yaml:"responseStatus"`
	ResponseHeaders Headers           `json:"responseHeaders" yaml:"responseHeaders"`
	ResponseData    any               `json:"responseData" yaml:"responseData"`
	Timestamp       string            `json:"timestamp" yaml:"timestamp"`
}

// Outcome returns the stored response of the entry
func (e HistoryEntry) Outcome() *RequestOutcome {
	return &RequestOutcome{
		Status:  e.ResponseStatus,
		Headers: e.ResponseHeaders,
		Data:    e.ResponseData,
	}
}

// Status tracks one asynchronous concern (request, history, auth).
// Loading and Err are never both set: starting an attempt clears Err.
type Status struct {
	Loading bool
	Err     string
}

// Begin marks a new attempt
func (s *Status) Begin() {
	s.Loading = true
	s.Err = ""
}

// Fail ends the attempt with an error message
func (s *Status) Fail(msg string) {
	s.Loading = false
	s.Err = msg
}

// Done ends the attempt successfully
func (s *Status) Done() {
	s.Loading = false
	s.Err = ""
}
