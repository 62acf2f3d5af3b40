// Package composer holds the request being edited and turns it into a proxy envelope.
package composer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/types"
)

var errNotObject = errors.New("headers must be a JSON object")

// Field identifies which free-text field failed to parse
type Field int

const (
	FieldHeaders Field = iota
	FieldBody
)

func (f Field) String() string {
	if f == FieldBody {
		return "body"
	}
	return "headers"
}

// ParseError is a headers or body text that is not valid JSON
type ParseError struct {
	Field Field
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == FieldBody {
		return "Error parsing Body JSON. Please ensure it's valid JSON for POST/PUT/PATCH."
	}
	return "Error parsing Headers JSON. Please ensure it's valid JSON."
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedMethodError is returned by Hydrate for a stored verb outside
// types.Methods. The draft is still loaded, as GET.
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("method %s is not supported, the request was loaded as GET", e.Method)
}

// Draft is the request being composed. Fields are free text and only
// validated by Build.
type Draft struct {
	URL         string
	Method      types.Method
	HeadersText string
	BodyText    string
}

// New returns an empty GET draft
func New() *Draft {
	return &Draft{Method: types.MethodGet}
}

func (d *Draft) SetURL(url string) { d.URL = url }

func (d *Draft) SetMethod(m types.Method) { d.Method = m }

func (d *Draft) SetHeadersText(text string) { d.HeadersText = text }

func (d *Draft) SetBodyText(text string) { d.BodyText = text }

// Build parses the draft into the payload sent to /api/proxy.
// Empty headers or body text means {}. The body text is ignored for
// methods that carry no body.
func (d *Draft) Build() (*types.ProxyEnvelope, error) {
	method := d.Method
	if method == "" {
		method = types.MethodGet
	}

	headers := map[string]any{}
	if strings.TrimSpace(d.HeadersText) != "" {
		// decoding into a map rejects arrays and scalars
		if err := json.Unmarshal([]byte(d.HeadersText), &headers); err != nil {
			return nil, &ParseError{Field: FieldHeaders, Err: err}
		}
		if headers == nil {
			return nil, &ParseError{Field: FieldHeaders, Err: errNotObject}
		}
	}

	var body any = map[string]any{}
	if method.HasBody() && strings.TrimSpace(d.BodyText) != "" {
		if err := json.Unmarshal([]byte(d.BodyText), &body); err != nil {
			return nil, &ParseError{Field: FieldBody, Err: err}
		}
	}

	return &types.ProxyEnvelope{
		URL:     d.URL,
		Method:  method,
		Headers: headers,
		Body:    body,
	}, nil
}

// Hydrate overwrites every field of the draft from a history entry. An
// unknown verb loads as GET and returns *UnsupportedMethodError.
func (d *Draft) Hydrate(entry types.HistoryEntry) error {
	var hydrateErr error
	method, err := types.ParseMethod(entry.Method)
	if err != nil {
		method = types.MethodGet
		hydrateErr = &UnsupportedMethodError{Method: strings.ToUpper(entry.Method)}
	}

	d.URL = entry.URL
	d.Method = method
	d.HeadersText = indent(entry.Headers)
	d.BodyText = indent(entry.Body)
	return hydrateErr
}

// indent renders v as two-space indented JSON, or "" for nil
func indent(v any) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return ""
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(out)
}
