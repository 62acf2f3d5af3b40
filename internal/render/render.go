// Package render formats responses and history entries for the terminal.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/types"
)

// Placeholder is shown before any response is available
const Placeholder = `No response yet. Fill in the URL and click "Send Request".`

// EmptyHistory is shown when the history list is empty
const EmptyHistory = "No requests in history yet."

// chromaStyle and chromaFormatter used for terminal highlighting
const (
	chromaStyle     = "monokai"
	chromaFormatter = "terminal256"
)

// JSON renders v as two-space indented JSON. Strings are returned as-is.
func JSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}

// Highlight colours src for a terminal. lexer is a chroma lexer name
// ("json", "yaml"). On failure src is returned unchanged.
func Highlight(src, lexer string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, lexer, chromaFormatter, chromaStyle); err != nil {
		return src
	}
	return buf.String()
}

// Headers renders headers as sorted "name: value" lines
func Headers(headers types.Headers) string {
	var b strings.Builder
	for i, k := range headers.Keys() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", k, headers[k])
	}
	return b.String()
}

// Outcome renders a response as a status line, the headers and the body.
// highlight enables chroma colouring of the body.
func Outcome(o *types.RequestOutcome, highlight bool) string {
	if o == nil {
		return Placeholder
	}

	body := JSON(o.Data)
	if highlight {
		if _, isText := o.Data.(string); !isText {
			body = Highlight(body, "json")
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %d\n\n", o.Status)
	b.WriteString("Headers:\n")
	if len(o.Headers) > 0 {
		b.WriteString(Headers(o.Headers))
		b.WriteByte('\n')
	}
	b.WriteString("\nBody:\n")
	b.WriteString(body)
	return b.String()
}

// Timestamp renders an RFC 3339 timestamp in local time; unparsable input is returned as-is
func Timestamp(ts string) string {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Local().Format("2006-01-02 15:04:05")
		}
	}
	return ts
}

// HistoryLine renders one history row: method, URL, status and time
func HistoryLine(e types.HistoryEntry) string {
	return fmt.Sprintf("%-6s %s  %d  %s", strings.ToUpper(e.Method), e.URL, e.ResponseStatus, Timestamp(e.Timestamp))
}

// IsSuccessMessage reports whether an informational message reads as a success
func IsSuccessMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "successful")
}
