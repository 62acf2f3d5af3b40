package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/composer"
	"github.com/studiowebux/postcli/internal/filter"
	"github.com/studiowebux/postcli/internal/types"
)

// SendOptions describes a request given on the command line
type SendOptions struct {
	URL     string
	Method  string
	Headers string // JSON object
	Body    string // JSON value, sent for POST/PUT/PATCH only
	OutputOptions
}

// OutputOptions controls how a response is printed
type OutputOptions struct {
	Format string // text, json, yaml, body
	Query  string // JMESPath query or $(shell command)
	Copy   bool   // copy the printed body to the clipboard
}

// commandError prints msg while keeping err's chain for errors.Is
type commandError struct {
	msg string
	err error
}

func (e *commandError) Error() string { return e.msg }

func (e *commandError) Unwrap() error { return e.err }

// statusError is returned when the target answered with a 4xx/5xx status
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.status)
}

// Send composes a request from opts, submits it through the backend proxy and prints the response
func (a *App) Send(ctx context.Context, opts SendOptions) error {
	method := types.MethodGet
	if opts.Method != "" {
		m, err := types.ParseMethod(opts.Method)
		if err != nil {
			return err
		}
		method = m
	}

	a.ws.EditDraft(func(d *composer.Draft) {
		d.SetURL(opts.URL)
		d.SetMethod(method)
		d.SetHeadersText(opts.Headers)
		d.SetBodyText(opts.Body)
	})

	return a.submit(ctx, opts.OutputOptions)
}

// submit sends the current draft and prints the outcome
func (a *App) submit(ctx context.Context, out OutputOptions) error {
	if q := strings.TrimSpace(out.Query); q != "" && !filter.IsShellCommand(q) && !filter.IsValidJMESPath(q) {
		return fmt.Errorf("invalid JMESPath query %q", q)
	}

	outcome, err := a.ws.Send(ctx)
	if err != nil {
		if msg := a.ws.Invoker().Status().Err; msg != "" {
			return &commandError{msg: msg, err: err}
		}
		return err
	}

	if err := a.printOutcome(ctx, outcome, out); err != nil {
		return err
	}

	if outcome.Status >= 400 {
		return &statusError{status: outcome.Status}
	}
	return nil
}

// printOutcome applies the query, formats and prints the response, and copies it when asked
func (a *App) printOutcome(ctx context.Context, outcome *types.RequestOutcome, opts OutputOptions) error {
	result := *outcome

	if strings.TrimSpace(opts.Query) != "" {
		filtered, err := filter.Apply(ctx, outcome.Data, opts.Query)
		if err != nil {
			return err
		}
		result.Data = decodeFiltered(filtered)
	}

	output, err := formatOutput(&result, a.outputFormat(opts.Format), a.colour && a.settings.HighlightEnabled())
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, strings.TrimRight(output, "\n"))

	if opts.Copy {
		text, err := filter.Apply(ctx, result.Data, "")
		if err != nil {
			return err
		}
		if err := a.copyText(text); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(a.errOut, "Response body copied to clipboard")
	}
	return nil
}

// decodeFiltered turns a query result back into a value so json/yaml output
// stays structured; shell output that is not JSON stays text
func decodeFiltered(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
