package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/composer"
	"github.com/studiowebux/postcli/internal/render"
	"github.com/studiowebux/postcli/internal/types"
)

var errNoSelection = errors.New("no history entry selected")

// fetchHistory reloads the history list, surfacing the synchronizer's message on failure
func (a *App) fetchHistory(ctx context.Context) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	if err := a.ws.FetchHistory(ctx); err != nil {
		if msg := a.ws.History().Status().Err; msg != "" {
			return &commandError{msg: msg, err: err}
		}
		return err
	}
	return nil
}

// History prints the user's history, newest first as served by the backend
func (a *App) History(ctx context.Context, asJSON bool) error {
	if err := a.fetchHistory(ctx); err != nil {
		return err
	}

	entries := a.ws.History().Entries()
	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		a.println(string(data))
		return nil
	}

	if len(entries) == 0 {
		a.println(render.EmptyHistory)
		return nil
	}
	for _, e := range entries {
		a.println(fmt.Sprintf("%s  %s", e.ID, render.HistoryLine(e)))
	}
	return nil
}

// resolveEntry returns id, or asks the user to pick an entry when id is empty
func (a *App) resolveEntry(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if !a.interactive {
		return "", errors.New("a history entry id is required")
	}
	if a.ws.History().Len() == 0 {
		return "", errors.New(render.EmptyHistory)
	}
	chosen, err := a.selectEntry(a.ws)
	if err != nil {
		return "", err
	}
	if chosen == "" {
		return "", errNoSelection
	}
	return chosen, nil
}

// Show prints a stored request and its stored response. No request is made.
func (a *App) Show(ctx context.Context, id string, out OutputOptions) error {
	if err := a.fetchHistory(ctx); err != nil {
		return err
	}

	id, err := a.resolveEntry(id)
	if err != nil {
		return err
	}

	entry, err := a.ws.Select(id)
	var methodErr *composer.UnsupportedMethodError
	if err != nil && !errors.As(err, &methodErr) {
		return fmt.Errorf("%w: %s", err, id)
	}

	fmt.Fprintln(a.errOut, describeRequest(entry))
	if methodErr != nil {
		fmt.Fprintf(a.errOut, "Warning: %v\n", methodErr)
	}
	return a.printOutcome(ctx, entry.Outcome(), out)
}

// Replay loads a history entry into the draft and submits it again
func (a *App) Replay(ctx context.Context, id string, out OutputOptions) error {
	if err := a.fetchHistory(ctx); err != nil {
		return err
	}

	id, err := a.resolveEntry(id)
	if err != nil {
		return err
	}

	// Replaying under another verb would not be the same request
	entry, err := a.ws.Select(id)
	if err != nil {
		return fmt.Errorf("cannot replay %s: %w", id, err)
	}

	fmt.Fprintln(a.errOut, describeRequest(entry))
	return a.submit(ctx, out)
}

// describeRequest is the one-line summary printed before a stored response
func describeRequest(e types.HistoryEntry) string {
	return fmt.Sprintf("%s %s (%s)", e.Method, e.URL, render.Timestamp(e.Timestamp))
}
