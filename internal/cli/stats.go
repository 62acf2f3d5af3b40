package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/analytics"
	"github.com/studiowebux/postcli/internal/render"
	"gopkg.in/yaml.v3"
)

// Stats prints per-endpoint call counts computed from the history
func (a *App) Stats(ctx context.Context, format string) error {
	if err := a.fetchHistory(ctx); err != nil {
		return err
	}

	stats := analytics.Summarize(a.ws.History().Entries())

	switch strings.TrimSpace(format) {
	case formatJSON:
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		a.println(string(data))
		return nil
	case formatYAML:
		data, err := yaml.Marshal(stats)
		if err != nil {
			return err
		}
		fmt.Fprint(a.out, string(data))
		return nil
	case "", formatText:
	default:
		return fmt.Errorf("unsupported stats format: %s (use text, json or yaml)", format)
	}

	if len(stats) == 0 {
		a.println(render.EmptyHistory)
		return nil
	}

	fmt.Fprintf(a.out, "%-7s %-40s %6s %6s %6s %8s\n", "METHOD", "ENDPOINT", "CALLS", "2XX", "ERRORS", "SUCCESS")
	for _, s := range stats {
		endpoint := s.Host + s.NormalizedPath
		fmt.Fprintf(a.out, "%-7s %-40s %6d %6d %6d %7.0f%%\n",
			s.Method, endpoint, s.TotalCalls, s.SuccessCount, s.ErrorCount+s.NetworkErrors, s.SuccessRate()*100)
	}
	return nil
}
