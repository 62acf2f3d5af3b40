package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/studiowebux/postcli/internal/executor"
	"github.com/studiowebux/postcli/internal/render"
	"github.com/studiowebux/postcli/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatBody = "body"
)

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

// formatOutput renders a response in one of the output formats.
// colour enables the ANSI status line and body highlighting.
func formatOutput(result *types.RequestOutcome, format string, colour bool) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", err
		}
		if colour {
			return render.Highlight(string(data), "json"), nil
		}
		return string(data), nil

	case formatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return "", err
		}
		if colour {
			return render.Highlight(string(data), "yaml"), nil
		}
		return string(data), nil

	case formatBody:
		return render.JSON(result.Data), nil

	case formatText:
		var sb strings.Builder

		statusLine := fmt.Sprintf("%d %s", result.Status, http.StatusText(result.Status))
		if colour {
			statusLine = getStatusColor(result.Status) + statusLine + colorReset
		}
		sb.WriteString(statusLine)
		sb.WriteString("\n")

		if len(result.Headers) > 0 {
			sb.WriteString("\nHeaders:\n")
			sb.WriteString(render.Headers(result.Headers))
			sb.WriteString("\n")
		}

		body := render.JSON(result.Data)
		if _, isText := result.Data.(string); colour && !isText {
			body = render.Highlight(body, "json")
		}
		sb.WriteString("\nBody:\n")
		sb.WriteString(body)
		sb.WriteString("\n")

		return sb.String(), nil

	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, yaml or body)", format)
	}
}

func getStatusColor(status int) string {
	if executor.IsSuccessStatus(status) {
		return colorGreen
	} else if executor.IsClientErrorStatus(status) || executor.IsServerErrorStatus(status) {
		return colorRed
	}
	return colorYellow
}
