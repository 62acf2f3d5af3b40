// Package analytics summarizes the request history per endpoint.
package analytics

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/studiowebux/postcli/internal/types"
)

// Stats aggregates the history entries of one method and normalized path
type Stats struct {
	Method         string      `json:"method" yaml:"method"`
	Host           string      `json:"host" yaml:"host"`
	NormalizedPath string      `json:"path" yaml:"path"`
	TotalCalls     int         `json:"totalCalls" yaml:"totalCalls"`
	SuccessCount   int         `json:"successCount" yaml:"successCount"`
	ErrorCount     int         `json:"errorCount" yaml:"errorCount"`
	NetworkErrors  int         `json:"networkErrors" yaml:"networkErrors"` // status 0: the target was never reached
	StatusCodes    map[int]int `json:"statusCodes" yaml:"statusCodes"`
	LastCalled     time.Time   `json:"lastCalled" yaml:"lastCalled"`
}

// SuccessRate is the share of 2xx answers, 0 without calls
func (s Stats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalCalls)
}

// idSegment matches path segments that identify a single resource
var idSegment = regexp.MustCompile(`^([0-9]+|[0-9a-fA-F]{24}|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})$`)

// NormalizePath splits a URL into its host and a path with the query and
// fragment removed and resource ids replaced by {id}
func NormalizePath(rawURL string) (host, path string) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		// Remove query parameters and fragment by hand
		if idx := strings.IndexAny(rawURL, "?#"); idx != -1 {
			rawURL = rawURL[:idx]
		}
		return "", rawURL
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if idSegment.MatchString(seg) {
			segments[i] = "{id}"
		}
	}

	path = strings.Join(segments, "/")
	if path == "" {
		path = "/"
	}
	return u.Host, path
}

type groupKey struct {
	method, host, path string
}

// Summarize groups entries by method and normalized path, most recently
// called first
func Summarize(entries []types.HistoryEntry) []Stats {
	groups := make(map[groupKey]*Stats)

	for _, e := range entries {
		host, path := NormalizePath(e.URL)
		key := groupKey{method: strings.ToUpper(e.Method), host: host, path: path}

		s, ok := groups[key]
		if !ok {
			s = &Stats{
				Method:         key.method,
				Host:           host,
				NormalizedPath: path,
				StatusCodes:    make(map[int]int),
			}
			groups[key] = s
		}

		s.TotalCalls++
		s.StatusCodes[e.ResponseStatus]++
		switch {
		case e.ResponseStatus == 0:
			s.NetworkErrors++
		case e.ResponseStatus >= 200 && e.ResponseStatus < 300:
			s.SuccessCount++
		case e.ResponseStatus >= 400:
			s.ErrorCount++
		}

		if ts, ok := parseTimestamp(e.Timestamp); ok && ts.After(s.LastCalled) {
			s.LastCalled = ts
		}
	}

	statsList := make([]Stats, 0, len(groups))
	for _, s := range groups {
		statsList = append(statsList, *s)
	}

	sort.Slice(statsList, func(i, j int) bool {
		a, b := statsList[i], statsList[j]
		if !a.LastCalled.Equal(b.LastCalled) {
			return a.LastCalled.After(b.LastCalled)
		}
		if a.NormalizedPath != b.NormalizedPath {
			return a.NormalizedPath < b.NormalizedPath
		}
		return a.Method < b.Method
	})

	return statsList
}

func parseTimestamp(ts string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
