// Package history keeps the signed-in user's request history in sync with the backend.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/types"
)

// Backend lists history entries for a token
type Backend interface {
	History(ctx context.Context, token string) ([]types.HistoryEntry, error)
}

// Session is the part of the session manager the synchronizer needs
type Session interface {
	Token() string
	Expire()
}

// Synchronizer holds the local copy of the user's history
type Synchronizer struct {
	mu      sync.RWMutex
	entries []types.HistoryEntry
	status  types.Status
	gen     uint64 // bumped by Clear; a fetch started before it is stale

	backend Backend
	session Session
	logger  *slog.Logger
}

// NewSynchronizer creates an empty synchronizer
func NewSynchronizer(backend Backend, sess Session, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Synchronizer{
		entries: []types.HistoryEntry{},
		backend: backend,
		session: sess,
		logger:  logger,
	}
}

// Fetch replaces the local entries with the backend's list. It does nothing
// when no one is signed in. A 401/403 answer ends the session, which clears
// the list; any other failure leaves the entries as they were.
func (s *Synchronizer) Fetch(ctx context.Context) error {
	token := s.session.Token()
	if token == "" {
		return nil
	}

	s.mu.Lock()
	s.status.Begin()
	gen := s.gen
	s.mu.Unlock()

	entries, err := s.backend.History(ctx, token)
	if err == nil {
		s.store(gen, token, entries)
		return nil
	}

	// The session ended or changed while the request was in flight: the
	// answer belongs to someone else.
	if s.stale(gen, token) {
		s.logger.Debug("discarding history error for a previous session", "error", err)
		return nil
	}

	if api.IsAuthFailure(err) {
		s.session.Expire()
		s.mu.Lock()
		s.status.Fail(api.MsgSessionExpired)
		s.mu.Unlock()
		return api.ErrSessionExpired
	}

	msg := api.Message(err)
	s.mu.Lock()
	s.status.Fail(msg)
	s.mu.Unlock()
	s.logger.Warn("history fetch failed", "error", err)
	return fmt.Errorf("failed to fetch history: %w", err)
}

// store replaces the entries unless the session ended since the fetch
// started. The check and the write share one critical section with Clear.
func (s *Synchronizer) store(gen uint64, token string, entries []types.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleLocked(gen, token) {
		s.logger.Debug("discarding history fetched for a previous session")
		return
	}
	s.entries = entries
	s.status.Done()
	s.logger.Debug("history synchronized", "count", len(entries))
}

func (s *Synchronizer) stale(gen uint64, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleLocked(gen, token)
}

// staleLocked reports whether the fetch started at gen with token lost its
// session, resetting the status when no Clear ran since. Callers hold s.mu.
func (s *Synchronizer) staleLocked(gen uint64, token string) bool {
	if s.gen == gen && s.session.Token() == token {
		return false
	}
	if s.gen == gen {
		s.status.Done()
	}
	return true
}

// Entries returns a copy of the entries in server order
func (s *Synchronizer) Entries() []types.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]types.HistoryEntry, len(s.entries))
	copy(result, s.entries)
	return result
}

// Len returns the number of entries
func (s *Synchronizer) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entry looks an entry up by id
func (s *Synchronizer) Entry(id string) (types.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return types.HistoryEntry{}, false
}

// Clear empties the list and resets the status
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []types.HistoryEntry{}
	s.status = types.Status{}
	s.gen++
}

// Status returns the loading/error state of the last fetch
func (s *Synchronizer) Status() types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// searchSource adapts entries for fuzzy matching on "METHOD URL"
type searchSource []types.HistoryEntry

func (src searchSource) String(i int) string {
	return strings.ToUpper(src[i].Method) + " " + src[i].URL
}

func (src searchSource) Len() int {
	return len(src)
}

// Search returns the entries matching query, best match first.
// An empty query returns every entry in server order.
func (s *Synchronizer) Search(query string) []types.HistoryEntry {
	entries := s.Entries()
	query = strings.TrimSpace(query)
	if query == "" {
		return entries
	}

	matches := fuzzy.FindFrom(query, searchSource(entries))
	result := make([]types.HistoryEntry, 0, len(matches))
	for _, m := range matches {
		result = append(result, entries[m.Index])
	}
	return result
}
