// Package proxy submits composed requests through the backend's /api/proxy endpoint.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/types"
)

var (
	// ErrNotAuthenticated is returned by Send without a signed-in session
	ErrNotAuthenticated = errors.New("Please log in to send requests.")

	// ErrInFlight is returned by Send while a previous submission is pending
	ErrInFlight = errors.New("A request is already in progress.")

	// ErrSessionChanged is returned when the session ended or changed while
	// the request was in flight; the answer is dropped.
	ErrSessionChanged = errors.New("session changed while the request was in flight")
)

// refreshBuffer bounds how many refresh results wait for a reader
const refreshBuffer = 8

// Backend performs the proxied call
type Backend interface {
	Proxy(ctx context.Context, token string, env *types.ProxyEnvelope) (*types.RequestOutcome, error)
}

// Session is the part of the session manager the invoker needs
type Session interface {
	Token() string
	Expire()
}

// Refresher reloads history after a successful submission
type Refresher interface {
	Fetch(ctx context.Context) error
}

// Builder produces the envelope to submit, typically a *composer.Draft
type Builder interface {
	Build() (*types.ProxyEnvelope, error)
}

// RefreshResult is published after each post-submission history refresh
type RefreshResult struct {
	Err      error
	Finished time.Time
}

// Invoker owns the latest request outcome and the request status
type Invoker struct {
	mu       sync.RWMutex
	outcome  *types.RequestOutcome
	status   types.Status
	inFlight bool

	backend   Backend
	session   Session
	refresher Refresher
	refreshes chan RefreshResult
	logger    *slog.Logger
}

// NewInvoker creates an invoker. refresher may be nil.
func NewInvoker(backend Backend, sess Session, refresher Refresher, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Invoker{
		backend:   backend,
		session:   sess,
		refresher: refresher,
		refreshes: make(chan RefreshResult, refreshBuffer),
		logger:    logger,
	}
}

// Send submits the request built by b. On success the outcome is replaced
// and a history refresh is started in the background; on any failure the
// previous outcome is kept.
func (inv *Invoker) Send(ctx context.Context, b Builder) (*types.RequestOutcome, error) {
	token := inv.session.Token()
	if token == "" {
		inv.fail(ErrNotAuthenticated.Error())
		return nil, ErrNotAuthenticated
	}

	inv.mu.Lock()
	if inv.inFlight {
		inv.mu.Unlock()
		return nil, ErrInFlight
	}
	inv.inFlight = true
	inv.status.Begin()
	inv.mu.Unlock()

	defer func() {
		inv.mu.Lock()
		inv.inFlight = false
		inv.mu.Unlock()
	}()

	env, err := b.Build()
	if err != nil {
		inv.fail(err.Error())
		return nil, err
	}

	start := time.Now()
	outcome, err := inv.backend.Proxy(ctx, token, env)

	if inv.session.Token() != token {
		inv.fail("")
		inv.logger.Debug("dropping proxy answer for a previous session", "url", env.URL)
		return nil, ErrSessionChanged
	}

	if err != nil {
		if api.IsAuthFailure(err) {
			inv.session.Expire()
			inv.fail(api.MsgSessionExpired)
			return nil, api.ErrSessionExpired
		}

		inv.fail(api.ProxyMessage(err))
		inv.logger.Warn("proxy request failed", "method", env.Method, "url", env.URL, "error", err)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	inv.mu.Lock()
	inv.outcome = outcome
	inv.status.Done()
	inv.mu.Unlock()

	inv.logger.Info("request sent",
		"method", env.Method,
		"url", env.URL,
		"status", outcome.Status,
		"duration", time.Since(start))

	inv.startRefresh()
	return outcome, nil
}

// startRefresh reloads history detached from the caller's context: the
// submission is already complete when it runs.
func (inv *Invoker) startRefresh() {
	if inv.refresher == nil {
		return
	}

	go func() {
		err := inv.refresher.Fetch(context.Background())
		if err != nil {
			inv.logger.Warn("history refresh after submission failed", "error", err)
		}

		select {
		case inv.refreshes <- RefreshResult{Err: err, Finished: time.Now()}:
		default:
			// No reader keeping up; the synchronizer already holds the result
		}
	}()
}

func (inv *Invoker) fail(msg string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if msg == "" {
		inv.status.Done()
		return
	}
	inv.status.Fail(msg)
}

// Refreshes delivers the result of each background history refresh
func (inv *Invoker) Refreshes() <-chan RefreshResult {
	return inv.refreshes
}

// Outcome returns the latest response, nil before the first success
func (inv *Invoker) Outcome() *types.RequestOutcome {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.outcome
}

// SetOutcome replaces the displayed response, used when a history entry is selected
func (inv *Invoker) SetOutcome(o *types.RequestOutcome) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.outcome = o
}

// Status returns the request status
func (inv *Invoker) Status() types.Status {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.status
}

// InFlight reports whether a submission is pending
func (inv *Invoker) InFlight() bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.inFlight
}
