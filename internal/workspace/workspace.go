// Package workspace ties the session, the request being composed, the proxy
// invoker and the history list into the single scope the TUI and CLI drive.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/composer"
	"github.com/studiowebux/postcli/internal/history"
	"github.com/studiowebux/postcli/internal/logging"
	"github.com/studiowebux/postcli/internal/proxy"
	"github.com/studiowebux/postcli/internal/session"
	"github.com/studiowebux/postcli/internal/storage"
	"github.com/studiowebux/postcli/internal/types"
)

// ErrEntryNotFound is returned by Select for an unknown history id
var ErrEntryNotFound = errors.New("history entry not found")

// Backend is everything the workspace needs from the backend; *api.Client implements it
type Backend interface {
	session.Authenticator
	history.Backend
	proxy.Backend
}

// Workspace is the client application state
type Workspace struct {
	mu          sync.RWMutex
	draft       *composer.Draft
	authStatus  types.Status
	authMessage string

	session *session.Manager
	history *history.Synchronizer
	invoker *proxy.Invoker
	logger  *slog.Logger
}

// New wires a workspace around backend and store. Call Restore to pick up a
// persisted session.
func New(backend Backend, store storage.Store, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = logging.Nop()
	}

	sess := session.NewManager(store, backend, logger.With("component", "session"))
	hist := history.NewSynchronizer(backend, sess, logger.With("component", "history"))
	inv := proxy.NewInvoker(backend, sess, hist, logger.With("component", "proxy"))

	w := &Workspace{
		draft:   composer.New(),
		session: sess,
		history: hist,
		invoker: inv,
		logger:  logger,
	}

	// Every way a session ends goes through here
	sess.OnEnd(func(reason session.EndReason) {
		hist.Clear()
		if reason == session.EndExpired {
			w.mu.Lock()
			w.authMessage = api.MsgSessionExpired
			w.mu.Unlock()
		}
	})

	return w
}

// Restore loads the persisted session
func (w *Workspace) Restore() error {
	return w.session.Restore()
}

// Login signs in and loads the user's history. A failed history load does
// not fail the login.
func (w *Workspace) Login(ctx context.Context, username, password string) (string, error) {
	return w.authenticate(ctx, username, password, w.session.Login)
}

// Register creates an account, signs in with it and loads its history
func (w *Workspace) Register(ctx context.Context, username, password string) (string, error) {
	return w.authenticate(ctx, username, password, w.session.Register)
}

func (w *Workspace) authenticate(
	ctx context.Context,
	username, password string,
	call func(context.Context, string, string) (string, error),
) (string, error) {
	w.mu.Lock()
	w.authStatus.Begin()
	w.authMessage = ""
	w.mu.Unlock()

	msg, err := call(ctx, username, password)

	w.mu.Lock()
	if err != nil {
		w.authStatus.Fail(err.Error())
		w.authMessage = err.Error()
	} else {
		w.authStatus.Done()
		w.authMessage = msg
	}
	w.mu.Unlock()

	if err != nil {
		return "", err
	}

	if err := w.history.Fetch(ctx); err != nil {
		w.logger.Warn("history load after sign-in failed", "error", err)
	}
	return msg, nil
}

// Logout ends the session and returns the informational message
func (w *Workspace) Logout() string {
	msg := w.session.Logout()
	w.mu.Lock()
	w.authMessage = msg
	w.authStatus = types.Status{}
	w.mu.Unlock()
	return msg
}

// Send submits a snapshot of the current draft
func (w *Workspace) Send(ctx context.Context) (*types.RequestOutcome, error) {
	w.mu.RLock()
	snapshot := *w.draft
	w.mu.RUnlock()

	return w.invoker.Send(ctx, &snapshot)
}

// FetchHistory reloads the history list
func (w *Workspace) FetchHistory(ctx context.Context) error {
	return w.history.Fetch(ctx)
}

// Select loads a history entry into the draft and shows its stored response.
// No request is made. An entry whose verb the composer cannot send is still
// loaded; the returned entry then comes with a *composer.UnsupportedMethodError.
func (w *Workspace) Select(id string) (types.HistoryEntry, error) {
	entry, ok := w.history.Entry(id)
	if !ok {
		return types.HistoryEntry{}, ErrEntryNotFound
	}

	w.mu.Lock()
	err := w.draft.Hydrate(entry)
	w.mu.Unlock()
	if err != nil {
		w.logger.Warn("history entry loaded with a different method", "id", id, "error", err)
	}

	w.invoker.SetOutcome(entry.Outcome())
	return entry, err
}

// Authenticated reports whether a session is active
func (w *Workspace) Authenticated() bool {
	return w.session.State() == session.Authenticated
}

// Draft returns a copy of the request being composed
func (w *Workspace) Draft() composer.Draft {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return *w.draft
}

// EditDraft applies fn to the draft under the workspace lock
func (w *Workspace) EditDraft(fn func(d *composer.Draft)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.draft)
}

// AuthStatus returns the state of the last login or register
func (w *Workspace) AuthStatus() types.Status {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.authStatus
}

// AuthMessage returns the last authentication message (success, failure,
// logout or expiry)
func (w *Workspace) AuthMessage() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.authMessage
}

// Session returns the session manager
func (w *Workspace) Session() *session.Manager {
	return w.session
}

// History returns the history synchronizer
func (w *Workspace) History() *history.Synchronizer {
	return w.history
}

// Invoker returns the proxy invoker
func (w *Workspace) Invoker() *proxy.Invoker {
	return w.invoker
}
