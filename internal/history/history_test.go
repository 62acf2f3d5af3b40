package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/types"
)

type fakeBackend struct {
	entries []types.HistoryEntry
	err     error
	calls   int
	tokens  []string

	// onCall runs while the request is "in flight"
	onCall func()
}

func (f *fakeBackend) History(_ context.Context, token string) ([]types.HistoryEntry, error) {
	f.calls++
	f.tokens = append(f.tokens, token)
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.HistoryEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

type fakeSession struct {
	token   string
	expired int
	onEnd   func()
}

func (f *fakeSession) Token() string { return f.token }

func (f *fakeSession) Expire() {
	f.expired++
	f.token = ""
	if f.onEnd != nil {
		f.onEnd()
	}
}

func sampleEntries() []types.HistoryEntry {
	return []types.HistoryEntry{
		{ID: "5", Method: "GET", URL: "https://api.example.com/users", ResponseStatus: 200},
		{ID: "4", Method: "POST", URL: "https://api.example.com/orders", ResponseStatus: 201},
		{ID: "3", Method: "DELETE", URL: "https://api.example.com/users/7", ResponseStatus: 204},
		{ID: "2", Method: "GET", URL: "https://status.example.org/health", ResponseStatus: 200},
		{ID: "1", Method: "PUT", URL: "https://api.example.com/orders/1", ResponseStatus: 200},
	}
}

func newSynced(t *testing.T, backend *fakeBackend, sess *fakeSession) *Synchronizer {
	t.Helper()
	s := NewSynchronizer(backend, sess, nil)
	sess.onEnd = s.Clear
	return s
}

func TestFetch_AnonymousIsNoop(t *testing.T) {
	backend := &fakeBackend{entries: sampleEntries()}
	s := newSynced(t, backend, &fakeSession{})

	require.NoError(t, s.Fetch(context.Background()))
	assert.Equal(t, 0, backend.calls)
	assert.Empty(t, s.Entries())
	assert.False(t, s.Status().Loading)
}

func TestFetch_ReplacesEntriesInServerOrder(t *testing.T) {
	backend := &fakeBackend{entries: sampleEntries()}
	s := newSynced(t, backend, &fakeSession{token: "T1"})

	require.NoError(t, s.Fetch(context.Background()))
	assert.Equal(t, []string{"T1"}, backend.tokens)
	assert.Equal(t, sampleEntries(), s.Entries())
	assert.Equal(t, types.Status{}, s.Status())

	backend.entries = backend.entries[:2]
	require.NoError(t, s.Fetch(context.Background()))
	assert.Equal(t, 2, s.Len())
}

func TestFetch_IsIdempotent(t *testing.T) {
	backend := &fakeBackend{entries: sampleEntries()}
	s := newSynced(t, backend, &fakeSession{token: "T1"})

	require.NoError(t, s.Fetch(context.Background()))
	first := s.Entries()
	require.NoError(t, s.Fetch(context.Background()))

	assert.Equal(t, first, s.Entries())
}

func TestFetch_AuthFailureExpiresSession(t *testing.T) {
	for _, code := range []int{401, 403} {
		backend := &fakeBackend{entries: sampleEntries()}
		sess := &fakeSession{token: "T1"}
		s := newSynced(t, backend, sess)
		require.NoError(t, s.Fetch(context.Background()))

		sess.token = "T1"
		backend.err = &api.StatusError{StatusCode: code}
		err := s.Fetch(context.Background())

		assert.ErrorIs(t, err, api.ErrSessionExpired)
		assert.Equal(t, 1, sess.expired)
		assert.Empty(t, s.Entries())
		assert.Contains(t, s.Status().Err, "expired")
		assert.False(t, s.Status().Loading)
	}
}

func TestFetch_OtherFailureKeepsEntries(t *testing.T) {
	backend := &fakeBackend{entries: sampleEntries()}
	sess := &fakeSession{token: "T1"}
	s := newSynced(t, backend, sess)
	require.NoError(t, s.Fetch(context.Background()))

	backend.err = &api.StatusError{StatusCode: 500}
	err := s.Fetch(context.Background())
	require.Error(t, err)

	assert.Equal(t, 0, sess.expired)
	assert.Len(t, s.Entries(), 5)
	assert.Equal(t, "HTTP error! status: 500", s.Status().Err)
}

func TestFetch_TransportFailureMessage(t *testing.T) {
	backend := &fakeBackend{err: errors.New("dial tcp 127.0.0.1:5000: connect: connection refused")}
	s := newSynced(t, backend, &fakeSession{token: "T1"})

	require.Error(t, s.Fetch(context.Background()))
	assert.Contains(t, s.Status().Err, "Connection refused")
}

func TestFetch_DiscardsResultOfPreviousSession(t *testing.T) {
	sess := &fakeSession{token: "T1"}
	backend := &fakeBackend{entries: sampleEntries()}
	backend.onCall = func() { sess.token = "T2" }
	s := newSynced(t, backend, sess)

	require.NoError(t, s.Fetch(context.Background()))
	assert.Empty(t, s.Entries())
	assert.False(t, s.Status().Loading)
}

func TestFetch_ClearDuringFetchWins(t *testing.T) {
	backend := &fakeBackend{entries: sampleEntries()}
	s := newSynced(t, backend, &fakeSession{token: "T1"})

	// A logout that clears the list while the answer is on its way, even
	// before the token is observed as gone
	backend.onCall = s.Clear

	require.NoError(t, s.Fetch(context.Background()))
	assert.Empty(t, s.Entries())
	assert.False(t, s.Status().Loading)

	// The next fetch for a live session stores normally
	backend.onCall = nil
	require.NoError(t, s.Fetch(context.Background()))
	assert.Len(t, s.Entries(), 5)
}

func TestFetch_StartClearsPreviousError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	s := newSynced(t, backend, &fakeSession{token: "T1"})
	require.Error(t, s.Fetch(context.Background()))
	require.NotEmpty(t, s.Status().Err)

	backend.err = nil
	backend.onCall = func() {
		st := s.Status()
		assert.True(t, st.Loading)
		assert.Empty(t, st.Err)
	}
	require.NoError(t, s.Fetch(context.Background()))
}

func TestEntry(t *testing.T) {
	s := newSynced(t, &fakeBackend{entries: sampleEntries()}, &fakeSession{token: "T1"})
	require.NoError(t, s.Fetch(context.Background()))

	e, ok := s.Entry("4")
	require.True(t, ok)
	assert.Equal(t, "https://api.example.com/orders", e.URL)

	_, ok = s.Entry("missing")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	s := newSynced(t, &fakeBackend{entries: sampleEntries()}, &fakeSession{token: "T1"})
	require.NoError(t, s.Fetch(context.Background()))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.Entries())
}

func TestSearch(t *testing.T) {
	s := newSynced(t, &fakeBackend{entries: sampleEntries()}, &fakeSession{token: "T1"})
	require.NoError(t, s.Fetch(context.Background()))

	assert.Len(t, s.Search(""), 5)

	health := s.Search("health")
	require.Len(t, health, 1)
	assert.Equal(t, "2", health[0].ID)

	for _, e := range s.Search("orders") {
		assert.Contains(t, e.URL, "orders")
	}

	assert.Empty(t, s.Search("zzzzzz"))
}
