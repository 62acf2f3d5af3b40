package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"github.com/studiowebux/postcli/internal/api"
	"github.com/studiowebux/postcli/internal/config"
	"github.com/studiowebux/postcli/internal/mock"
	"github.com/studiowebux/postcli/internal/storage"
	"github.com/studiowebux/postcli/internal/workspace"
)

// testTarget is the API the proxied requests reach
func testTarget(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `","title":"hello"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// CreateTestModel creates a Model over the development backend with an in-memory store
func CreateTestModel(t *testing.T) *Model {
	t.Helper()
	return createTestModel(t, nil)
}

// CreateAuthenticatedTestModel registers a user before building the model
func CreateAuthenticatedTestModel(t *testing.T) *Model {
	t.Helper()
	return createTestModel(t, func(ws *workspace.Workspace) {
		_, err := ws.Register(context.Background(), "alice", "secret")
		require.NoError(t, err)
	})
}

func createTestModel(t *testing.T, setup func(ws *workspace.Workspace)) *Model {
	t.Helper()

	backend, err := mock.NewServer(nil, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	ws := workspace.New(api.NewClient(srv.URL), storage.NewMemoryStore(), nil)
	if setup != nil {
		setup(ws)
	}

	m, err := New(ws, &config.Settings{}, nil, nil)
	if err != nil {
		t.Fatalf("Failed to create test model: %v", err)
	}
	m.copyText = func(string) error { return nil }

	m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return &m
}

// press sends one key to the model and returns the resulting command
func press(m *Model, key tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(key)
	return cmd
}

// typeText sends each rune as a key press
func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the model
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd, "expected a command")
	msg := cmd()
	m.Update(msg)
	return msg
}

// awaitRefresh waits for the history refresh that follows a send
func awaitRefresh(t *testing.T, m *Model) {
	t.Helper()
	select {
	case res := <-m.ws.Invoker().Refreshes():
		m.Update(refreshDoneMsg{result: res})
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for history refresh")
	}
}

// AssertModelField is a generic helper for checking model field values
func AssertModelField[T comparable](t *testing.T, fieldName string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}

// AssertNoError verifies that an error is nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
